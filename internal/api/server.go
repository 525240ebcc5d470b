// Package api exposes the conversion pipeline over HTTP.
//
// The service has two endpoints:
//
//	POST /v1/convert  — convert a chart spec, response body is the artifact
//	GET  /healthz     — liveness plus renderer toolchain availability
//
// Successful conversions return the raw artifact bytes with Content-Type set
// to the computed MIME type. Errors are JSON objects {"code", "error"} with
// status 400 for invalid requests, 502 when the renderer toolchain fails,
// and 500 otherwise.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vegakit/vegasave/pkg/buildinfo"
	"github.com/vegakit/vegasave/pkg/chart"
	"github.com/vegakit/vegasave/pkg/convert"
	"github.com/vegakit/vegasave/pkg/errors"
	"github.com/vegakit/vegasave/pkg/pipeline"
)

// maxSpecSize bounds the request body to keep pathological specs out of the
// renderer toolchain.
const maxSpecSize = 10 << 20 // 10 MiB

// Server handles chart conversion requests.
type Server struct {
	runner   *pipeline.Runner
	baseOpts pipeline.Options
	logger   *log.Logger
}

// New creates an API server. baseOpts seeds each request's pipeline options
// (versions, bin dir, scale); per-request fields are overlaid on top.
func New(runner *pipeline.Runner, baseOpts pipeline.Options, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		runner:   runner,
		baseOpts: baseOpts,
		logger:   logger,
	}
}

// Handler builds the chi router with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/convert", s.handleConvert)
	})

	return r
}

// requestLogger tags each request with an ID and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		start := time.Now()
		next.ServeHTTP(w, req)

		s.logger.Debug("request",
			"id", reqID,
			"method", req.Method,
			"path", req.URL.Path,
			"duration", time.Since(start).Round(time.Millisecond))
	})
}

// =============================================================================
// Convert
// =============================================================================

// convertRequest is the POST /v1/convert body.
type convertRequest struct {
	Spec    json.RawMessage `json:"spec"`
	Format  string          `json:"format"`
	Mode    string          `json:"mode,omitempty"`
	Scale   float64         `json:"scale,omitempty"`
	Refresh bool            `json:"refresh,omitempty"`
}

func (s *Server) handleConvert(w http.ResponseWriter, req *http.Request) {
	var body convertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxSpecSize))
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid request body"))
		return
	}
	if len(body.Spec) == 0 {
		s.writeError(w, errors.New(errors.ErrCodeInvalidSpec, "spec is required"))
		return
	}

	spec, err := chart.ParseSpec(body.Spec)
	if err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidSpec, err, "invalid spec"))
		return
	}

	format := body.Format
	if format == "" {
		format = pipeline.DefaultFormat
	}
	if err := chart.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.baseOpts
	opts.Spec = spec
	opts.Mode = body.Mode
	opts.Refresh = body.Refresh
	if body.Scale > 0 {
		opts.Scale = body.Scale
	}

	bundle, err := s.runner.Mimebundle(req.Context(), opts, format)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", bundle.Mimetype)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(bundle.Data)
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, req *http.Request) {
	var convOpts []convert.Option
	if s.baseOpts.BinDir != "" {
		convOpts = append(convOpts, convert.WithBinDir(s.baseOpts.BinDir))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   buildinfo.Version,
		"toolchain": convert.New(convOpts...).Enabled(),
	})
}

// =============================================================================
// Responses
// =============================================================================

// errorResponse is the JSON error body.
type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// writeError maps a pipeline error to an HTTP status and JSON body.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	s.logger.Warn("request failed", "code", code, "status", status, "err", err)
	writeJSON(w, status, errorResponse{Code: string(code), Error: errors.UserMessage(err)})
}

// statusForCode maps error codes to HTTP statuses. Input problems are the
// caller's fault; renderer failures are upstream failures.
func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeConversionFailed, errors.ErrCodeRendererMissing:
		return http.StatusBadGateway
	case errors.ErrCodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
