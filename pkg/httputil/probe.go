package httputil

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"
)

// DefaultProbeHost is the host checked by Reachable when none is given: the
// CDN that serves the vega runtime referenced by HTML output.
const DefaultProbeHost = "cdn.jsdelivr.net"

// probeTimeout bounds the connectivity check.
const probeTimeout = 5 * time.Second

// Reachable reports whether host answers a HEAD request. Only name
// resolution failure counts as unreachable: a host that resolves but
// refuses or times out is still considered present, since the question
// being answered is "is there a network at all", not "is the service
// healthy". An empty host probes the vega CDN.
func Reachable(ctx context.Context, host string) bool {
	if host == "" {
		host = DefaultProbeHost
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, "http://"+host+"/", nil)
	if err != nil {
		return false
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		var dnsErr *net.DNSError
		return !errors.As(err, &dnsErr)
	}
	defer resp.Body.Close()
	return true
}
