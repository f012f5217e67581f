package geocoding

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient builds the HTTP client shared by all workers of a run.
// connectTimeout bounds dialing, readTimeout bounds the wait for response headers
// and, together with connectTimeout, the whole exchange.
func NewHTTPClient(connectTimeout, readTimeout time.Duration, maxConns int) *http.Client {
	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second, //nolint:mnd // standard keep-alive
	}

	return &http.Client{
		Timeout: connectTimeout + readTimeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   connectTimeout,
			ResponseHeaderTimeout: readTimeout,
			MaxIdleConns:          maxConns,
			MaxIdleConnsPerHost:   maxConns,
			IdleConnTimeout:       90 * time.Second, //nolint:mnd // net/http default
		},
	}
}
