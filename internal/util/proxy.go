package util

import (
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/rotisserie/eris"
)

// NewProxyFunc returns a transport proxy function that rotates through the
// configured proxies per request. With no proxies it falls back to the
// HTTP_PROXY/HTTPS_PROXY environment.
func NewProxyFunc(proxies []string) (func(*http.Request) (*url.URL, error), error) {
	if len(proxies) == 0 {
		return http.ProxyFromEnvironment, nil
	}

	parsed := make([]*url.URL, 0, len(proxies))
	for _, p := range proxies {
		u, err := url.Parse(p)
		if err != nil || u.Host == "" {
			return nil, eris.Errorf("util: invalid proxy %q", p)
		}
		parsed = append(parsed, u)
	}

	var next atomic.Uint64
	return func(*http.Request) (*url.URL, error) {
		i := next.Add(1) - 1
		return parsed[i%uint64(len(parsed))], nil
	}, nil
}
