// Package util holds small HTTP helpers used by the knowledge fetcher.
package util

import (
	"net/http"
	"net/url"
)

// NewProxyFunc builds a proxy selector for the fetcher's transport.
// Explicit proxy URLs win per scheme; with none configured the standard
// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment handling applies.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	if httpProxy == "" && httpsProxy == "" {
		return http.ProxyFromEnvironment
	}

	return func(req *http.Request) (*url.URL, error) {
		if req.URL.Scheme == "https" && httpsProxy != "" {
			return url.Parse(httpsProxy)
		}
		if httpProxy != "" {
			return url.Parse(httpProxy)
		}
		return http.ProxyFromEnvironment(req)
	}
}
