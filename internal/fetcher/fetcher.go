// Package fetcher downloads geometry and statistic resources from HTTP or the local filesystem.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"strings"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the resource and returns its body.
	Download(ctx context.Context, src string) (io.ReadCloser, error)
}

// Router dispatches http(s) sources to the HTTP fetcher and everything else to the file fetcher.
type Router struct {
	HTTP Fetcher
	File Fetcher
}

// NewRouter builds a Router over the given HTTP fetcher and a FileFetcher.
func NewRouter(httpFetcher Fetcher) *Router {
	return &Router{HTTP: httpFetcher, File: FileFetcher{}}
}

// Download implements Fetcher.
func (r *Router) Download(ctx context.Context, src string) (io.ReadCloser, error) {
	if IsRemote(src) {
		return r.HTTP.Download(ctx, src)
	}
	return r.File.Download(ctx, src)
}

// IsRemote reports whether src is an http or https URL.
func IsRemote(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
