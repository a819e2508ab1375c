// Package transport provides an HTTP client tuned for fetching third-party
// web pages: a local CA bundle on top of the system trust store,
// browser-like headers, and transparent gzip/deflate/brotli decompression.
// It backs the fetch_markdown demo handler in examples/tools.
package transport

import (
	"compress/flate"
	"compress/gzip"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/richard-senior/jrpc/internal/logger"
)

var httpClient *http.Client

// getLocalCABundle returns a locally trusted corporate proxy CA bundle, if
// one is present. Its absence is routine, not an error.
func getLocalCABundle() ([]byte, error) {
	bundlePath := filepath.Join(os.Getenv("HOME"), ".ssh/local_ca_bundle.pem")
	return os.ReadFile(bundlePath)
}

// GetCustomHTTPClient returns a process-wide http.Client with the system
// trust store, optionally extended with a local CA bundle.
func GetCustomHTTPClient() (*http.Client, error) {
	if httpClient != nil {
		return httpClient, nil
	}

	rootCAs, err := x509.SystemCertPool()
	if err != nil {
		logger.Warn("failed to get system cert pool: %v", err)
		rootCAs = x509.NewCertPool()
	}

	if bundle, err := getLocalCABundle(); err == nil {
		if !rootCAs.AppendCertsFromPEM(bundle) {
			logger.Warn("failed to append local CA bundle")
		}
	}

	client := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: rootCAs},
			Proxy:           http.ProxyFromEnvironment,
		},
		Timeout: 30 * time.Second,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("stopped after 10 redirects")
			}
			return nil
		},
	}
	httpClient = client
	return client, nil
}

// GetHtml fetches htmlUrl and transparently decodes gzip, deflate or
// brotli content encoding.
func GetHtml(htmlUrl string) ([]byte, error) {
	client, err := GetCustomHTTPClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	req, err := http.NewRequest("GET", htmlUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch html: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request returned error status %d", resp.StatusCode)
	}

	var reader io.ReadCloser = resp.Body
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		reader, err = gzip.NewReader(resp.Body)
	case "deflate":
		reader = flate.NewReader(resp.Body)
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, nil
}
