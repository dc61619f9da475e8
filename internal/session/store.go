package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/muurk/smartweb/internal/logging"
)

const (
	// DefaultTimeout bounds each HTTP exchange, including reading the body.
	DefaultTimeout = 10 * time.Second

	// UserAgent mimics a current desktop Chrome.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/143.0.0.0 Safari/537.36"

	// AcceptLanguage matches the locale the SmartWeb UI is served in.
	AcceptLanguage = "ko,en;q=0.9,en-US;q=0.8"
)

// Response is the outcome of one HTTP exchange.
type Response struct {
	// StatusCode is the status of the last response in the redirect chain
	StatusCode int

	// FinalURL is the URL that produced the response, after redirects
	FinalURL string

	// Body is the full response body
	Body []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Store is a cookie-carrying HTTP session.
//
// A Store is not meant to be shared by concurrent callers that depend on the
// ordering of cookie updates; the hub that owns it serializes its use.
type Store struct {
	client  *http.Client
	headers http.Header
}

// Open creates a Store with an empty cookie jar and the default browser headers.
func Open() (*Store, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}

	headers := make(http.Header)
	headers.Set("User-Agent", UserAgent)
	headers.Set("Accept-Language", AcceptLanguage)

	return &Store{
		client: &http.Client{
			Jar:     jar,
			Timeout: DefaultTimeout,
		},
		headers: headers,
	}, nil
}

func newJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}

// SetTimeout sets the per-request timeout
func (s *Store) SetTimeout(timeout time.Duration) {
	s.client.Timeout = timeout
}

// Timeout returns the per-request timeout
func (s *Store) Timeout() time.Duration {
	return s.client.Timeout
}

// Reset discards every cookie held by the store.
func (s *Store) Reset() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	s.client.Jar = jar
	return nil
}

// Request performs one HTTP exchange.
// headers are added on top of the fixed browser headers and may override them.
// Network and timeout errors are returned unchanged.
func (s *Store) Request(ctx context.Context, method, url string, body io.Reader, headers http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	for k, v := range s.headers {
		req.Header[k] = append([]string(nil), v...)
	}
	for k, v := range headers {
		req.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	logging.LogExchange(method, url, resp.StatusCode, finalURL, len(data), time.Since(start))

	return &Response{
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
		Body:       data,
	}, nil
}
