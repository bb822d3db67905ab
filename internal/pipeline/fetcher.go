package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/docquiz/internal/extract"
	"github.com/ppiankov/docquiz/internal/model"
	"github.com/ppiankov/docquiz/internal/retry"
)

// Fetcher fetches HTML content from URLs
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	policy     retry.Policy
}

// NewFetcher creates a new Fetcher with the given configuration
func NewFetcher(timeout time.Duration, userAgent string, maxBytes int64) *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		userAgent: userAgent,
		maxBytes:  maxBytes,
		policy: retry.Policy{
			MaxAttempts: 3,
			BackoffBase: time.Second,
		},
	}
}

// FetchResult contains the fetched HTML and the URL it was served from
type FetchResult struct {
	HTML        string
	ContentType string
	FinalURL    string
}

// statusError is a non-2xx response
type statusError struct {
	code   int
	status string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status: %d %s", e.code, e.status)
}

// Fetch retrieves HTML content from the given URL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &statusError{code: resp.StatusCode, status: resp.Status}
	}

	// Read body with size limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &FetchResult{
		HTML:        string(body),
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    resp.Request.URL.String(),
	}, nil
}

// FetchWithRetry retries network errors, 429 and 5xx responses.
// Other statuses fail immediately.
func (f *Fetcher) FetchWithRetry(ctx context.Context, rawURL string) (*FetchResult, error) {
	result, err := retry.Do(ctx, f.policy, func(ctx context.Context, _ int) (*FetchResult, error) {
		res, err := f.Fetch(ctx, rawURL)
		var se *statusError
		if errors.As(err, &se) && !retryableStatus(se.code) {
			return nil, retry.Permanent(err)
		}
		return res, err
	})
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			return nil, exhausted.Last
		}
		return nil, err
	}
	return result, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// URLSource resolves documents by fetching their URL. The URL is the
// document id.
type URLSource struct {
	fetcher   *Fetcher
	robots    *RobotsChecker // nil skips the robots.txt check
	maxLength int
}

// NewURLSource creates a URL-backed document source
func NewURLSource(cfg model.HTTPConfig, maxLength int) *URLSource {
	fetcher := NewFetcher(cfg.Timeout, cfg.UserAgent, cfg.MaxBodyBytes)
	s := &URLSource{
		fetcher:   fetcher,
		maxLength: maxLength,
	}
	if cfg.RespectRobots {
		s.robots = NewRobotsChecker(fetcher.httpClient, cfg.UserAgent)
	}
	return s
}

// Resolve fetches the page and converts it to plain text
func (s *URLSource) Resolve(ctx context.Context, rawURL string, docType model.DocumentType) (model.SourceDocument, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return model.SourceDocument{}, fmt.Errorf("%w: not an http(s) URL: %q", ErrInput, rawURL)
	}

	if s.robots != nil && !s.robots.Allowed(ctx, rawURL) {
		return model.SourceDocument{}, fmt.Errorf("%w: fetching %s is disallowed by robots.txt", ErrInput, rawURL)
	}

	res, err := s.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return model.SourceDocument{}, fmt.Errorf("%w: %s", model.ErrDocumentNotFound, rawURL)
		}
		return model.SourceDocument{}, err
	}

	title := extract.Title(res.HTML)
	if title == "" {
		title = extractSubject(res.FinalURL)
	}

	text := extract.PlainText(res.HTML)
	if s.maxLength > 0 {
		text = extract.Truncate(text, s.maxLength)
	}

	return model.SourceDocument{
		ID:           res.FinalURL,
		Title:        title,
		DocumentType: docType,
		RawText:      text,
	}, nil
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	// Extract last path segment
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	// De-slugify: replace underscores and hyphens with spaces
	last = strings.ReplaceAll(last, "_", " ")
	last = strings.ReplaceAll(last, "-", " ")

	// Remove file extensions
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
