package origin

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jmgilman/go/errors"

	"github.com/krisalay/image-cache/types"
)

const (
	// DefaultBaseURL is the public bucket the service was first deployed against.
	DefaultBaseURL = "https://storage.googleapis.com/image-resizer_europe-west1"

	DefaultTimeout = 30 * time.Second

	// DefaultMaxBytes bounds how much of a response body is read.
	DefaultMaxBytes int64 = 64 << 20
)

type HTTPOptions struct {
	// BaseURL is prefixed to every key. It must use https.
	BaseURL string

	// Token, when set, is sent as a bearer token.
	Token string

	// Timeout bounds a whole fetch. Ignored when Client is set.
	Timeout time.Duration

	// MaxBytes is the largest body accepted.
	MaxBytes int64

	// Client overrides the transport, e.g. an httptest TLS client.
	Client *http.Client
}

// HTTP fetches images with a GET of BaseURL + key.
type HTTP struct {
	base     string
	token    string
	maxBytes int64
	client   *http.Client
}

// NewHTTP validates opts and returns a fetcher.
func NewHTTP(opts HTTPOptions) (*HTTP, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid origin base url")
	}
	if u.Scheme != "https" {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "origin base url must use https"),
			"base_url", opts.BaseURL,
		)
	}
	if u.Host == "" {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "origin base url has no host"),
			"base_url", opts.BaseURL,
		)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &HTTP{
		base:     strings.TrimSuffix(opts.BaseURL, "/"),
		token:    opts.Token,
		maxBytes: opts.MaxBytes,
		client:   client,
	}, nil
}

// Fetch downloads key.
func (h *HTTP) Fetch(ctx context.Context, key string) (types.Object, error) {
	if !strings.HasPrefix(key, "/") {
		key = "/" + key
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.base+escapePath(key), nil)
	if err != nil {
		return types.Object{}, types.Unavailable(key, err)
	}
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return types.Object{}, types.Unavailable(key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusGone:
		return types.Object{}, types.NotFound(key, statusError(resp))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return types.Object{}, types.Unavailable(key, statusError(resp))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBytes+1))
	if err != nil {
		return types.Object{}, types.Unavailable(key, err)
	}
	if int64(len(body)) > h.maxBytes {
		return types.Object{}, types.Unavailable(key, fmt.Errorf("body exceeds %d bytes", h.maxBytes))
	}

	return types.Object{
		Payload: body,
		Format:  types.FormatFromContentType(resp.Header.Get("Content-Type")),
	}, nil
}

// escapePath escapes every segment of a decoded key so characters such as
// '?' and '#' stay part of the object name.
func escapePath(key string) string {
	segs := strings.Split(key, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("origin responded %s", resp.Status)
}
