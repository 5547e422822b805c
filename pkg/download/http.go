// Copyright (c) Ultraviolet
// SPDX-License-Identifier: Apache-2.0

package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/absmach/supermq/pkg/errors"
	"github.com/avast/retry-go/v4"
	"github.com/docker/go-units"
	"github.com/ultravioletrs/taskimage/internal"
)

const (
	// DefaultAttempts is the number of HTTP download attempts.
	DefaultAttempts = 5
	// DefaultBackoff is the first retry delay, doubled on every retry.
	DefaultBackoff = time.Second
	// DefaultTimeout bounds a single HTTP download attempt.
	DefaultTimeout = 30 * time.Minute
)

var _ Downloader = (*HTTP)(nil)

// HTTP downloads artifacts from the queue over HTTP(S).
type HTTP struct {
	client   *http.Client
	queue    Queue
	logger   *slog.Logger
	headers  map[string]string
	attempts uint
	backoff  time.Duration
	timer    retry.Timer
}

// HTTPOption is a functional option for configuring HTTP.
type HTTPOption func(*HTTP)

// WithHeaders sets custom HTTP headers for requests.
func WithHeaders(headers map[string]string) HTTPOption {
	return func(h *HTTP) {
		h.headers = headers
	}
}

// WithLogger sets a custom logger for the HTTP downloader.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		h.client = c
	}
}

// WithRetry sets the attempt budget and the first backoff delay.
func WithRetry(attempts uint, backoff time.Duration) HTTPOption {
	return func(h *HTTP) {
		if attempts > 0 {
			h.attempts = attempts
		}
		h.backoff = backoff
	}
}

// WithRetryTimer replaces the delay primitive used between attempts.
func WithRetryTimer(t retry.Timer) HTTPOption {
	return func(h *HTTP) {
		h.timer = t
	}
}

// NewHTTP creates a downloader resolving artifact URLs through q.
func NewHTTP(q Queue, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:   &http.Client{Timeout: DefaultTimeout},
		queue:    q,
		logger:   slog.Default(),
		headers:  make(map[string]string),
		attempts: DefaultAttempts,
		backoff:  DefaultBackoff,
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Download streams the artifact body to dest, retrying transient failures
// with exponential backoff.
func (h *HTTP) Download(ctx context.Context, out io.Writer, taskID, artifactPath, dest string) error {
	url, err := h.queue.ArtifactURL(ctx, taskID, artifactPath)
	if err != nil {
		return err
	}

	fmt.Fprint(out, internal.FmtLog("Downloading artifact \"%s\" from task ID: %s.", artifactPath, taskID))

	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(h.attempts),
		retry.Delay(h.backoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			h.logger.Warn(fmt.Sprintf("download attempt %d of %s failed: %s", n+1, url, err))
			fmt.Fprint(out, internal.FmtLog("Error downloading \"%s\" (attempt %d): %s", artifactPath, n+1, err))
		}),
	}
	if h.timer != nil {
		opts = append(opts, retry.WithTimer(h.timer))
	}

	start := time.Now()
	size, err := retry.DoWithData(func() (int64, error) {
		return h.downloadOnce(ctx, url, dest)
	}, opts...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}

	h.logger.Debug(fmt.Sprintf("downloaded %s to %s", url, dest))
	fmt.Fprint(out, internal.FmtLog("Downloaded artifact successfully. Downloaded %s in %s.", units.HumanSize(float64(size)), time.Since(start).Round(time.Millisecond)))

	return nil
}

// downloadOnce performs a single download attempt.
func (h *HTTP) downloadOnce(ctx context.Context, url, dest string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, retry.Unrecoverable(errors.Wrap(ErrInvalidURL, err))
	}

	for key, value := range h.headers {
		req.Header.Set(key, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := errors.Wrap(ErrUnexpectedStatus, fmt.Errorf("HTTP status %d", resp.StatusCode))
		if !retryableStatus(resp.StatusCode) {
			return 0, retry.Unrecoverable(err)
		}
		return 0, err
	}

	n, err := writeFile(dest, resp.Body)
	if err != nil && errors.Contains(err, ErrWrite) {
		return n, retry.Unrecoverable(err)
	}

	return n, err
}

func retryableStatus(code int) bool {
	switch {
	case code >= http.StatusInternalServerError:
		return true
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		return true
	default:
		return false
	}
}
