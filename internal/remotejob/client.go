// Package remotejob is the client side of the render service: job
// submission, status polling and asset download. Each call is a single
// attempt; retry policy belongs to the caller.
package remotejob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cosmos/internal/models"
	"cosmos/internal/pkg/errors"
)

// DefaultAssetContentType is assumed when the service does not name one.
const DefaultAssetContentType = "model/gltf-binary"

// Client is the render service contract used by the orchestrator.
type Client interface {
	Submit(ctx context.Context, subjectID int64) (models.RenderJob, error)
	Poll(ctx context.Context, jobID int64) (models.RenderJob, error)
	FetchAsset(ctx context.Context, jobID int64) (Asset, error)
}

// Asset is a downloaded render result.
type Asset struct {
	Data        []byte
	ContentType string
}

// HTTPClient talks to the render service over HTTP.
type HTTPClient struct {
	baseURL       string
	client        *http.Client
	maxAssetBytes int64
}

type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTPClient) { h.client = c }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTPClient) { h.client.Timeout = d }
}

// WithMaxAssetBytes caps the size of a downloaded asset.
func WithMaxAssetBytes(n int64) Option {
	return func(h *HTTPClient) {
		if n > 0 {
			h.maxAssetBytes = n
		}
	}
}

func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxAssetBytes: 256 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service address the client targets.
func (c *HTTPClient) BaseURL() string { return c.baseURL }

// Submit creates a render job for the subject.
func (c *HTTPClient) Submit(ctx context.Context, subjectID int64) (models.RenderJob, error) {
	const op = "remotejob.submit"

	var job models.RenderJob
	path := "/events/" + strconv.FormatInt(subjectID, 10) + "/render"
	if err := c.doJSON(ctx, op, http.MethodPost, path, &job); err != nil {
		return models.RenderJob{}, err
	}
	return job, nil
}

// Poll returns the current snapshot of a job.
func (c *HTTPClient) Poll(ctx context.Context, jobID int64) (models.RenderJob, error) {
	const op = "remotejob.poll"

	var job models.RenderJob
	if err := c.doJSON(ctx, op, http.MethodGet, "/renders/"+strconv.FormatInt(jobID, 10), &job); err != nil {
		return models.RenderJob{}, err
	}
	return job, nil
}

// FetchAsset downloads the result of a finished job.
func (c *HTTPClient) FetchAsset(ctx context.Context, jobID int64) (Asset, error) {
	const op = "remotejob.fetch"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/renders/"+strconv.FormatInt(jobID, 10)+"/file", nil)
	if err != nil {
		return Asset{}, errors.WrapWithCode(err, errors.CodeAssetUnavailable, op, "build request")
	}

	res, err := c.client.Do(req)
	if err != nil {
		return Asset{}, errors.WrapWithCode(err, errors.CodeAssetUnavailable, op, "download failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		e := errors.Newf(errors.CodeAssetUnavailable, "render service answered http %d", res.StatusCode).
			WithField("status", res.StatusCode).
			WithField("job_id", jobID)
		e.Op = op
		return Asset{}, e
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, c.maxAssetBytes+1))
	if err != nil {
		return Asset{}, errors.WrapWithCode(err, errors.CodeAssetUnavailable, op, "read asset")
	}
	if int64(len(data)) > c.maxAssetBytes {
		e := errors.Newf(errors.CodeAssetUnavailable, "asset exceeds %d bytes", c.maxAssetBytes)
		e.Op = op
		return Asset{}, e
	}

	ct := res.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = DefaultAssetContentType
	}
	return Asset{Data: data, ContentType: ct}, nil
}

// ListSubjects loads the catalog of renderable subjects.
func (c *HTTPClient) ListSubjects(ctx context.Context, limit int) ([]models.Subject, error) {
	const op = "remotejob.list_subjects"

	path := "/events"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out []models.Subject
	if err := c.doJSON(ctx, op, http.MethodGet, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health probes the service and returns its reported status.
func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	const op = "remotejob.health"

	var body struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, op, http.MethodGet, "/health", &body); err != nil {
		return "", err
	}
	return body.Status, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, op, method, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeRequest, op, "build request")
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeRequest, op, "request failed")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return errors.RequestStatus(op, res.StatusCode)
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.WrapWithCode(err, errors.CodeRequest, op, fmt.Sprintf("decode %s response", path))
	}
	return nil
}
