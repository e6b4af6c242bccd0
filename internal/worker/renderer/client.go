// Package renderer talks to an optional external renderer over HTTP.
package renderer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	contracts "cosmos/internal/contracts/renderer/v0"
	"cosmos/internal/pkg/errors"
)

type Client interface {
	Render(ctx context.Context, spec contracts.RendererSpec) error
}

type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   10 * time.Minute,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPClient) Render(ctx context.Context, spec contracts.RendererSpec) error {
	return c.post(ctx, "/render", spec)
}

func (c *HTTPClient) post(ctx context.Context, path string, spec any) error {
	const op = "renderer.post"

	body, err := json.Marshal(spec)
	if err != nil {
		return errors.Wrap(err, op, "failed to encode renderer spec")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeRequest, op, "failed to build renderer request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return errors.WrapWithCode(err, errors.CodeRequest, op, "renderer unreachable")
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return errors.RequestStatus(op, res.StatusCode)
	}
	return nil
}
