// Package backend implements the remote sync adapter over the dispensing
// backend's HTTP API. Responses arrive in a {message, success, data}
// envelope; only data is consumed, plus message on failure.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/apotheka/dispense-station/config"
	"github.com/apotheka/dispense-station/internal/dispense"
)

var tracer = otel.Tracer("github.com/apotheka/dispense-station/internal/backend")

type Client struct {
	baseURL string
	hc      *http.Client
	log     *slog.Logger
}

var _ dispense.RemoteSync = (*Client)(nil)

func NewClient(cfg config.BackendConfig, log *slog.Logger) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if _, err := url.Parse(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid backend base URL %q: %v", cfg.BaseURL, err)
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		hc:      &http.Client{Timeout: timeout},
		log:     log,
	}, nil
}

type envelope[T any] struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
}

func (c *Client) FetchCurrentOrder(ctx context.Context) (*dispense.Prescription, error) {
	p, err := doJSON[*dispense.Prescription](ctx, c, http.MethodGet, "/orders", nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, dispense.ErrNoActiveOrder
		}
		return nil, err
	}
	if p == nil {
		// Some backends express an idle station as 200 with a null payload
		// instead of 404.
		return nil, dispense.ErrNoActiveOrder
	}
	return p, nil
}

func (c *Client) StartDispensing(ctx context.Context, scanCode, machineID, sessionID string) (*dispense.Prescription, error) {
	path := "/orders/dispense/" + url.PathEscape(scanCode)
	body := map[string]string{"machineId": machineID, "socketId": sessionID}
	p, err := doJSON[*dispense.Prescription](ctx, c, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &APIError{Status: http.StatusOK, Message: "dispense response carried no prescription"}
	}
	return p, nil
}

func (c *Client) PickupItem(ctx context.Context, prescriptionNo, drugCode, sessionID string) error {
	path := "/orders/pickup/" + url.PathEscape(prescriptionNo) + "/" + url.PathEscape(drugCode)
	body := map[string]string{"socketId": sessionID}
	_, err := doJSON[json.RawMessage](ctx, c, http.MethodPost, path, body)
	return err
}

func (c *Client) ResetOrder(ctx context.Context, machineID, sessionID string) error {
	body := map[string]string{"machineId": machineID, "socketId": sessionID}
	// data is a confirmation string; nothing in it drives behavior.
	_, err := doJSON[string](ctx, c, http.MethodPost, "/orders/order", body)
	return err
}

// FetchDrug resolves a catalog entry for display next to a line item.
func (c *Client) FetchDrug(ctx context.Context, drugCode string) (*dispense.Drug, error) {
	return doJSON[*dispense.Drug](ctx, c, http.MethodGet, "/drugs/"+url.PathEscape(drugCode), nil)
}

func doJSON[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var zero T

	ctx, span := tracer.Start(ctx, method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", c.baseURL+path),
		),
	)
	defer span.End()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return zero, fmt.Errorf("encode request body: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return zero, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("read response: %w", err)
	}

	var env envelope[T]
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: msg}
		span.SetStatus(codes.Error, msg)
		return zero, apiErr
	}

	if decodeErr != nil {
		return zero, fmt.Errorf("decode response: %w", decodeErr)
	}

	return env.Data, nil
}
