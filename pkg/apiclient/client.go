// Package apiclient is the storefront's typed client for the Aura REST API.
// Every failure is mapped onto the shared error taxonomy in pkg/errors.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/aura-storefront/pkg/errors"
	"github.com/angelmondragon/aura-storefront/pkg/logger"
	"github.com/angelmondragon/aura-storefront/pkg/types"
)

const (
	defaultTimeout      = 15 * time.Second
	errorBodyReadLimit  = 64 << 10
	idempotencyHeader   = "Idempotency-Key"
	genericServerFailed = "something went wrong, please try again"
)

// Client calls the REST API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logg       *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request. Zero disables the client-level bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		if logg != nil {
			c.logg = logg
		}
	}
}

// New builds a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errors.New("api base url is required")
	}
	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logg:       logger.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

type call struct {
	method         string
	path           string
	token          string
	body           any
	idempotencyKey string
	// credentials marks login/register, where a 401 means bad credentials
	// rather than a missing session.
	credentials bool
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set(idempotencyHeader, req.idempotencyKey)
	}

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeTransport, err, transportMessage(err))
	}
	defer func() { _ = resp.Body.Close() }()

	c.logg.Debug(c.logg.WithFields(ctx, map[string]any{
		"method":      req.method,
		"path":        req.path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(started).Milliseconds(),
	}), "api.request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeFailure(resp, req.credentials)
	}
	if out == nil {
		return nil
	}

	envelope := types.SuccessEnvelope{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeServer, err, "unreadable response from server")
	}
	return nil
}

func decodeFailure(resp *http.Response, credentials bool) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope types.ErrorEnvelope
	message := ""
	if err := json.Unmarshal(raw, &envelope); err == nil {
		message = strings.TrimSpace(envelope.Error.Message)
	}

	code := codeForStatus(resp.StatusCode, credentials)
	if message == "" {
		message = fallbackMessage(code)
	}
	return pkgerrors.Wrap(code, fmt.Errorf("status %d", resp.StatusCode), message).
		WithDetails(map[string]any{"status": resp.StatusCode, "serverCode": envelope.Error.Code})
}

func codeForStatus(status int, credentials bool) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		if credentials {
			return pkgerrors.CodeAuthFailed
		}
		return pkgerrors.CodeAuthRequired
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	default:
		return pkgerrors.CodeServer
	}
}

func fallbackMessage(code pkgerrors.Code) string {
	if code == pkgerrors.CodeServer {
		return genericServerFailed
	}
	return pkgerrors.MetadataFor(code).PublicMessage
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), isTimeout(err):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	default:
		return "could not reach the server"
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
