// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "medalert-client/internal/common/errors"
	"medalert-client/internal/common/logger"
	"medalert-client/internal/common/metrics"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

const defaultTimeout = 30 * time.Second

// Config holds the client's connection settings. It is injected at
// construction; there is no package-level base URL.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client performs requests against the MedAlert backend. It normalizes every
// failure into a *apperrors.RequestError carrying the taxonomy kind.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger
}

func NewClient(cfg Config, log logger.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     log.WithFields(map[string]interface{}{"component": "api-client"}),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// envelope is the backend's standard response body. Operations that report
// extra top-level fields (sent_via, test_message) surface them here.
type envelope struct {
	Status      string          `json:"status"`
	Message     string          `json:"message"`
	Data        json.RawMessage `json:"data"`
	SentVia     []string        `json:"sent_via"`
	TestMessage string          `json:"test_message"`
}

// errorBody is the FastAPI error shape for non-2xx responses.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

type requestOptions struct {
	method  string
	body    interface{}
	headers map[string]string
}

// request performs a JSON request and returns the raw response body. The
// response is parsed as JSON regardless of status code; a non-2xx status
// becomes an http-kind error with the message taken from the body's detail
// field when present.
func (c *Client) request(ctx context.Context, endpoint, path string, opts requestOptions) ([]byte, int, error) {
	method := opts.method
	if method == "" {
		method = http.MethodGet
	}

	var reqBody io.Reader
	if opts.body != nil {
		encoded, err := json.Marshal(opts.body)
		if err != nil {
			return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, "request body could not be encoded")
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, err.Error())
	}

	// Default JSON content type, overridable per call.
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.headers {
		req.Header.Set(k, v)
	}

	return c.send(req, endpoint, false)
}

// upload performs a multipart file upload. The JSON default content type is
// bypassed; the multipart writer supplies the boundary-bearing content type.
// With rawBody set, a non-2xx status is not normalized and the parsed body is
// returned as-is, matching the prescription-analysis endpoint's contract.
func (c *Client) upload(ctx context.Context, endpoint, path, filename string, file io.Reader, rawBody bool) ([]byte, int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, err.Error())
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, "file could not be read: "+err.Error())
	}
	if err := w.Close(); err != nil {
		return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, 0, apperrors.NewValidationError(apperrors.ErrCodeInvalidPayload, err.Error())
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	return c.send(req, endpoint, rawBody)
}

func (c *Client) send(req *http.Request, endpoint string, rawBody bool) ([]byte, int, error) {
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)

	log := c.logger.WithFields(map[string]interface{}{
		"requestId": requestID,
		"endpoint":  endpoint,
		"method":    req.Method,
	})
	log.Debug("sending request", nil)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		log.WithError(err).Warn("request transport failure", nil)
		return nil, 0, apperrors.NewTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "transport_error").Inc()
		return nil, resp.StatusCode, apperrors.NewTransportError(err)
	}

	if resp.StatusCode >= 400 && !rawBody {
		metrics.APIRequestsTotal.WithLabelValues(endpoint, "http_error").Inc()
		var eb errorBody
		_ = json.Unmarshal(body, &eb)
		detail := eb.Detail
		if detail == "" {
			detail = eb.Message
		}
		log.Warn("request failed", map[string]interface{}{
			"status": resp.StatusCode,
			"detail": detail,
		})
		return body, resp.StatusCode, apperrors.NewHTTPError(resp.StatusCode, detail)
	}

	outcome := "ok"
	if resp.StatusCode >= 400 {
		outcome = "http_error"
	}
	metrics.APIRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	return body, resp.StatusCode, nil
}

// call performs a request and collapses the HTTP status and the embedded
// envelope status into a single result. When out is non-nil the envelope's
// data field is decoded into it.
func (c *Client) call(ctx context.Context, endpoint, path string, opts requestOptions, out interface{}) (*envelope, error) {
	body, _, err := c.request(ctx, endpoint, path, opts)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "backend returned a malformed response")
	}

	// "warning" is a soft success (e.g. test notification with no channels
	// configured); everything else non-success is an application error.
	if env.Status != "success" && env.Status != "warning" {
		return nil, apperrors.NewApplicationError(apperrors.ErrCodeApplicationError, env.Message)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, apperrors.NewApplicationError(apperrors.ErrCodeInvalidPayload, "backend response data did not match the expected shape")
		}
	}

	return &env, nil
}
