// Package provider calls the hosted analysis APIs (text, speech, image and
// multimodal services) described in the provider configuration.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/aiftbot/core/config"
	"github.com/m3rciful/aiftbot/core/logger"
	"github.com/m3rciful/aiftbot/core/netutil"
)

// APIKeyHeader carries the provider credential on every request.
const APIKeyHeader = "Apikey"

const maxResponseBytes = 8 << 20

// ErrUnknownService is returned when a request names a service that is not configured.
var ErrUnknownService = errors.New("provider: unknown service")

// ErrBadInput reports user text that does not fit the service's input shape.
var ErrBadInput = errors.New("provider: bad input")

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	Service string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider %s: status %d: %s", e.Service, e.Code, e.Body)
}

// Upload is a local file sent as a multipart part.
type Upload struct {
	Path string
	Name string
	MIME string
}

// Request is one provider call.
type Request struct {
	Service string
	Text    string
	Param   string
	File    *Upload
	// Fields are merged over the service's configured extras.
	Fields map[string]string
}

// Result is the part of a provider response a reply is built from.
type Result struct {
	Text     string
	ImageURL string
	AudioURL string
	Duration time.Duration
	Raw      json.RawMessage
}

// Client is safe for concurrent use.
type Client struct {
	http     *http.Client
	apiKey   string
	services map[string]config.ProviderService
}

// New builds a client for cfg. A nil httpClient gets a retrying client with
// the configured timeout.
func New(cfg config.ProviderConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
		httpClient = netutil.NewClient(netutil.ClientOptions{
			ResponseTimeout: timeout,
			ClientTimeout:   timeout,
			RetryAttempts:   2,
			RetryBackoff:    time.Second,
			RetryStatus:     []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
		})
	}
	services := make(map[string]config.ProviderService, len(cfg.Services))
	for name, svc := range cfg.Services {
		services[name] = svc
	}
	return &Client{http: httpClient, apiKey: cfg.APIKey, services: services}
}

// Has reports whether service is configured.
func (c *Client) Has(service string) bool {
	_, ok := c.services[service]
	return ok
}

// Call sends req and maps the response through the service's result paths.
func (c *Client) Call(ctx context.Context, req Request) (Result, error) {
	svc, ok := c.services[req.Service]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownService, req.Service)
	}

	start := time.Now()
	body, contentType, err := encode(svc, req)
	if err != nil {
		return Result{}, fmt.Errorf("provider %s: encode: %w", req.Service, err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.URL, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("provider %s: build request: %w", req.Service, err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set(APIKeyHeader, c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logCall(ctx, req.Service, 0, start, err)
		return Result{}, fmt.Errorf("provider %s: %w", req.Service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logCall(ctx, req.Service, resp.StatusCode, start, err)
		return Result{}, fmt.Errorf("provider %s: read body: %w", req.Service, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err := &StatusError{Service: req.Service, Code: resp.StatusCode, Body: logger.SanitizeLimit(string(raw), 200)}
		c.logCall(ctx, req.Service, resp.StatusCode, start, err)
		return Result{}, err
	}

	res, err := decode(svc, raw)
	c.logCall(ctx, req.Service, resp.StatusCode, start, err)
	if err != nil {
		return Result{}, fmt.Errorf("provider %s: %w", req.Service, err)
	}
	return res, nil
}

func (c *Client) logCall(ctx context.Context, service string, code int, start time.Time, err error) {
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("service", service),
		slog.Int("http_status", code),
		slog.Duration("duration", logger.Took(start)),
	}
	if err != nil {
		attrs = append(attrs, slog.String("err", err.Error()))
		logger.Warn(ctx, "provider", "provider.call", attrs...)
		return
	}
	logger.Debug(ctx, "provider", "provider.call", attrs...)
}

func fields(svc config.ProviderService, req Request) (map[string]string, error) {
	out := make(map[string]string, len(svc.Extra)+len(req.Fields)+2)
	for k, v := range svc.Extra {
		out[k] = v
	}
	for k, v := range req.Fields {
		out[k] = v
	}
	switch {
	case svc.SecondField != "":
		sep := svc.SplitOn
		if sep == "" {
			sep = "|"
		}
		first, second, ok := strings.Cut(req.Text, sep)
		first, second = strings.TrimSpace(first), strings.TrimSpace(second)
		if !ok || first == "" || second == "" {
			return nil, fmt.Errorf("%w: expected two parts separated by %q", ErrBadInput, sep)
		}
		out[svc.TextField] = first
		out[svc.SecondField] = second
	case svc.TextField != "" && req.Text != "":
		out[svc.TextField] = req.Text
	}
	if svc.ParamField != "" && req.Param != "" {
		out[svc.ParamField] = req.Param
	}
	return out, nil
}

func encode(svc config.ProviderService, req Request) ([]byte, string, error) {
	values, err := fields(svc, req)
	if err != nil {
		return nil, "", err
	}
	switch svc.Encoding {
	case "json":
		obj := make(map[string]any, len(values))
		for k, v := range values {
			obj[k] = jsonValue(v)
		}
		data, err := json.Marshal(obj)
		return data, "application/json", err
	case "multipart":
		return encodeMultipart(svc, req, values)
	default:
		form := url.Values{}
		for k, v := range values {
			form.Set(k, v)
		}
		return []byte(form.Encode()), "application/x-www-form-urlencoded", nil
	}
}

// jsonValue keeps numeric and boolean literals typed in JSON bodies.
func jsonValue(v string) any {
	switch v {
	case "true":
		return true
	case "false":
		return false
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && strconv.FormatFloat(f, 'f', -1, 64) == v {
		return json.Number(v)
	}
	return v
}

func encodeMultipart(svc config.ProviderService, req Request, values map[string]string) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range values {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if req.File != nil {
		field := svc.FileField
		if field == "" {
			field = "file"
		}
		f, err := os.Open(req.File.Path)
		if err != nil {
			return nil, "", err
		}
		defer f.Close()

		name := req.File.Name
		if name == "" {
			name = filepath.Base(req.File.Path)
		}
		mimeType := req.File.MIME
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
		h.Set("Content-Type", mimeType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
