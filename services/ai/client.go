package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"

	"github.com/customeros/invoicestack/config"
	"github.com/customeros/invoicestack/dto"
	"github.com/customeros/invoicestack/interfaces"
	"github.com/customeros/invoicestack/internal/tracing"
)

const classifyPath = "/v1/classify"

type classifierClient struct {
	url        string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClassifierClient(cfg *config.ClassifierConfig) interfaces.ClassifierClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}
	return &classifierClient{
		url:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey: cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (c *classifierClient) Classify(ctx context.Context, request dto.ClassificationRequest) (*dto.ClassificationVerdict, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "classifierClient.Classify")
	defer span.Finish()
	tracing.SetDefaultExternalApiSpanTags(ctx, span)
	span.LogKV("filename", request.Filename, "mimeType", request.MimeType, "payloadSize", len(request.Payload))

	if err := c.limiter.Wait(ctx); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "classifier rate limit wait")
	}

	payload, err := json.Marshal(request)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to marshal payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+classifyPath, bytes.NewBuffer(payload))
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-KEY", c.apiKey)
	}
	req = tracing.InjectSpanContextIntoHTTPRequest(req, span)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "classifier request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "unable to read classifier response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("classifier failed with status code %d: %s", resp.StatusCode, string(body))
		tracing.TraceErr(span, err)
		return nil, err
	}

	verdict, err := ParseVerdict(body)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	tracing.LogObjectAsJson(span, "verdict", verdict)

	return verdict, nil
}
