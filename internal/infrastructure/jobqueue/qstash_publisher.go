package jobqueue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

var errQStashTransient = crerr.New("qstash transient failure")

const (
	headerDedupID      = "Upstash-Deduplication-Id"
	headerDelay        = "Upstash-Delay"
	headerRetries      = "Upstash-Retries"
	headerForwardToken = "Upstash-Forward-X-Internal-Job-Token"
	maxLoggedBody      = 4096
)

type QStashPublisherConfig struct {
	BaseURL          string
	Token            string
	TargetBaseURL    string
	Retries          int
	InternalJobToken string
	Timeout          time.Duration
	CircuitBreaker   resilience.CircuitBreakerConfig
}

// QStashPublisher schedules delayed POSTs back to this service's internal job
// endpoints through the QStash publish API.
type QStashPublisher struct {
	client           *http.Client
	baseURL          string
	token            string
	targetBaseURL    string
	retries          int
	internalJobToken string
	logger           *logging.Logger
	breaker          *resilience.CircuitBreaker
}

func NewQStashPublisher(cfg QStashPublisherConfig, logger *logging.Logger) *QStashPublisher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &QStashPublisher{
		client:           &http.Client{Timeout: timeout},
		baseURL:          strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:            strings.TrimSpace(cfg.Token),
		targetBaseURL:    strings.TrimRight(strings.TrimSpace(cfg.TargetBaseURL), "/"),
		retries:          cfg.Retries,
		internalJobToken: strings.TrimSpace(cfg.InternalJobToken),
		logger:           logger.With("component", "qstash"),
		breaker:          resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
}

type publishRequest struct {
	path       string
	targetURL  string
	publishURL string
	body       []byte
	delay      string
	dedupID    string
}

func (p *QStashPublisher) Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error {
	req, err := p.buildRequest(path, payload, delay, deduplicationID)
	if err != nil {
		return err
	}

	bodyText := truncateForLog(string(req.body), maxLoggedBody)
	curlPreview := buildQStashCurlPreview(req, p.retries, bodyText, p.internalJobToken != "")
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.SetAttributes(
			attribute.String("qstash.publish_url", req.publishURL),
			attribute.String("qstash.target_url", req.targetURL),
			attribute.String("qstash.path", req.path),
			attribute.String("qstash.deduplication_id", req.dedupID),
			attribute.String("qstash.request_curl_preview", curlPreview),
		)
	}
	p.logger.DebugContext(ctx, "qstash publish request", "path", req.path, "target_url", req.targetURL, "curl_preview", curlPreview)

	err = p.breaker.Execute(func() error { return p.send(ctx, req) }, isQStashCircuitFailure)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		p.logger.WarnContext(ctx, "qstash circuit breaker rejected request", "path", req.path, "state", p.breaker.State())
		return fmt.Errorf("qstash is temporarily unavailable: %w", err)
	}
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "qstash job published", "path", req.path, "delay", req.delay, "deduplication_id", req.dedupID)
	return nil
}

func (p *QStashPublisher) buildRequest(path string, payload any, delay time.Duration, deduplicationID string) (publishRequest, error) {
	path = "/" + strings.TrimLeft(strings.TrimSpace(path), "/")
	if path == "/" {
		return publishRequest{}, crerr.New("job path is required")
	}

	baseURL, err := validateHTTPBaseURL(p.baseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_BASE_URL")
	}
	targetBaseURL, err := validateHTTPBaseURL(p.targetBaseURL)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "invalid QSTASH_TARGET_BASE_URL")
	}

	if payload == nil {
		payload = map[string]any{}
	}
	body, err := sonic.Marshal(payload)
	if err != nil {
		return publishRequest{}, crerr.Wrap(err, "marshal job payload")
	}

	targetURL := targetBaseURL + path
	return publishRequest{
		path:       path,
		targetURL:  targetURL,
		publishURL: baseURL + "/v2/publish/" + targetURL,
		body:       body,
		delay:      normalizeDelay(delay),
		dedupID:    strings.TrimSpace(deduplicationID),
	}, nil
}

func (p *QStashPublisher) send(ctx context.Context, r publishRequest) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.publishURL, strings.NewReader(string(r.body)))
	if err != nil {
		return crerr.Wrap(err, "create qstash request")
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Upstash-Method", http.MethodPost)
	if p.retries > 0 {
		req.Header.Set(headerRetries, strconv.Itoa(p.retries))
	}
	if r.delay != "0s" {
		req.Header.Set(headerDelay, r.delay)
	}
	if r.dedupID != "" {
		req.Header.Set(headerDedupID, r.dedupID)
	}
	if p.internalJobToken != "" {
		req.Header.Set(headerForwardToken, p.internalJobToken)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: publish qstash job target_url=%s: %v", errQStashTransient, r.targetURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode/100 == 2 {
		return nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBody))
	if isQStashRetryableStatus(resp.StatusCode) {
		return fmt.Errorf("%w: publish qstash job status=%d target_url=%s body=%s",
			errQStashTransient, resp.StatusCode, r.targetURL, strings.TrimSpace(string(raw)))
	}
	return fmt.Errorf("publish qstash job status=%d target_url=%s body=%s",
		resp.StatusCode, r.targetURL, strings.TrimSpace(string(raw)))
}

func normalizeDelay(delay time.Duration) string {
	if delay <= 0 {
		return "0s"
	}
	return strconv.Itoa(int(delay.Round(time.Second).Seconds())) + "s"
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

// buildQStashCurlPreview renders a replayable request with secrets masked.
func buildQStashCurlPreview(r publishRequest, retries int, body string, withForwardToken bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}
	appendHeader := func(value string) {
		appendPart("-H")
		appendPart(shellQuote(value))
	}

	appendPart("curl -X POST")
	appendPart(shellQuote(r.publishURL))
	appendHeader("Authorization: Bearer ***")
	appendHeader("Content-Type: application/json")
	appendHeader("Upstash-Method: POST")
	if retries > 0 {
		appendHeader(headerRetries + ": " + strconv.Itoa(retries))
	}
	if r.delay != "" && r.delay != "0s" {
		appendHeader(headerDelay + ": " + r.delay)
	}
	if r.dedupID != "" {
		appendHeader(headerDedupID + ": " + r.dedupID)
	}
	if withForwardToken {
		appendHeader(headerForwardToken + ": ***")
	}
	appendPart("-d")
	appendPart(shellQuote(body))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func isQStashCircuitFailure(err error) bool {
	return errors.Is(err, errQStashTransient)
}

func isQStashRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}
