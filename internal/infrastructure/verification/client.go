package verification

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/fasthttp"

	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/platform/logging"
	"github.com/riskibarqy/questrank/internal/platform/resilience"
)

const (
	defaultTimeout  = 30 * time.Second
	verifyPath      = "/verify"
	maxErrorBodyLog = 512
)

var errVerificationTransient = crerr.New("verification service transient failure")

// ErrUnavailable is returned when the verification service cannot produce a
// verdict: transport failures, 5xx answers, an open breaker or an unreadable
// response body.
var ErrUnavailable = crerr.New("verification service unavailable")

type ClientConfig struct {
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client calls the photo and location verification service.
type Client struct {
	http    *fasthttp.Client
	url     string
	timeout time.Duration
	logger  *logging.Logger
	breaker *resilience.CircuitBreaker
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "questrank-verification",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		url:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + verifyPath,
		timeout: timeout,
		logger:  logger.With("component", "verification"),
		breaker: resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
}

type location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type verifyRequest struct {
	SubmissionID       string   `json:"submissionId"`
	POIID              string   `json:"poiId,omitempty"`
	SubmittedPhotoPath string   `json:"submittedPhotoPath"`
	ReferencePhotoPath string   `json:"referencePhotoPath"`
	SubmittedLocation  location `json:"submittedLocation"`
	VerificationRadius float64  `json:"verificationRadius,omitempty"`
}

type verifyResponse struct {
	Passed          bool           `json:"passed"`
	Score           float64        `json:"score"`
	RejectionReason *string        `json:"rejectionReason"`
	Details         map[string]any `json:"details"`
	Error           string         `json:"error"`
}

func (c *Client) Verify(ctx context.Context, req submission.VerificationRequest) (submission.VerificationResult, error) {
	body, err := sonic.Marshal(verifyRequest{
		SubmissionID:       req.SubmissionID,
		POIID:              req.POIID,
		SubmittedPhotoPath: req.PhotoURL,
		ReferencePhotoPath: req.ReferencePhotoURL,
		SubmittedLocation:  location{Lat: req.Latitude, Lng: req.Longitude},
		VerificationRadius: req.VerificationRadius,
	})
	if err != nil {
		return submission.VerificationResult{}, fmt.Errorf("marshal verification request: %w", err)
	}

	var decoded verifyResponse
	err = c.breaker.Execute(func() error {
		return c.do(ctx, body, &decoded)
	}, isCircuitFailure)
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		c.logger.WarnContext(ctx, "verification circuit breaker rejected request", "submission_id", req.SubmissionID, "state", c.breaker.State())
		return submission.VerificationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case isCircuitFailure(err):
		return submission.VerificationResult{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		return submission.VerificationResult{}, err
	}

	out := submission.VerificationResult{
		Passed:  decoded.Passed,
		Score:   decoded.Score,
		Details: decoded.Details,
	}
	if decoded.RejectionReason != nil {
		out.RejectionReason = *decoded.RejectionReason
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, body []byte, out *verifyResponse) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBodyRaw(body)

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: call %s: %v", errVerificationTransient, c.url, err)
	}

	status := resp.StatusCode()
	raw := resp.Body()
	switch {
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return fmt.Errorf("%w: status=%d body=%s", errVerificationTransient, status, truncate(string(raw), maxErrorBodyLog))
	case status != http.StatusOK:
		c.logger.WarnContext(ctx, "verification request rejected", "status_code", status, "body", truncate(string(raw), maxErrorBodyLog))
		return fmt.Errorf("verification request rejected status=%d", status)
	}

	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode verification response: %v", errVerificationTransient, err)
	}
	return nil
}

func isCircuitFailure(err error) bool {
	return errors.Is(err, errVerificationTransient)
}

func truncate(value string, max int) string {
	if len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}
