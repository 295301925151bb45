package metamonapi

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/json-iterator/go/extra"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"metamon_player/internal/app/port"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func init() {
	// The game API is loose about numbers: ids, levels and counts arrive as either strings or numbers.
	extra.RegisterFuzzyDecoders()
}

// Response codes returned in the envelope.
const (
	CodeSuccess     = "SUCCESS"
	CodeFail        = "FAIL"
	CodeBattleNoPay = "BATTLE_NOPAY"
)

// Request outcomes reported to the metrics recorder.
const (
	OutcomeOK        = "ok"
	OutcomeRetry     = "retry"
	OutcomeExhausted = "exhausted"
)

// Envelope is the common response wrapper of every endpoint.
type Envelope struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Data    jsoniter.RawMessage `json:"data"`
}

// OK reports whether the game accepted the request.
func (e *Envelope) OK() bool {
	return e.Code == CodeSuccess
}

// HasData reports whether the envelope carries a non-null payload.
func (e *Envelope) HasData() bool {
	trimmed := strings.TrimSpace(string(e.Data))
	return trimmed != "" && trimmed != "null"
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if !e.HasData() {
		return fmt.Errorf("response has no data")
	}
	return json.Unmarshal(e.Data, v)
}

// Form is a form-encoded request body.
type Form map[string]string

// Options configures a Client.
type Options struct {
	BaseURL              string
	RequestDelay         time.Duration
	MaxAttempts          int
	RequestTimeout       time.Duration
	MaxRequestsPerMinute int
	// Dial overrides the transport dialer. Tests use it to reach an in-memory listener.
	Dial fasthttp.DialFunc
}

// Client posts form requests to the game API. Every attempt is preceded by a fixed
// delay, and transport failures are retried up to MaxAttempts times.
type Client struct {
	client      *fasthttp.Client
	baseURL     string
	delay       time.Duration
	maxAttempts int
	timeout     time.Duration
	limiter     *rate.Limiter
	logger      *zap.Logger
	metrics     port.MetricsRecorder
}

// NewClient creates a new Client.
func NewClient(opts Options, logger *zap.Logger, metrics port.MetricsRecorder) *Client {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 1
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.MaxRequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(opts.MaxRequestsPerMinute)), 1)
	}

	return &Client{
		client: &fasthttp.Client{
			Name:                          "metamon-player",
			Dial:                          opts.Dial,
			ReadTimeout:                   opts.RequestTimeout,
			WriteTimeout:                  opts.RequestTimeout,
			MaxIdleConnDuration:           time.Minute,
			DisableHeaderNamesNormalizing: true,
		},
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		delay:       opts.RequestDelay,
		maxAttempts: opts.MaxAttempts,
		timeout:     opts.RequestTimeout,
		limiter:     limiter,
		logger:      logger.Named("MetamonAPI"),
		metrics:     metrics,
	}
}

// Post sends form to endpoint and returns the decoded envelope. After MaxAttempts
// failed attempts it returns an error wrapping port.ErrUnavailable.
func (c *Client) Post(ctx context.Context, endpoint string, form Form, headers map[string]string) (*Envelope, error) {
	requestURL := c.baseURL + endpoint

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}

		env, err := c.do(ctx, requestURL, form, headers)
		if err == nil {
			c.metrics.RecordRequest(endpoint, OutcomeOK)
			c.logger.Debug("Request completed",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.String("code", env.Code))
			return env, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}

		lastErr = err
		c.metrics.RecordRequest(endpoint, OutcomeRetry)
		c.logger.Warn("Request attempt failed",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", c.maxAttempts),
			zap.Error(err))
	}

	c.metrics.RecordRequest(endpoint, OutcomeExhausted)
	return nil, fmt.Errorf("%w: %s failed after %d attempts: %v", port.ErrUnavailable, endpoint, c.maxAttempts, lastErr)
}

func (c *Client) wait(ctx context.Context) error {
	if c.delay > 0 {
		timer := time.NewTimer(c.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return c.limiter.Wait(ctx)
}

func (c *Client) do(ctx context.Context, requestURL string, form Form, headers map[string]string) (*Envelope, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.SetBody(encodeForm(form))

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
	}

	if resp.StatusCode() >= fasthttp.StatusInternalServerError {
		return nil, fmt.Errorf("request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var env Envelope
	if err := json.Unmarshal(resp.Body(), &env); err != nil {
		return nil, fmt.Errorf("malformed response from %s (status %d): %w", requestURL, resp.StatusCode(), err)
	}
	return &env, nil
}

func encodeForm(form Form) []byte {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args.Add(k, form[k])
	}
	return append([]byte(nil), args.QueryString()...)
}
