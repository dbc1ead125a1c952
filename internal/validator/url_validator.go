// Package validator checks long URLs before they are registered.
package validator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/axellelanca/linkforge/internal/models"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// URLValidator decides whether a long URL may be registered. Its answer is
// authoritative for create and update.
type URLValidator interface {
	Validate(ctx context.Context, rawURL string) bool
}

// HTTPValidator checks URL syntax with validator/v10 and, when enabled, that
// the destination answers a HEAD request.
type HTTPValidator struct {
	validate          *validator.Validate
	httpClient        *http.Client
	timeout           time.Duration
	checkReachability bool
	logger            *zap.Logger
}

// NewHTTPValidator returns an HTTPValidator. A zero timeout means 5 seconds.
func NewHTTPValidator(checkReachability bool, timeout time.Duration, logger *zap.Logger) *HTTPValidator {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPValidator{
		validate:          validator.New(validator.WithRequiredStructEnabled()),
		httpClient:        &http.Client{Timeout: timeout},
		timeout:           timeout,
		checkReachability: checkReachability,
		logger:            logger,
	}
}

// Validate reports whether rawURL is a well-formed http(s) URL and, if
// reachability checks are on, whether it is reachable.
func (v *HTTPValidator) Validate(ctx context.Context, rawURL string) bool {
	if err := v.CheckSyntax(rawURL); err != nil {
		v.logger.Debug("url rejected", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	if !v.checkReachability {
		return true
	}
	return v.Reachable(ctx, rawURL)
}

// CheckSyntax requires an absolute URL with an http or https scheme and a host.
func (v *HTTPValidator) CheckSyntax(rawURL string) error {
	if err := v.validate.Var(rawURL, fmt.Sprintf("required,max=%d,http_url", models.MaxURLLength)); err != nil {
		return err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

// Reachable performs an HTTP HEAD request. 2xx and 3xx count as reachable.
func (v *HTTPValidator) Reachable(ctx context.Context, rawURL string) bool {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		v.logger.Debug("cannot build HEAD request", zap.String("url", rawURL), zap.Error(err))
		return false
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		v.logger.Debug("url unreachable", zap.String("url", rawURL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode >= 200 && resp.StatusCode < 400
}

// Func adapts a function to URLValidator.
type Func func(ctx context.Context, rawURL string) bool

func (f Func) Validate(ctx context.Context, rawURL string) bool { return f(ctx, rawURL) }
