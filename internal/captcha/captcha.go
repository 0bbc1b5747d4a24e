// Package captcha verifies bot-protection tokens submitted with checkout.
package captcha

import (
	"context"
	"errors"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// Verifier checks a client captcha token.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

// NewVerifier returns a Turnstile verifier when a secret is configured. Without
// one, production refuses to start and other environments skip the check.
func NewVerifier(cfg config.Config, logg *logger.Logger) (Verifier, error) {
	if strings.TrimSpace(cfg.Captcha.Secret) != "" {
		return NewTurnstile(cfg.Captcha, logg), nil
	}
	if cfg.App.IsProd() {
		return nil, errors.New("captcha secret required in production")
	}
	if logg != nil {
		logg.Warn(context.Background(), "captcha secret not configured; verification disabled")
	}
	return Noop{}, nil
}

// Noop accepts every token.
type Noop struct{}

func (Noop) Verify(context.Context, string, string) error { return nil }

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Hostname   string   `json:"hostname"`
}

// Turnstile calls Cloudflare's siteverify endpoint.
type Turnstile struct {
	client    *resty.Client
	secret    string
	verifyURL string
	logg      *logger.Logger
}

func NewTurnstile(cfg config.CaptchaConfig, logg *logger.Logger) *Turnstile {
	if logg == nil {
		logg = logger.Nop()
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
	return &Turnstile{
		client:    client,
		secret:    cfg.Secret,
		verifyURL: cfg.VerifyURL,
		logg:      logg,
	}
}

func (t *Turnstile) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeCaptcha, "captcha token required")
	}

	form := map[string]string{
		"secret":   t.secret,
		"response": token,
	}
	if remoteIP != "" {
		form["remoteip"] = remoteIP
	}

	var body siteverifyResponse
	resp, err := t.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&body).
		Post(t.verifyURL)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "captcha verification unavailable")
	}
	if resp.IsError() {
		return pkgerrors.New(pkgerrors.CodeDependency, "captcha verification unavailable").
			WithDetails(map[string]any{"status": resp.StatusCode()})
	}
	if !body.Success {
		t.logg.Warn(t.logg.WithField(ctx, "captcha_errors", strings.Join(body.ErrorCodes, ",")), "captcha.rejected")
		return pkgerrors.New(pkgerrors.CodeCaptcha, "captcha verification failed")
	}
	return nil
}
