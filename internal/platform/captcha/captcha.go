// Package captcha verifies human-verification tokens with the configured
// provider before a vote reaches the core. Verification failures and provider
// outages both reject the request; only the "none" provider is permissive.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rakibhasan/jonomot/internal/domain"
)

var ErrVerificationFailed = errors.New("human verification failed")

const (
	turnstileURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	recaptchaURL = "https://www.google.com/recaptcha/api/siteverify"
)

// SiteVerify posts the token to a turnstile/recaptcha-style siteverify
// endpoint.
type SiteVerify struct {
	endpoint string
	secret   string
	client   *http.Client
}

func NewTurnstile(secret string) *SiteVerify {
	return newSiteVerify(turnstileURL, secret)
}

func NewRecaptcha(secret string) *SiteVerify {
	return newSiteVerify(recaptchaURL, secret)
}

func newSiteVerify(endpoint, secret string) *SiteVerify {
	return &SiteVerify{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *SiteVerify) Verify(ctx context.Context, token, remoteIP string) error {
	if token == "" {
		return ErrVerificationFailed
	}

	form := url.Values{}
	form.Set("secret", v.secret)
	form.Set("response", token)
	if remoteIP != "" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("captcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.client.Do(req)
	if err != nil {
		// Provider unreachable: fail closed.
		return fmt.Errorf("%w: provider unreachable", ErrVerificationFailed)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: provider status %d", ErrVerificationFailed, resp.StatusCode)
	}

	var body struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: invalid provider response", ErrVerificationFailed)
	}
	if !body.Success {
		return ErrVerificationFailed
	}
	return nil
}

// Noop accepts every request; used when CAPTCHA_PROVIDER is "none".
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Verify(ctx context.Context, token, remoteIP string) error {
	return nil
}

var (
	_ domain.Verifier = (*SiteVerify)(nil)
	_ domain.Verifier = Noop{}
)
