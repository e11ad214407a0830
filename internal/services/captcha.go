package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/RehanEggSupplierdev/batchboard/internal/observability"
)

var ErrCaptchaFailed = errors.New("captcha verification failed")

// CaptchaVerifier gates sign-up when a bot check is configured.
type CaptchaVerifier interface {
	Verify(ctx context.Context, token, remoteIP string) error
}

const recaptchaEndpoint = "https://www.google.com/recaptcha/api/siteverify"

// RecaptchaVerifier checks reCAPTCHA v2 checkbox tokens against siteverify.
type RecaptchaVerifier struct {
	Secret     string
	Endpoint   string
	HTTPClient *http.Client
}

type siteverifyResponse struct {
	Success    bool     `json:"success"`
	Hostname   string   `json:"hostname"`
	ErrorCodes []string `json:"error-codes"`
}

func NewRecaptchaVerifier(secret string) *RecaptchaVerifier {
	return &RecaptchaVerifier{
		Secret:     secret,
		Endpoint:   recaptchaEndpoint,
		HTTPClient: &http.Client{Timeout: 8 * time.Second},
	}
}

// Verify returns ErrCaptchaFailed for a missing or rejected token. Transport
// failures come back unwrapped so callers can tell them apart.
func (v *RecaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("%w: missing token", ErrCaptchaFailed)
	}

	form := url.Values{"secret": {v.Secret}, "response": {token}}
	if ip := strings.TrimSpace(remoteIP); ip != "" {
		form.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("siteverify: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("siteverify: http %d", resp.StatusCode)
	}

	var out siteverifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("siteverify: decode: %w", err)
	}
	if !out.Success {
		observability.GetLogger(ctx).Info("captcha rejected",
			zap.String("remote_ip", remoteIP),
			zap.Strings("error_codes", out.ErrorCodes))
		return fmt.Errorf("%w: %s", ErrCaptchaFailed, strings.Join(out.ErrorCodes, ","))
	}
	return nil
}
