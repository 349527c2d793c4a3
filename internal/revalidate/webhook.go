package revalidate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultWebhookTimeout = 10 * time.Second
	// SecretHeader carries the shared secret the front end checks before purging.
	SecretHeader = "X-Revalidate-Secret"
)

type webhookRequest struct {
	Views []string `json:"views"`
}

// WebhookRevalidator posts stale view names to the front end's revalidation endpoint.
type WebhookRevalidator struct {
	client   *resty.Client
	endpoint string
	secret   string
}

func NewWebhookRevalidator(endpoint string, secret string) (*WebhookRevalidator, error) {
	client := resty.New()
	client.SetTimeout(defaultWebhookTimeout)
	client.SetRetryCount(0)

	return NewWebhookRevalidatorWithClient(endpoint, secret, client)
}

func NewWebhookRevalidatorWithClient(endpoint string, secret string, client *resty.Client) (*WebhookRevalidator, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("revalidation endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid revalidation endpoint: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultWebhookTimeout)
	}
	client.SetRetryCount(0)

	return &WebhookRevalidator{
		client:   client,
		endpoint: trimmedEndpoint,
		secret:   strings.TrimSpace(secret),
	}, nil
}

func (w *WebhookRevalidator) Revalidate(ctx context.Context, views []string) error {
	if w == nil || w.client == nil {
		return fmt.Errorf("revalidator is not initialized")
	}
	if len(views) == 0 {
		return nil
	}

	req := w.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(webhookRequest{Views: views})
	if w.secret != "" {
		req.SetHeader(SecretHeader, w.secret)
	}

	response, err := req.Post(w.endpoint)
	if err != nil {
		return &Error{
			Message:   "revalidation request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return &Error{
			Message:   "revalidation endpoint returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return nil
	}

	return &Error{
		StatusCode: statusCode,
		Message:    errorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func isTransientHTTPStatus(statusCode int) bool {
	return statusCode == http.StatusTooManyRequests || (statusCode >= http.StatusInternalServerError && statusCode <= 599)
}

func errorMessage(statusCode int, body string) string {
	base := fmt.Sprintf("endpoint returned status %d", statusCode)
	if body == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, body)
}
