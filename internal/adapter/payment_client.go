// Package adapter integrates external providers: the payment processor used
// for plan checkout.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/wallet-watchdog/internal/circuitbreaker"
	"github.com/wallet-watchdog/internal/logging"
	"github.com/wallet-watchdog/internal/retry"
)

// CheckoutSession is the payment provider's hosted checkout handle. The
// caller redirects the user to URL to complete payment.
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PaymentClient creates hosted checkout sessions for plan purchases
type PaymentClient interface {
	CreateCheckoutSession(ctx context.Context, email, planName string, amountCents int) (*CheckoutSession, error)
}

// StripeClient talks to the Stripe checkout API. Session creation is
// idempotent from our side, so transient failures are retried with backoff,
// and a sustained outage trips a circuit breaker instead of queueing up
// 30-second timeouts.
type StripeClient struct {
	client     *resty.Client
	breaker    *circuitbreaker.Breaker
	retry      *retry.Policy
	successURL string
	cancelURL  string
}

// NewStripeClient creates a Stripe-backed payment client
func NewStripeClient(apiKey, baseURL, successURL, cancelURL string) *StripeClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/x-www-form-urlencoded")

	return &StripeClient{
		client:     client,
		breaker:    circuitbreaker.New(circuitbreaker.DefaultConfig("stripe")),
		retry:      retry.DefaultPolicy(),
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

// CreateCheckoutSession opens a hosted checkout session for a plan
// purchase. The caller is expected to have rejected free plans already.
func (s *StripeClient) CreateCheckoutSession(ctx context.Context, email, planName string, amountCents int) (*CheckoutSession, error) {
	var session *CheckoutSession
	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, s.retry, func(ctx context.Context) error {
			created, err := s.createSession(ctx, email, planName, amountCents)
			if err != nil {
				return err
			}
			session = created
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *StripeClient) createSession(ctx context.Context, email, planName string, amountCents int) (*CheckoutSession, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"mode":                    "subscription",
			"customer_email":          email,
			"success_url":             s.successURL,
			"cancel_url":              s.cancelURL,
			"line_items[0][quantity]": "1",
			"line_items[0][price_data][currency]":            "usd",
			"line_items[0][price_data][unit_amount]":         fmt.Sprintf("%d", amountCents),
			"line_items[0][price_data][recurring][interval]": "month",
			"line_items[0][price_data][product_data][name]":  planName + " Plan",
		}).
		Post("/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("failed to reach payment provider: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		logging.GetGlobalLogger().WithFields(map[string]interface{}{
			"status": resp.StatusCode(),
			"plan":   planName,
		}).Error("Checkout session creation rejected")
		return nil, fmt.Errorf("payment provider returned status %d", resp.StatusCode())
	}

	var session CheckoutSession
	if err := json.Unmarshal(resp.Body(), &session); err != nil {
		return nil, fmt.Errorf("failed to decode checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, fmt.Errorf("payment provider returned no checkout URL")
	}

	return &session, nil
}
