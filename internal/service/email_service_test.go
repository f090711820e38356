package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/models"

	"github.com/shopspring/decimal"
)

func TestBuildOrderEmailContent(t *testing.T) {
	input := OrderEmailInput{
		OrderNumber:    "LO-20260101-ABCD1234",
		CustomerName:   "Ada",
		TotalAmount:    models.NewMoneyFromDecimal(decimal.NewFromFloat(259.8)),
		Currency:       "usd",
		TrackingNumber: "1Z999",
	}

	tests := []struct {
		name             string
		build            func(OrderEmailInput) (string, string)
		wantSubject      string
		wantBodyContains []string
	}{
		{
			name:        "confirmation",
			build:       buildOrderConfirmationContent,
			wantSubject: "Order Confirmation - LO-20260101-ABCD1234",
			wantBodyContains: []string{
				"Hi Ada,",
				"Thank you for your order!",
				"Order Number: LO-20260101-ABCD1234",
				"Total: 259.80 USD",
			},
		},
		{
			name:        "shipped",
			build:       buildOrderShippedContent,
			wantSubject: "Your Order Has Shipped - LO-20260101-ABCD1234",
			wantBodyContains: []string{
				"Great news! Your order has shipped.",
				"Shipping Method: standard shipping",
				"Tracking Number: 1Z999",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := tt.build(input)
			if subject != tt.wantSubject {
				t.Fatalf("subject = %q, want %q", subject, tt.wantSubject)
			}
			for _, expected := range tt.wantBodyContains {
				if !strings.Contains(body, expected) {
					t.Fatalf("body missing %q: %s", expected, body)
				}
			}
		})
	}
}

func TestBuildOrderShippedContentWithoutTracking(t *testing.T) {
	_, body := buildOrderShippedContent(OrderEmailInput{OrderNumber: "LO-1", ShippingMethod: "express"})
	if !strings.Contains(body, "Tracking Number: not available yet") {
		t.Fatalf("expected placeholder tracking number: %s", body)
	}
	if !strings.Contains(body, "Shipping Method: express") {
		t.Fatalf("expected shipping method: %s", body)
	}
	if strings.HasPrefix(body, "Hi ") {
		t.Fatalf("greeting should be omitted without a name: %s", body)
	}
}

func TestSendOrderConfirmationDisabled(t *testing.T) {
	svc := NewEmailService(&config.EmailConfig{Enabled: false})
	if svc.Enabled() {
		t.Fatalf("expected disabled email service")
	}
	err := svc.SendOrderConfirmation("user@example.com", OrderEmailInput{OrderNumber: "LO-1"})
	if !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected ErrEmailServiceDisabled, got %v", err)
	}

	svc = NewEmailService(&config.EmailConfig{Enabled: true})
	err = svc.SendOrderShipped("user@example.com", OrderEmailInput{OrderNumber: "LO-1"})
	if !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected ErrEmailServiceNotConfigured, got %v", err)
	}
}

func TestIsEmailRecipientRejected(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "smtp_550_no_such_recipient",
			err:  errors.New("550 No such recipient here"),
			want: true,
		},
		{
			name: "smtp_user_unknown",
			err:  errors.New("SMTP 5.1.1 user unknown"),
			want: true,
		},
		{
			name: "smtp_550_mailbox_unavailable",
			err:  errors.New("550 mailbox unavailable"),
			want: true,
		},
		{
			name: "network_timeout",
			err:  errors.New("dial tcp timeout"),
			want: false,
		},
		{
			name: "nil_error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmailRecipientRejected(tt.err); got != tt.want {
				t.Fatalf("isEmailRecipientRejected() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	rejected := errors.New("550 No such recipient here")
	if got := normalizeEmailSendError(rejected); !errors.Is(got, ErrEmailRecipientRejected) {
		t.Fatalf("normalizeEmailSendError() expected ErrEmailRecipientRejected, got %v", got)
	}

	networkErr := errors.New("dial tcp timeout")
	if got := normalizeEmailSendError(networkErr); !errors.Is(got, networkErr) {
		t.Fatalf("normalizeEmailSendError() should keep original error, got %v", got)
	}

	if got := normalizeEmailSendError(nil); got != nil {
		t.Fatalf("normalizeEmailSendError(nil) should be nil, got %v", got)
	}
}
