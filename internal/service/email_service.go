package service

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"text/template"
	"time"

	"github.com/lumen-optics/internal/config"
	"github.com/lumen-optics/internal/models"
)

const smtpDialTimeout = 15 * time.Second

// EmailService 邮件发送服务
type EmailService struct {
	cfg *config.EmailConfig
}

// NewEmailService 创建邮件服务
func NewEmailService(cfg *config.EmailConfig) *EmailService {
	return &EmailService{cfg: cfg}
}

// Enabled 是否已启用且配置完整
func (s *EmailService) Enabled() bool {
	return s != nil && s.checkConfig() == nil
}

func (s *EmailService) checkConfig() error {
	if s.cfg == nil || !s.cfg.Enabled {
		return ErrEmailServiceDisabled
	}
	if s.cfg.Host == "" || s.cfg.Port == 0 || s.cfg.From == "" {
		return ErrEmailServiceNotConfigured
	}
	return nil
}

// OrderEmailInput 订单邮件内容
type OrderEmailInput struct {
	OrderNumber    string
	CustomerName   string
	TotalAmount    models.Money
	Currency       string
	TrackingNumber string
	ShippingMethod string
}

// SendOrderConfirmation 发送订单确认邮件
func (s *EmailService) SendOrderConfirmation(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderConfirmationContent(input)
	return s.send(toEmail, subject, body)
}

// SendOrderShipped 发送订单发货邮件
func (s *EmailService) SendOrderShipped(toEmail string, input OrderEmailInput) error {
	subject, body := buildOrderShippedContent(input)
	return s.send(toEmail, subject, body)
}

func (s *EmailService) send(toEmail, subject, body string) error {
	if err := s.checkConfig(); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(toEmail); err != nil {
		return ErrInvalidEmail
	}
	msg := buildEmailMessage(buildFromAddress(s.cfg.From, s.cfg.FromName), toEmail, subject, body)
	return normalizeEmailSendError(s.deliver(toEmail, msg))
}

// deliver 建立连接（SSL 直连或明文后按需 STARTTLS）并投递
func (s *EmailService) deliver(toEmail string, msg []byte) error {
	addr := net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	dialer := &net.Dialer{Timeout: smtpDialTimeout}

	var (
		conn net.Conn
		err  error
	)
	if s.cfg.UseSSL {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsConfig)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if !s.cfg.UseSSL && s.cfg.UseTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" || s.cfg.Password != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
				return err
			}
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(toEmail); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

const emailSignature = "Best regards,\nThe Lumen Optics Team"

var (
	orderConfirmationTmpl = template.Must(template.New("order_confirmation").Parse(
		`{{if .Name}}Hi {{.Name}},

{{end}}Thank you for your order!

Order Number: {{.OrderNumber}}
Total: {{.Total}} {{.Currency}}

We'll send you another email when your order ships.

` + emailSignature))

	orderShippedTmpl = template.Must(template.New("order_shipped").Parse(
		`{{if .Name}}Hi {{.Name}},

{{end}}Great news! Your order has shipped.

Order Number: {{.OrderNumber}}
Shipping Method: {{.ShippingMethod}}
Tracking Number: {{.TrackingNumber}}

You can track your package using the tracking number above.

` + emailSignature))
)

type orderEmailView struct {
	Name           string
	OrderNumber    string
	Total          string
	Currency       string
	ShippingMethod string
	TrackingNumber string
}

func newOrderEmailView(input OrderEmailInput) orderEmailView {
	return orderEmailView{
		Name:           strings.TrimSpace(input.CustomerName),
		OrderNumber:    input.OrderNumber,
		Total:          input.TotalAmount.String(),
		Currency:       strings.ToUpper(strings.TrimSpace(input.Currency)),
		ShippingMethod: valueOr(input.ShippingMethod, "standard shipping"),
		TrackingNumber: valueOr(input.TrackingNumber, "not available yet"),
	}
}

func buildOrderConfirmationContent(input OrderEmailInput) (string, string) {
	return fmt.Sprintf("Order Confirmation - %s", input.OrderNumber), renderEmail(orderConfirmationTmpl, input)
}

func buildOrderShippedContent(input OrderEmailInput) (string, string) {
	return fmt.Sprintf("Your Order Has Shipped - %s", input.OrderNumber), renderEmail(orderShippedTmpl, input)
}

func renderEmail(tmpl *template.Template, input OrderEmailInput) string {
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, newOrderEmailView(input))
	return buf.String()
}

func valueOr(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func buildFromAddress(from, name string) string {
	if strings.TrimSpace(name) == "" {
		return from
	}
	return (&mail.Address{Name: name, Address: from}).String()
}

func buildEmailMessage(from, to, subject, body string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("UTF-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

func normalizeEmailSendError(err error) error {
	if err == nil {
		return nil
	}
	if isEmailRecipientRejected(err) {
		return fmt.Errorf("%w: %v", ErrEmailRecipientRejected, err)
	}
	return err
}

var (
	recipientRejectedKeywords = []string{
		"no such recipient",
		"no such user",
		"recipient not found",
		"recipient address rejected",
		"invalid recipient",
		"user unknown",
		"unknown user",
		"unknown mailbox",
		"mailbox unavailable",
	}
	recipientHints = []string{"recipient", "user", "mailbox", "address", "rcpt"}
)

func isEmailRecipientRejected(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	if containsAny(message, recipientRejectedKeywords) {
		return true
	}
	return strings.Contains(message, "550") && containsAny(message, recipientHints)
}

func containsAny(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}
