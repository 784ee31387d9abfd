package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"observo/internal/config"
)

// SMTPSender delivers mail over SMTP. Port 465 uses implicit TLS; other
// ports upgrade with STARTTLS when the server offers it.
type SMTPSender struct {
	host     string
	port     int
	user     string
	password string
	timeout  time.Duration
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		user:     cfg.User,
		password: cfg.Password,
		timeout:  30 * time.Second,
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, req EmailRequest) error {
	if err := validateRequest(req); err != nil {
		return err
	}
	addr := net.JoinHostPort(s.host, strconv.Itoa(s.port))

	dialer := &net.Dialer{Timeout: s.timeout}
	var (
		conn net.Conn
		err  error
	)
	if s.port == 465 {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.host}}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("connect to smtp %s: %w", addr, err)
	}
	defer conn.Close()

	deadline := time.Now().Add(s.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, s.host)
	if err != nil {
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if s.port != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: s.host}); err != nil {
				return fmt.Errorf("smtp starttls: %w", err)
			}
		}
	}

	if s.user != "" && s.password != "" {
		if err := client.Auth(smtp.PlainAuth("", s.user, s.password, s.host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(req.From); err != nil {
		return fmt.Errorf("smtp sender %s: %w", req.From, err)
	}
	for _, rcpt := range req.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(buildMIMEMessage(req)); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close data: %w", err)
	}
	_ = client.Quit()
	return nil
}

const mimeBoundary = "observo-alert-boundary"

// buildMIMEMessage renders a multipart/alternative message with a text and
// an optional HTML part.
func buildMIMEMessage(req EmailRequest) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(req.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(req.To, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(req.Subject)))
	b.WriteString("MIME-Version: 1.0\r\n")

	if req.HTML == "" {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(req.Text)
		b.WriteString("\r\n")
		return b.Bytes()
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", mimeBoundary)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s\r\n", mimeBoundary, req.Text)
	fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n", mimeBoundary, req.HTML)
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return b.Bytes()
}

// headerValue folds a value onto one line so it cannot start new headers.
func headerValue(v string) string {
	return strings.Join(strings.FieldsFunc(v, func(r rune) bool { return r == '\r' || r == '\n' }), " ")
}
