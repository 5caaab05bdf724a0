package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"gopkg.in/gomail.v2"

	"perfhub/internal/platform/config"
)

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)
	return d.err
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	if _, ok := mailer.(noopMailer); !ok {
		t.Fatalf("expected noop mailer, got %T", mailer)
	}
}

func TestSendBuildsMessage(t *testing.T) {
	d := &recordingDialer{}
	m := &smtpMailer{dialer: d}

	if err := m.Send(context.Background(), "hr@example.com", "ana@example.com", "Self review closes today", "Please submit."); err != nil {
		t.Fatalf("send error: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(d.sent))
	}

	var buf bytes.Buffer
	if _, err := d.sent[0].WriteTo(&buf); err != nil {
		t.Fatalf("write error: %v", err)
	}
	raw := buf.String()
	for _, want := range []string{"From: hr@example.com", "To: ana@example.com", "Subject: Self review closes today", "Please submit."} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
}

func TestSendSkipsBlankRecipient(t *testing.T) {
	d := &recordingDialer{}
	m := &smtpMailer{dialer: d}
	if err := m.Send(context.Background(), "hr@example.com", " ", "s", "b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(d.sent) != 0 {
		t.Fatal("expected no message for blank recipient")
	}
}

func TestSendReturnsDialError(t *testing.T) {
	d := &recordingDialer{err: errors.New("connection refused")}
	m := &smtpMailer{dialer: d}
	if err := m.Send(context.Background(), "hr@example.com", "ana@example.com", "s", "b"); err == nil {
		t.Fatal("expected dial error")
	}
}
