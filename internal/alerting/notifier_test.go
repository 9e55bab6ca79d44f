package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"crypto-tracker/internal/config"
)

func testAlert() Alert {
	return Alert{
		Exchange:   "gdax",
		Product:    "BTC-USD",
		Price:      decimal.RequireFromString("60123.45"),
		Threshold:  decimal.NewFromInt(50000),
		ObservedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestAlertRendering(t *testing.T) {
	alert := testAlert()

	if got := alert.Subject(); got != "Price alert: BTC-USD on gdax" {
		t.Fatalf("unexpected subject %q", got)
	}

	body := alert.Body()
	for _, want := range []string{"BTC-USD", "gdax", "60123.45", "50000"} {
		if !strings.Contains(body, want) {
			t.Fatalf("body should contain %q: %q", want, body)
		}
	}
}

func TestTelegramNotifierSuccess(t *testing.T) {
	received := make(map[string]string)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("path should contain sendMessage, got %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testAlert()); err != nil {
		t.Fatalf("telegram notify should succeed: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("unexpected chat_id: %#v", received)
	}
	if !strings.Contains(received["text"], "BTC-USD") {
		t.Fatalf("text should name the product: %q", received["text"])
	}
}

func TestTelegramNotifierError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.Notify(context.Background(), testAlert()); err == nil {
		t.Fatal("ok=false should be an error")
	}
}

type fakeSender struct {
	messages []*gomail.Message
	fail     error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.fail != nil {
		return f.fail
	}
	f.messages = append(f.messages, m...)
	return nil
}

func TestEmailNotifier(t *testing.T) {
	cfg := config.EmailConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Sender:   "alerts@example.com",
		Receiver: "ops@example.com",
	}
	notifier := NewEmailNotifier(cfg, testLogger())
	fake := &fakeSender{}
	notifier.dialer = fake

	if err := notifier.Notify(context.Background(), testAlert()); err != nil {
		t.Fatalf("email notify should succeed: %v", err)
	}
	if len(fake.messages) != 1 {
		t.Fatalf("exactly one message should be sent, got %d", len(fake.messages))
	}

	var buf bytes.Buffer
	if _, err := fake.messages[0].WriteTo(&buf); err != nil {
		t.Fatalf("render message: %v", err)
	}
	rendered := buf.String()
	if !strings.Contains(rendered, "Subject: Price alert: BTC-USD on gdax") {
		t.Fatalf("message should carry the alert subject: %q", rendered)
	}
	if !strings.Contains(rendered, "ops@example.com") {
		t.Fatalf("message should address the receiver: %q", rendered)
	}

	fake.fail = errors.New("connection refused")
	if err := notifier.Notify(context.Background(), testAlert()); err == nil {
		t.Fatal("delivery failure should surface as an error")
	}
}

func TestEmailNotifierMissingConfig(t *testing.T) {
	notifier := NewEmailNotifier(config.EmailConfig{}, testLogger())
	if err := notifier.Notify(context.Background(), testAlert()); err == nil {
		t.Fatal("missing SMTP config should be an error")
	}
}

func TestMultiNotifier(t *testing.T) {
	good := &recordingNotifier{}
	bad := &recordingNotifier{fail: errors.New("boom")}

	multi := Multi{bad, good}
	err := multi.Notify(context.Background(), testAlert())
	if err == nil {
		t.Fatal("failing channel should surface in the joined error")
	}
	if len(good.alerts) != 1 {
		t.Fatal("a failing channel must not prevent delivery to the others")
	}
}

type recordingNotifier struct {
	alerts []Alert
	fail   error
}

func (r *recordingNotifier) Notify(ctx context.Context, alert Alert) error {
	if r.fail != nil {
		return r.fail
	}
	r.alerts = append(r.alerts, alert)
	return nil
}
