package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/pricewatch/config"
)

var testAlert = Alert{
	Title:       "Widget",
	NewPrice:    900,
	TargetPrice: 1000,
	URL:         "https://24h.pchome.com.tw/prod/A",
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Notify(context.Context, Alert) error {
	s.calls++
	return s.err
}

func TestMulti_TriesEveryChannel(t *testing.T) {
	failing := &stubNotifier{err: errors.New("smtp down")}
	ok := &stubNotifier{}

	err := Multi{failing, ok}.Notify(context.Background(), testAlert)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestMulti_AllSucceed(t *testing.T) {
	assert.NoError(t, Multi{&stubNotifier{}, &stubNotifier{}}.Notify(context.Background(), testAlert))
}

func TestFromConfig(t *testing.T) {
	n, err := FromConfig(config.NotifyConfig{})
	require.NoError(t, err)
	assert.IsType(t, Log{}, n)

	n, err = FromConfig(config.NotifyConfig{WebhookURL: "https://hooks.example/x"})
	require.NoError(t, err)
	assert.IsType(t, &Webhook{}, n)

	n, err = FromConfig(config.NotifyConfig{
		SMTPHost:   "smtp.example.com",
		SMTPPort:   465,
		SMTPUser:   "bot@example.com",
		AlertTo:    "me@example.com",
		WebhookURL: "https://hooks.example/x",
	})
	require.NoError(t, err)
	multi, ok := n.(Multi)
	require.True(t, ok)
	assert.Len(t, multi, 2)

	_, err = FromConfig(config.NotifyConfig{SMTPHost: "smtp.example.com", SMTPFrom: "a@example.com"})
	assert.Error(t, err, "SMTP without recipient must fail")
}

func TestAlert_Text(t *testing.T) {
	assert.Equal(t, "Price Alert: Widget", testAlert.Subject())
	body := testAlert.Body()
	assert.Contains(t, body, "$900")
	assert.Contains(t, body, "$1000")
	assert.Contains(t, body, testAlert.URL)
}

func TestSMTPMailer_Message(t *testing.T) {
	m, err := NewSMTPMailer("smtp.example.com", 0, "", "", "bot@example.com", "me@example.com")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:465", m.addr)
	assert.Nil(t, m.auth)

	msg := string(m.message(testAlert))
	assert.True(t, strings.HasPrefix(msg, "From: bot@example.com\r\nTo: me@example.com\r\nSubject: Price Alert: Widget\r\n"))
	assert.Contains(t, msg, "\r\n\r\nThe price of Widget dropped to $900")
}

func TestSMTPMailer_Validation(t *testing.T) {
	_, err := NewSMTPMailer("", 465, "", "", "a@example.com", "b@example.com")
	assert.Error(t, err)
	_, err = NewSMTPMailer("smtp.example.com", 465, "", "", "", "b@example.com")
	assert.Error(t, err)
	_, err = NewSMTPMailer("smtp.example.com", 465, "", "", "a@example.com", " ")
	assert.Error(t, err)
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	m, err := NewSMTPMailer("smtp.invalid", 465, "", "", "a@example.com", "b@example.com")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Notify(ctx, testAlert), context.Canceled)
}

func TestWebhook_SignedDelivery(t *testing.T) {
	var (
		gotEvent Event
		gotSig   string
		gotBody  []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		_ = json.Unmarshal(gotBody, &gotEvent)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "s3cret")
	require.NoError(t, w.Notify(context.Background(), testAlert))

	assert.Equal(t, "price.alert", gotEvent.Type)
	assert.Equal(t, testAlert, gotEvent.Alert)
	assert.Equal(t, "sha256="+Sign("s3cret", gotBody), gotSig)
}

func TestWebhook_NoSecretNoSignature(t *testing.T) {
	var sig atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sig.Store(r.Header.Get(SignatureHeader))
	}))
	defer srv.Close()

	require.NoError(t, NewWebhook(srv.URL, "").Notify(context.Background(), testAlert))
	assert.Equal(t, "", sig.Load())
}

func TestWebhook_RetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "")
	w.delays = []time.Duration{0, time.Millisecond, time.Millisecond}

	err := w.Notify(context.Background(), testAlert)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhook_RecoversOnRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL, "")
	w.delays = []time.Duration{0, time.Millisecond}

	require.NoError(t, w.Notify(context.Background(), testAlert))
	assert.Equal(t, int32(2), calls.Load())
}

func TestSign(t *testing.T) {
	// echo -n 'hello' | openssl dgst -sha256 -hmac key
	assert.Equal(t, "9307b3b915efb5171ff14d8cb55fbcc798c6c0ef1456d66ded1a6aa723a58b7b", Sign("key", []byte("hello")))
}
