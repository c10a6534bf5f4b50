package notifications

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"storefront/internal/config"
	"storefront/internal/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mail.v2"
)

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func sampleContact() Contact {
	return Contact{
		Name:    "Ivan",
		Email:   "ivan@example.com",
		Phone:   "+7 (912) 345-67-89",
		Subject: "Delivery",
		Message: "Do you deliver <on weekends>?",
	}
}

func TestContactMessage(t *testing.T) {
	msg, err := ContactMessage(sampleContact(), "shop@example.com")
	require.NoError(t, err)

	assert.Equal(t, []string{"shop@example.com"}, msg.To)
	assert.Equal(t, "Message from site from Ivan", msg.Subject)
	assert.Equal(t, TemplateContactMessage, msg.Template)
	assert.Contains(t, msg.Text, "Phone: +7 (912) 345-67-89")
	assert.Contains(t, msg.Text, "Do you deliver <on weekends>?")
	assert.Contains(t, msg.HTML, "Do you deliver &lt;on weekends&gt;?")
	assert.Contains(t, msg.HTML, "<!DOCTYPE html>")
}

func TestContactReply(t *testing.T) {
	msg, err := ContactReply(sampleContact())
	require.NoError(t, err)

	assert.Equal(t, []string{"ivan@example.com"}, msg.To)
	assert.Equal(t, "Thank you for contacting us!", msg.Subject)
	assert.Contains(t, msg.Text, "Thank you for contacting us, Ivan!")
}

func TestPasswordEmails(t *testing.T) {
	link := "https://shop.example.com/password-reset/MQ/abc"
	msg, err := PasswordReset("ivan@example.com", PasswordResetData{Name: "Ivan", Link: link, ExpiresIn: "1 hour"})
	require.NoError(t, err)
	assert.Equal(t, TemplatePasswordReset, msg.Template)
	assert.Contains(t, msg.Text, link)
	assert.Contains(t, msg.HTML, `href="`+link+`"`)
	assert.Contains(t, msg.Text, "1 hour")

	changed, err := PasswordChanged("ivan@example.com", "Ivan")
	require.NoError(t, err)
	assert.Equal(t, "Your password has been changed", changed.Subject)
	assert.Contains(t, changed.Text, "Hello, Ivan.")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, err := Render("missing", nil)
	assert.Error(t, err)
}

func TestSMTPMailer_Send(t *testing.T) {
	fs := &fakeSender{}
	m := &SMTPMailer{from: "shop@example.com", dialer: fs}

	msg, err := ContactReply(sampleContact())
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), msg))

	require.Len(t, fs.sent, 1)
	assert.Equal(t, []string{"shop@example.com"}, fs.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"ivan@example.com"}, fs.sent[0].GetHeader("To"))

	var buf bytes.Buffer
	_, err = fs.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "text/plain")
	assert.Contains(t, buf.String(), "text/html")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	fs := &fakeSender{err: errors.New("connection refused")}
	m := &SMTPMailer{from: "shop@example.com", dialer: fs}

	err := m.Send(context.Background(), Message{To: []string{"a@example.com"}, Template: TemplateContactReply})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_CanceledContext(t *testing.T) {
	fs := &fakeSender{}
	m := &SMTPMailer{from: "shop@example.com", dialer: fs}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, Message{}), context.Canceled)
	assert.Empty(t, fs.sent)
}

func TestNewMailer(t *testing.T) {
	_, isLog := NewMailer(&config.Config{}).(*LogMailer)
	assert.True(t, isLog)

	_, isSMTP := NewMailer(&config.Config{SMTPHost: "smtp.example.com", SMTPPort: 587, SMTPUseTLS: true}).(*SMTPMailer)
	assert.True(t, isSMTP)
}

func TestLogMailer(t *testing.T) {
	m := &LogMailer{}
	for i := 0; i < 55; i++ {
		require.NoError(t, m.Send(context.Background(), Message{Subject: "s"}))
	}
	assert.Len(t, m.Sent(), 50)
}

func TestLogMailer_KeepsResetLinkOutOfLogs(t *testing.T) {
	var buf bytes.Buffer
	prev := middleware.Logger
	middleware.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	t.Cleanup(func() { middleware.Logger = prev })

	link := "https://shop.example.com/password-reset/MQ/eyJhbGciOiJIUzI1NiJ9.secret-part"
	msg, err := PasswordReset("ivan@example.com", PasswordResetData{Name: "Ivan", Link: link, ExpiresIn: "1 hour"})
	require.NoError(t, err)

	m := &LogMailer{}
	require.NoError(t, m.Send(context.Background(), msg))

	out := buf.String()
	assert.Contains(t, out, TemplatePasswordReset)
	assert.Contains(t, out, "ivan@example.com")
	assert.NotContains(t, out, "secret-part")
	assert.NotContains(t, out, "password-reset/MQ")
	require.Len(t, m.Sent(), 1)
	assert.Contains(t, m.Sent()[0].Text, link)
}
