package services

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"motomar-api/config"
)

func captureMailer(t *testing.T) (*EmailService, *[]*gomail.Message) {
	t.Helper()
	es := NewEmailService(&config.Config{FromName: "MotoMar", FromEmail: "noreply@motomar.com", FrontendURL: "https://motomar.co"})
	var sent []*gomail.Message
	es.send = func(m *gomail.Message) error {
		sent = append(sent, m)
		return nil
	}
	return es, &sent
}

func messageBody(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestEmailService_WelcomeEmail(t *testing.T) {
	es, sent := captureMailer(t)

	require.NoError(t, es.SendWelcomeEmail("ana@motomar.com", "Ana"))

	require.Len(t, *sent, 1)
	m := (*sent)[0]
	assert.Equal(t, []string{"ana@motomar.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"MotoMar <noreply@motomar.com>"}, m.GetHeader("From"))
	assert.Contains(t, messageBody(t, m), "https://motomar.co")
}

func TestEmailService_LoginNotice(t *testing.T) {
	es, sent := captureMailer(t)
	at := time.Date(2026, 5, 4, 13, 30, 0, 0, time.UTC)

	require.NoError(t, es.SendLoginNotice("ana@motomar.com", "Ana", "203.0.113.9", at))

	require.Len(t, *sent, 1)
	body := messageBody(t, (*sent)[0])
	assert.Contains(t, body, "203.0.113.9")
	assert.Contains(t, body, "04/05/2026 13:30")
}

func TestEmailService_SendFailureIsWrapped(t *testing.T) {
	es, _ := captureMailer(t)
	boom := errors.New("smtp down")
	es.send = func(*gomail.Message) error { return boom }

	err := es.SendWelcomeEmail("ana@motomar.com", "Ana")
	assert.ErrorIs(t, err, boom)
}

func TestEmailService_WithoutSMTPSkips(t *testing.T) {
	es := NewEmailService(&config.Config{})
	assert.NoError(t, es.SendWelcomeEmail("ana@motomar.com", "Ana"))
}

func TestEmailService_DialsConfiguredSMTP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	es := NewEmailService(&config.Config{
		SMTPHost:  "127.0.0.1",
		SMTPPort:  port,
		FromName:  "MotoMar",
		FromEmail: "noreply@motomar.com",
	})

	err = es.SendWelcomeEmail("ana@motomar.com", "Ana")
	assert.Error(t, err)
}
