package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/staff-portal/internal/config"
)

func TestNewPicksLogSenderWithoutHost(t *testing.T) {
	s := New(config.MailConfig{From: "hr@example.org"}, zap.NewNop())
	_, ok := s.(*LogSender)
	assert.True(t, ok)

	s = New(config.MailConfig{Host: "smtp.example.org", Port: 25}, zap.NewNop())
	_, ok = s.(*SMTPSender)
	assert.True(t, ok)
}

func TestSMTPSenderRendersMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	s := &SMTPSender{
		cfg:    config.MailConfig{Host: "smtp.example.org", Port: 2525, From: "hr@example.org"},
		logger: zap.NewNop(),
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			assert.Nil(t, a)
			return nil
		},
	}

	err := s.Send(context.Background(), Message{To: []string{"ada@example.org"}, Subject: "Leave\r\napproved", Body: "line1\nline2"})
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.org:2525", gotAddr)
	assert.Equal(t, "hr@example.org", gotFrom)
	assert.Equal(t, []string{"ada@example.org"}, gotTo)
	body := string(gotMsg)
	assert.Contains(t, body, "Subject: Leave  approved\r\n")
	assert.True(t, strings.HasSuffix(body, "line1\r\nline2"))
}

func TestSMTPSenderPropagatesErrors(t *testing.T) {
	s := &SMTPSender{
		cfg:    config.MailConfig{Host: "smtp", Port: 25, Username: "u", Password: "p"},
		logger: zap.NewNop(),
		send: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("relay denied")
		},
	}
	err := s.Send(context.Background(), Message{To: []string{"x@example.org"}})
	assert.ErrorContains(t, err, "relay denied")
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	s := &SMTPSender{
		cfg:    config.MailConfig{Host: "smtp", Port: 25},
		logger: zap.NewNop(),
		send: func(string, smtp.Auth, string, []string, []byte) error {
			<-block
			return nil
		},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{To: []string{"x@example.org"}}), context.DeadlineExceeded)
}

func TestLogSender(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s := NewLogSender(zap.New(core), "hr@example.org")
	require.NoError(t, s.Send(context.Background(), Message{To: []string{"a@example.org"}, Subject: "hi"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hi", logs.All()[0].ContextMap()["subject"])
}
