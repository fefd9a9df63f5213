package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"smtp 421", &textproto.Error{Code: 421, Msg: "service not available"}, true},
		{"smtp 451 wrapped", fmt.Errorf("send: %w", &textproto.Error{Code: 451, Msg: "local error"}), true},
		{"smtp 550", &textproto.Error{Code: 550, Msg: "mailbox unavailable"}, false},
		{"net timeout", timeoutErr{}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"canceled", context.Canceled, false},
		{"rate limited text", errors.New("421 rate limit exceeded"), true},
		{"no recipient", ErrNoRecipient, false},
		{"auth failure", errors.New("535 authentication failed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestRender(t *testing.T) {
	date := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)

	subject, body := Render(TemplateGraceReminder, TemplateData{FullName: "Asha", PlanName: "Regular <Monthly>", Date: date, DaysRemaining: 2})

	assert.Equal(t, "2 days left in your grace period", subject)
	assert.Contains(t, body, "Hi Asha")
	assert.Contains(t, body, "03 Aug 2026")
	assert.Contains(t, body, "Regular &lt;Monthly&gt;")

	subject, body = Render(TemplateGraceEndsToday, TemplateData{PlanName: "Gold", Date: date})
	assert.Equal(t, "Your grace period ends today", subject)
	assert.True(t, strings.Index(body, "03 Aug 2026") < strings.Index(body, "Gold"))
}

func TestConsoleEmailService(t *testing.T) {
	svc := NewConsoleEmailService()
	assert.NoError(t, svc.Send(context.Background(), Message{To: "a@b.c", Subject: "x"}))
	assert.ErrorIs(t, svc.Send(context.Background(), Message{}), ErrNoRecipient)
}
