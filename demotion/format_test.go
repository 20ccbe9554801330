package demotion_test

import (
	"testing"
	"time"

	"demote-bot/demotion"

	"github.com/stretchr/testify/assert"
)

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0m"},
		{-time.Minute, "0m"},
		{time.Second, "1m"},
		{15 * time.Minute, "15m"},
		{time.Hour + 4*time.Minute + time.Second, "1h 5m"},
		{48 * time.Hour, "48h 0m"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, demotion.FormatRemaining(tt.in), tt.in.String())
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "30 minutes", demotion.FormatDuration(0, 30))
	assert.Equal(t, "1 hour 1 minute", demotion.FormatDuration(1, 1))
	assert.Equal(t, "1 day 2 hours", demotion.FormatDuration(26, 0))
	assert.Equal(t, "30 days 59 minutes", demotion.FormatDuration(720, 59))
}

func TestReasonOrDefault(t *testing.T) {
	assert.Equal(t, "No reason provided", demotion.ReasonOrDefault("  "))
	assert.Equal(t, "spam", demotion.ReasonOrDefault("spam"))
}
