package incident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanizeDuration(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"sub second", 500 * time.Millisecond, "0 seconds"},
		{"one second", time.Second, "1 second"},
		{"seconds", 45 * time.Second, "45 seconds"},
		{"minute and seconds", 90 * time.Second, "1 minute, 30 seconds"},
		{"exact hours", 2 * time.Hour, "2 hours"},
		{"day hour minute second", 25*time.Hour + 61*time.Second, "1 day, 1 hour, 1 minute, 1 second"},
		{"months and days", 65 * 24 * time.Hour, "2 months, 5 days"},
		{"years", 400 * 24 * time.Hour, "1 year, 1 month, 5 days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, humanizeDuration(tt.in))
		})
	}
}

func TestHumanizeDurationNegative(t *testing.T) {
	assert.Equal(t, "0 seconds", humanizeDuration(-5*time.Second))
}
