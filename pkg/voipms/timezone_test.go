package voipms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimezoneFlag(t *testing.T) {
	tests := []struct {
		name     string
		instant  time.Time
		expected string
	}{
		{
			name:     "july is daylight saving",
			instant:  time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC),
			expected: "-1",
		},
		{
			name:     "january is standard time",
			instant:  time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
			expected: "0",
		},
		{
			name: "moments after spring forward",
			// 2024-03-10 10:05 UTC is 03:05 PDT, just past the transition.
			instant:  time.Date(2024, 3, 10, 10, 5, 0, 0, time.UTC),
			expected: "-1",
		},
		{
			name: "moments after fall back",
			// 2024-11-03 09:05 UTC is 01:05 PST, just past the transition.
			instant:  time.Date(2024, 11, 3, 9, 5, 0, 0, time.UTC),
			expected: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, timezoneFlag(tt.instant))
		})
	}
}
