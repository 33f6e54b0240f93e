package voipms

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voipbits/internal/errors"
)

func TestNormalizeDestination(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"bare ten digits", "5551234567", "5551234567", false},
		{"formatted", "(555) 123-4567", "5551234567", false},
		{"eleven with leading one", "15551234567", "5551234567", false},
		{"plus one prefix", "+1 555 123 4567", "5551234567", false},
		{"eleven without leading one", "25551234567", "", true},
		{"nine digits", "555123456", "", true},
		{"twelve digits", "155512345678", "", true},
		{"empty", "", "", true},
		{"letters only", "call me", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDestination(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeInvalidNumber, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestChunkMessage(t *testing.T) {
	t.Run("short message is one chunk", func(t *testing.T) {
		chunks := chunkMessage("hello")
		assert.Equal(t, []string{"hello"}, chunks)
	})

	t.Run("exact boundary", func(t *testing.T) {
		msg := strings.Repeat("a", 160)
		chunks := chunkMessage(msg)
		assert.Len(t, chunks, 1)
	})

	t.Run("one over boundary", func(t *testing.T) {
		msg := strings.Repeat("a", 161)
		chunks := chunkMessage(msg)
		require.Len(t, chunks, 2)
		assert.Len(t, chunks[0], 160)
		assert.Len(t, chunks[1], 1)
	})

	t.Run("chunk count is ceil of rune length over 160", func(t *testing.T) {
		for _, n := range []int{1, 159, 160, 161, 320, 321, 800} {
			msg := strings.Repeat("x", n)
			expected := (n + 159) / 160
			assert.Len(t, chunkMessage(msg), expected, "length %d", n)
		}
	})

	t.Run("multi-byte characters never bisected", func(t *testing.T) {
		// 200 two-byte code points: the split must land between runes,
		// not inside one.
		msg := strings.Repeat("é", 200)
		chunks := chunkMessage(msg)
		require.Len(t, chunks, 2)
		assert.Equal(t, 160, len([]rune(chunks[0])))
		assert.Equal(t, 40, len([]rune(chunks[1])))
		for _, chunk := range chunks {
			assert.True(t, strings.HasPrefix(msg, chunk) || strings.HasSuffix(msg, chunk))
			assert.NotContains(t, chunk, "�")
		}
	})

	t.Run("chunks concatenate to original", func(t *testing.T) {
		msg := strings.Repeat("héllo wörld 👋 ", 40)
		chunks := chunkMessage(msg)
		assert.Equal(t, msg, strings.Join(chunks, ""))
		for _, chunk := range chunks {
			assert.LessOrEqual(t, len([]rune(chunk)), 160)
		}
	})
}
