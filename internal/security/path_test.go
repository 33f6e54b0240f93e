package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateFilePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"empty path", "", true},
		{"relative path", "data/tokens.db", false},
		{"absolute path", "/var/lib/voipbits/tokens.db", false},
		{"traversal", "../../etc/passwd", true},
		{"embedded traversal", "data/../../secret", true},
		{"nul byte", "tokens.db\x00", true},
		{"dot components resolved", "data/./tokens.db", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFilePath(tt.path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
