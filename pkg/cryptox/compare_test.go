package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSecureCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "s3cret-value", "s3cret-value", true},
		{"different same length", "s3cret-value", "s3cret-valuf", false},
		{"prefix", "s3cret", "s3cret-value", false},
		{"empty vs value", "", "value", false},
		{"both empty", "", "", true},
		{"long inputs", strings.Repeat("x", 4096), strings.Repeat("x", 4096), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SecureCompare(tt.a, tt.b))
		})
	}
}
