package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCursorValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		expected  uint64
		expectErr bool
	}{
		{name: "zero", input: "0", expected: 0},
		{name: "positive", input: "46503333", expected: 46503333},
		{name: "max uint64", input: "18446744073709551615", expected: 18446744073709551615},
		{name: "empty", input: "", expectErr: true},
		{name: "negative", input: "-1", expectErr: true},
		{name: "non-numeric", input: "abc", expectErr: true},
		{name: "decimal point", input: "12.5", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, err := parseCursorValue(tt.input)
			if tt.expectErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}
