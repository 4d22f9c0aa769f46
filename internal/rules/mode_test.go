package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNestedChainMode(t *testing.T) {
	tests := []struct {
		in      string
		want    NestedChainMode
		wantErr bool
	}{
		{"", FlattenAndPreserve, false},
		{"flatten-and-preserve", FlattenAndPreserve, false},
		{"flatten-only", FlattenOnly, false},
		{"flatten", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNestedChainMode(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.Equal(t, tt.in, got.String())
			}
		})
	}
}

func TestDefaultModeIsFlattenAndPreserve(t *testing.T) {
	assert.Equal(t, FlattenAndPreserve, DefaultNestedChainMode)
	assert.Equal(t, FlattenAndPreserve, NewRegistry(RuleSet{}, nil).Mode())
	var nilReg *Registry
	assert.Equal(t, FlattenAndPreserve, nilReg.Mode())
}
