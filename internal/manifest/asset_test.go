package manifest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispositionFor(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected Disposition
	}{
		{name: "empty file", size: 0, expected: Inline},
		{name: "one byte below limit", size: AssetInlineLimit - 1, expected: Inline},
		{name: "exactly at limit", size: AssetInlineLimit, expected: Emit},
		{name: "above limit", size: AssetInlineLimit + 1, expected: Emit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, DispositionFor(tt.size, AssetInlineLimit))
		})
	}
}

func TestTransformRule_InlineLimit(t *testing.T) {
	m, err := Build(Production, Options{})
	require.NoError(t, err)

	images := findRule(t, m, `\.(png|svg|jpg|gif)$`)
	limit, ok := images.InlineLimit()
	require.True(t, ok)
	require.Equal(t, AssetInlineLimit, limit)
	require.Equal(t, "./assets/images/[name]-[hash].[ext]", images.AssetName())

	scripts := findRule(t, m, `\.js(x?)$`)
	_, ok = scripts.InlineLimit()
	require.False(t, ok)
	require.Empty(t, scripts.AssetName())
}

func TestDisposition_String(t *testing.T) {
	require.Equal(t, "inline", Inline.String())
	require.Equal(t, "emit", Emit.String())
}
