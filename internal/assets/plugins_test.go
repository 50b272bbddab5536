package assets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntrySource(t *testing.T) {
	require.Equal(t, "import \"babel-polyfill\";\nimport \"app.js\";\n",
		entrySource([]string{"babel-polyfill", "app.js"}))
}

func TestStyleModule(t *testing.T) {
	src, err := styleModule(".title { color: \"red\"; }\n")
	require.NoError(t, err)
	require.Contains(t, src, `style.textContent = ".title { color: \"red\"; }\n";`)
	require.Contains(t, src, "document.head.appendChild(style)")
}

func TestFilterFor(t *testing.T) {
	p := newPipeline(t, "production", "javascript")
	require.Equal(t, `(?:\.(png|svg|jpg|gif)$)|(?:\.(woff|woff2|eot|ttf|svg)$)`, filterFor(p.rules, ruleAsset))
	require.Equal(t, `(?:\.scss$)`, filterFor(p.rules, ruleStyle))
	require.Empty(t, filterFor(nil, ruleAsset))
}
