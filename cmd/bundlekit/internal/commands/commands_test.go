package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

func TestTargetFlags_Manifest(t *testing.T) {
	root := t.TempDir()

	flags := &TargetFlags{Env: "prod", Lang: "ts", Root: root}
	m, opts, err := flags.Manifest()
	require.NoError(t, err)
	require.Equal(t, manifest.Production, m.Mode)
	require.Equal(t, manifest.TypeScript, opts.Language)
	require.Equal(t, filepath.Join(root, "dist"), m.Output.Path)
}

func TestTargetFlags_rejectsUnknownValues(t *testing.T) {
	tests := []struct {
		name  string
		flags TargetFlags
		field string
	}{
		{name: "staging", flags: TargetFlags{Env: "staging", Lang: "javascript", Root: "."}, field: "environment"},
		{name: "language", flags: TargetFlags{Env: "production", Lang: "coffee", Root: "."}, field: "language"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, err := tt.flags.Manifest()
			require.Nil(t, m)

			var cfgErr *manifest.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestOutputFlags_write(t *testing.T) {
	m := manifest.BuildVendor(manifest.Options{Root: "/srv/app"})

	var stdout bytes.Buffer
	require.NoError(t, (&OutputFlags{Format: "yaml"}).write(&stdout, m))
	require.Contains(t, stdout.String(), "[name].dll.js")
	require.Contains(t, stdout.String(), "- react-dom")

	out := filepath.Join(t.TempDir(), "vendor.json")
	require.NoError(t, (&OutputFlags{Format: "json", Out: out}).write(&stdout, m))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(data), `"library": "[name]"`)
}

func TestDescribe(t *testing.T) {
	m, err := manifest.Build(manifest.Production, manifest.Options{Root: "/srv/app"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, describe(&buf, m))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "mode: production  devtool: source-map"))
	require.Contains(t, out, "babel-loader")
	require.Contains(t, out, "< 100000 bytes")
	require.Contains(t, out, "uglify-js")
	require.Contains(t, out, "extract-text")
}

func TestDescribeCmd_run(t *testing.T) {
	cmd := &DescribeCmd{TargetFlags: TargetFlags{Env: "development", Lang: "javascript", Root: t.TempDir()}}

	var buf bytes.Buffer
	require.NoError(t, cmd.run(&buf, &Globals{Debug: true}))
	require.True(t, strings.HasPrefix(buf.String(), "mode: development"))
	require.NotContains(t, buf.String(), "Describing manifest")

	cmd.Env = "staging"
	var cfgErr *manifest.ConfigurationError
	require.ErrorAs(t, cmd.run(&buf, &Globals{}), &cfgErr)
}

func TestFormatOptions(t *testing.T) {
	require.Equal(t, "allChunks=true filename=./css/[name]-[hash].css", formatOptions(map[string]any{
		"filename":  "./css/[name]-[hash].css",
		"allChunks": true,
	}))
	require.Empty(t, formatOptions(nil))
}
