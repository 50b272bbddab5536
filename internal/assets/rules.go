package assets

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/bundlekit/internal/manifest"
)

// knownExtensions are the file types a rule test is checked against when
// deriving esbuild loaders.
var knownExtensions = []string{
	".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx", ".json",
	".css", ".scss",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".webp", ".ico",
	".woff", ".woff2", ".eot", ".ttf", ".otf",
}

type ruleKind int

const (
	ruleScript ruleKind = iota
	ruleStyle
	ruleAsset
	ruleOther
)

type compiledRule struct {
	manifest.TransformRule
	re   *regexp.Regexp
	kind ruleKind
}

// compileRules compiles rule tests and anchors relative include paths at root.
func compileRules(rules []manifest.TransformRule, root string) ([]compiledRule, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		re, err := regexp.Compile(r.Test)
		if err != nil {
			return nil, fmt.Errorf("invalid rule test %q: %w", r.Test, err)
		}
		include := make([]string, 0, len(r.Include))
		for _, inc := range r.Include {
			if !filepath.IsAbs(inc) {
				inc = filepath.Join(root, inc)
			}
			include = append(include, inc)
		}
		r.Include = include
		compiled = append(compiled, compiledRule{TransformRule: r, re: re, kind: kindOf(r)})
	}
	return compiled, nil
}

func kindOf(r manifest.TransformRule) ruleKind {
	switch {
	case r.HasLoader(manifest.LoaderURL):
		return ruleAsset
	case r.HasLoader(manifest.LoaderCSS):
		return ruleStyle
	case r.HasLoader(manifest.LoaderBabel), r.HasLoader(manifest.LoaderTS):
		return ruleScript
	default:
		return ruleOther
	}
}

// applies reports whether the rule governs path, honouring include and exclude.
func (r compiledRule) applies(path string) bool {
	if !r.re.MatchString(path) {
		return false
	}
	for _, exc := range r.Exclude {
		if strings.Contains(filepath.ToSlash(path), exc) {
			return false
		}
	}
	if len(r.Include) == 0 {
		return true
	}
	for _, inc := range r.Include {
		if strings.HasPrefix(path, inc) {
			return true
		}
	}
	return false
}

func (r compiledRule) extensions() []string {
	var exts []string
	for _, ext := range knownExtensions {
		if r.re.MatchString("file" + ext) {
			exts = append(exts, ext)
		}
	}
	return exts
}

// firstApplicable returns the first rule of kind that governs path.
func firstApplicable(rules []compiledRule, kind ruleKind, path string) (compiledRule, bool) {
	for _, r := range rules {
		if r.kind == kind && r.applies(path) {
			return r, true
		}
	}
	return compiledRule{}, false
}

// loaderFor picks the esbuild loader standing in for the rule's processor chain.
func loaderFor(r compiledRule, ext string) api.Loader {
	switch r.kind {
	case ruleScript:
		switch ext {
		case ".ts":
			return api.LoaderTS
		case ".tsx":
			return api.LoaderTSX
		case ".json":
			return api.LoaderJSON
		default:
			return api.LoaderJSX
		}
	case ruleStyle:
		for _, p := range r.Use {
			if p.Loader == manifest.LoaderCSS && p.Options["modules"] == true {
				return api.LoaderLocalCSS
			}
		}
		return api.LoaderCSS
	case ruleAsset:
		return api.LoaderFile
	default:
		return api.LoaderDefault
	}
}

func filterFor(rules []compiledRule, kind ruleKind) string {
	var tests []string
	for _, r := range rules {
		if r.kind == kind {
			tests = append(tests, "(?:"+r.Test+")")
		}
	}
	return strings.Join(tests, "|")
}
