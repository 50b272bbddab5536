package manifest

// Disposition is what happens to a matched asset file.
type Disposition int

const (
	// Emit writes the asset as a separate hashed file.
	Emit Disposition = iota
	// Inline embeds the asset as a data URI.
	Inline
)

func (d Disposition) String() string {
	if d == Inline {
		return "inline"
	}
	return "emit"
}

// DispositionFor applies the url-loader rule: strictly below limit is inlined.
func DispositionFor(size, limit int64) Disposition {
	if size < limit {
		return Inline
	}
	return Emit
}

// InlineLimit returns the url-loader limit of the rule, if it has one.
func (r TransformRule) InlineLimit() (int64, bool) {
	for _, p := range r.Use {
		if p.Loader != LoaderURL {
			continue
		}
		switch v := p.Options["limit"].(type) {
		case int64:
			return v, true
		case int:
			return int64(v), true
		case float64:
			return int64(v), true
		}
	}
	return 0, false
}

// AssetName returns the url-loader output name template of the rule.
func (r TransformRule) AssetName() string {
	for _, p := range r.Use {
		if p.Loader == LoaderURL {
			name, _ := p.Options["name"].(string)
			return name
		}
	}
	return ""
}
