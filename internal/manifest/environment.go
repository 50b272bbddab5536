package manifest

import (
	"fmt"
	"strings"
)

// Environment is the build target mode.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
)

// ParseEnvironment maps a flag or env var value onto an Environment.
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production, nil
	case "development", "dev":
		return Development, nil
	default:
		return "", &ConfigurationError{Field: "environment", Value: s}
	}
}

func (e Environment) IsProduction() bool {
	return e == Production
}

// LanguageMode selects the script toolchain, independent of Environment.
type LanguageMode string

const (
	JavaScript LanguageMode = "javascript"
	TypeScript LanguageMode = "typescript"
)

func ParseLanguageMode(s string) (LanguageMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js":
		return JavaScript, nil
	case "typescript", "ts":
		return TypeScript, nil
	default:
		return "", &ConfigurationError{Field: "language", Value: s}
	}
}

// ConfigurationError reports an input the builder does not recognise.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s %q", e.Field, e.Value)
}
