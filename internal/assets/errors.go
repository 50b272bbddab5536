package assets

import "errors"

var (
	// ErrNoEntryPoints indicates the manifest declares no entry points
	ErrNoEntryPoints = errors.New("no entry points found")
	// ErrBuildFailed indicates esbuild reported errors
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates metadata was requested before a build completed
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryNotFound indicates the entry point is missing from the build metadata
	ErrEntryNotFound = errors.New("entrypoint not found in metadata")
)
