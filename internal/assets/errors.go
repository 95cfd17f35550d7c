package assets

import "errors"

var (
	// ErrNoEntry is returned when a target without an entry point is built.
	ErrNoEntry = errors.New("target has no entry point")

	// ErrBuildFailed is returned when esbuild reports errors.
	ErrBuildFailed = errors.New("esbuild failed with errors")

	// ErrUnknownTarget is returned when a target name is not defined.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrUnknownFormat is returned for an unsupported output format.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrNotBuilt is returned when outputs are requested before a build.
	ErrNotBuilt = errors.New("target not built yet")
)
