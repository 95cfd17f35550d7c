package assets

import "time"

// BuildMetadata is the subset of the esbuild metafile used to report and
// locate outputs.
type BuildMetadata struct {
	Inputs  map[string]InputInfo  `json:"inputs"`
	Outputs map[string]OutputInfo `json:"outputs"`
}

type InputInfo struct {
	Bytes int `json:"bytes"`
}

type OutputInfo struct {
	Bytes      int          `json:"bytes"`
	EntryPoint string       `json:"entryPoint"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// OutputFile describes one file produced by a build.
type OutputFile struct {
	Path     string `json:"path" yaml:"path"`
	Size     int    `json:"size" yaml:"size"`
	GzipSize int    `json:"gzipSize,omitempty" yaml:"gzipSize,omitempty"`
}

// Result summarises a single target build.
type Result struct {
	Target   string        `json:"target" yaml:"target"`
	Outputs  []OutputFile  `json:"outputs" yaml:"outputs"`
	Warnings []string      `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Metafile string        `json:"metafile,omitempty" yaml:"metafile,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}
