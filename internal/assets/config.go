package assets

type Config struct {
	// Output directory for bundles and metafiles
	OutputDir string
	// Directory relative entry points and step globs are resolved against,
	// defaults to the process working directory
	WorkingDir string
	// Whether to write outputs to disk
	Write bool
	// Whether to compute gzip sizes of the outputs
	GzipSizes bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		OutputDir: "dist",
		Write:     true,
		GzipSizes: true,
	}
}
