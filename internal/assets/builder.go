package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/evanw/esbuild/pkg/api"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbundle/internal/pipeline"
)

// Builder turns build configurations into esbuild builds and keeps the
// metadata of the last build of every target.
type Builder struct {
	config   Config
	metadata map[string]*BuildMetadata
	mu       sync.RWMutex
}

// New creates a builder with the given configuration
func New(config Config) *Builder {
	return &Builder{
		config:   config,
		metadata: make(map[string]*BuildMetadata),
	}
}

// Options converts cfg into esbuild build options. Steps are applied last
// so they can override the defaults.
func (b *Builder) Options(cfg pipeline.Config) (api.BuildOptions, error) {
	wd, err := b.workingDir()
	if err != nil {
		return api.BuildOptions{}, err
	}

	opts := api.BuildOptions{
		Bundle:        true,
		Write:         b.config.Write,
		AbsWorkingDir: wd,
		Outfile:       filepath.Join(b.outputDir(wd), cfg.Name+".js"),
		Target:        api.ES2015,
		TreeShaking:   api.TreeShakingTrue,
		Sourcemap:     sourceMap(cfg.SourceMap),
		Metafile:      true,
		LogLevel:      api.LogLevelSilent,
	}
	if cfg.Entry != "" {
		opts.EntryPoints = []string{cfg.Entry}
	}

	switch cfg.Format {
	case pipeline.FormatDefault:
	case pipeline.FormatUMD, pipeline.FormatIIFE:
		opts.Format = api.FormatIIFE
		opts.GlobalName = cfg.Name
	case pipeline.FormatCJS:
		opts.Format = api.FormatCommonJS
	case pipeline.FormatESM:
		opts.Format = api.FormatESModule
	default:
		return api.BuildOptions{}, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}

	if cfg.Context != "" {
		opts.Define = map[string]string{"this": cfg.Context}
	}

	cfg.Steps.Apply(&opts)
	return opts, nil
}

// Build runs esbuild for cfg, writes the metafile next to the outputs and
// records the metadata for Scripts.
func (b *Builder) Build(ctx context.Context, cfg pipeline.Config) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cfg.Entry == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoEntry, cfg.Name)
	}

	opts, err := b.Options(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure %s: %w", cfg.Name, err)
	}

	log.Info().Str("target", cfg.Name).Str("entry", cfg.Entry).Strs("steps", cfg.Steps.Names()).Msg("Building target")
	started := time.Now()

	bctx, cerr := api.Context(opts)
	if cerr != nil {
		logMessages(cfg.Name, cerr.Errors)
		return nil, fmt.Errorf("%w: %s", ErrBuildFailed, cfg.Name)
	}
	defer bctx.Dispose()

	stop := context.AfterFunc(ctx, bctx.Cancel)
	defer stop()

	result := bctx.Rebuild()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(result.Errors) > 0 {
		logMessages(cfg.Name, result.Errors)
		return nil, fmt.Errorf("%w: %s: %d errors", ErrBuildFailed, cfg.Name, len(result.Errors))
	}

	res := &Result{Target: cfg.Name, Duration: time.Since(started)}
	for _, msg := range result.Warnings {
		log.Warn().Str("target", cfg.Name).Str("location", location(msg)).Str("warning", msg.Text).Msg("Build warning")
		res.Warnings = append(res.Warnings, msg.Text)
	}

	for _, file := range result.OutputFiles {
		out := OutputFile{Path: file.Path, Size: len(file.Contents)}
		if b.config.GzipSizes {
			if out.GzipSize, err = gzipSize(file.Contents); err != nil {
				return nil, fmt.Errorf("failed to compress %s: %w", file.Path, err)
			}
		}
		log.Info().
			Str("file", file.Path).
			Str("size", humanize.Bytes(uint64(out.Size))).
			Str("gzip", humanize.Bytes(uint64(out.GzipSize))).
			Msg("Built file")
		res.Outputs = append(res.Outputs, out)
	}

	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metafile: %w", err)
	}

	if b.config.Write {
		res.Metafile = filepath.Join(filepath.Dir(opts.Outfile), cfg.Name+".meta.json")
		if err := os.WriteFile(res.Metafile, []byte(result.Metafile), 0600); err != nil {
			return nil, fmt.Errorf("failed to write metafile: %w", err)
		}
	}

	b.mu.Lock()
	b.metadata[cfg.Name] = &metadata
	b.mu.Unlock()

	log.Info().Str("target", cfg.Name).Dur("duration", res.Duration).Int("outputs", len(res.Outputs)).Msg("Built target")
	return res, nil
}

// Metadata returns the metadata of the last successful build of target.
func (b *Builder) Metadata(target string) (*BuildMetadata, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	md, ok := b.metadata[target]
	return md, ok
}

// Scripts returns the ordered list of output paths needed to load the
// target's entry point, the entry bundle first followed by the chunks it
// imports. Paths are relative to the working directory with a leading
// slash.
func (b *Builder) Scripts(target string) ([]string, error) {
	md, ok := b.Metadata(target)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotBuilt, target)
	}

	for outputPath, info := range md.Outputs {
		if info.EntryPoint == "" {
			continue
		}
		scripts := []string{"/" + outputPath}
		visited := map[string]bool{outputPath: true}
		addDependencies(md, info, &scripts, visited)
		return scripts, nil
	}

	return nil, fmt.Errorf("%w: %s has no entry output", ErrNotBuilt, target)
}

func addDependencies(md *BuildMetadata, output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if visited[imp.Path] {
			continue
		}
		chunk, exists := md.Outputs[imp.Path]
		if !exists {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, "/"+imp.Path)
		addDependencies(md, chunk, scripts, visited)
	}
}

func (b *Builder) workingDir() (string, error) {
	if b.config.WorkingDir != "" {
		return filepath.Abs(b.config.WorkingDir)
	}
	return os.Getwd()
}

func (b *Builder) outputDir(wd string) string {
	dir := cond(b.config.OutputDir != "", b.config.OutputDir, "dist")
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(wd, dir)
}

func sourceMap(sm pipeline.SourceMap) api.SourceMap {
	switch sm {
	case pipeline.SourceMapInline:
		return api.SourceMapInline
	case pipeline.SourceMapTrue:
		return api.SourceMapLinked
	default:
		return api.SourceMapNone
	}
}

func logMessages(target string, msgs []api.Message) {
	for _, msg := range msgs {
		log.Error().Str("target", target).Str("location", location(msg)).Str("error", msg.Text).Msg("Build error")
	}
}

func location(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", msg.Location.File, msg.Location.Line, msg.Location.Column)
}

func gzipSize(contents []byte) (int, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return 0, err
	}
	if _, err := zw.Write(contents); err != nil {
		return 0, err
	}
	if err := zw.Close(); err != nil {
		return 0, err
	}
	return buf.Len(), nil
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
