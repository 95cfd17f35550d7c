package commands

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbundle/internal/assets"
	"github.com/wolfeidau/webbundle/internal/logger"
	"golang.org/x/sync/errgroup"
)

type BuildCmd struct {
	Targets    []string `arg:"" optional:"" help:"Targets to build (test, app, vendor, polyfills). Defaults to app, vendor and polyfills."`
	Jobs       int      `help:"Maximum number of targets built in parallel." default:"2" env:"WEBBUNDLE_JOBS"`
	CSSExports string   `help:"Write the scoped CSS class names of the app stylesheets to this JSON file." name:"css-exports"`
	Entry      string   `help:"Entry point for the test target."`
	Scripts    string   `help:"Write the ordered script paths each target loads to this JSON file."`
	Summary    bool     `help:"Print a table of the built files." default:"true" negatable:""`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Install(globals.Debug, map[string]any{"build_id": uuid.NewString()})

	settings, err := globals.Settings()
	if err != nil {
		return err
	}

	log.Info().Str("version", globals.Version).Str("mode", settings.Env().Mode.String()).Msg("Starting build")

	targets, err := assets.NewTargets(settings.Env())
	if err != nil {
		return fmt.Errorf("failed to assemble targets: %w", err)
	}

	cfgs, err := selectTargets(targets, b.Targets, b.Entry)
	if err != nil {
		return err
	}

	started := time.Now()
	builder := assets.New(settings.BuilderConfig())
	results := make([]*assets.Result, len(cfgs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.Jobs, 1))
	for i, cfg := range cfgs {
		g.Go(func() error {
			res, err := builder.Build(gctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to build %s: %w", cfg.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total uint64
	for _, res := range results {
		for _, out := range res.Outputs {
			total += uint64(out.Size)
		}
	}
	log.Info().
		Int("targets", len(results)).
		Str("size", humanize.Bytes(total)).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	scripts := make(map[string][]string, len(results))
	for _, res := range results {
		if scripts[res.Target], err = builder.Scripts(res.Target); err != nil {
			return err
		}
	}

	if b.Summary {
		printSummary(os.Stdout, results, scripts)
	}

	if path := cmp.Or(b.CSSExports, settings.CSSExports); path != "" {
		if err := writeJSON(settings.path(path), targets.Exports); err != nil {
			return fmt.Errorf("failed to write css exports: %w", err)
		}
		log.Info().Str("file", path).Int("stylesheets", len(targets.Exports.IDs())).Msg("Wrote css exports")
	}

	if b.Scripts != "" {
		if err := writeJSON(settings.path(b.Scripts), scripts); err != nil {
			return fmt.Errorf("failed to write scripts: %w", err)
		}
		log.Info().Str("file", b.Scripts).Int("targets", len(scripts)).Msg("Wrote scripts")
	}

	return nil
}

// printSummary renders the built files followed by the script load order
// of every target.
func printSummary(w io.Writer, results []*assets.Result, scripts map[string][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Target", "File", "Size", "Gzip"})
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)

	for _, res := range results {
		for _, out := range res.Outputs {
			gz := "-"
			if out.GzipSize > 0 {
				gz = humanize.Bytes(uint64(out.GzipSize))
			}
			table.Append([]string{res.Target, out.Path, humanize.Bytes(uint64(out.Size)), gz})
		}
	}
	table.Render()

	for _, res := range results {
		if paths := scripts[res.Target]; len(paths) > 0 {
			fmt.Fprintf(w, "%s loads %s\n", res.Target, strings.Join(paths, ", "))
		}
	}
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}
