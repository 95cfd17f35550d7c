package commands

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/webbundle/internal/assets"
	"github.com/wolfeidau/webbundle/internal/logger"
	"github.com/wolfeidau/webbundle/internal/pipeline"
)

type WatchCmd struct {
	Targets  []string      `arg:"" optional:"" help:"Targets to rebuild. Defaults to app, vendor and polyfills."`
	Entry    string        `help:"Entry point for the test target."`
	Debounce time.Duration `help:"Quiet period before rebuilding after a change." default:"200ms"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	logger.Install(globals.Debug, map[string]any{"session_id": uuid.NewString()})

	settings, err := globals.Settings()
	if err != nil {
		return err
	}

	targets, err := assets.NewTargets(settings.Env())
	if err != nil {
		return fmt.Errorf("failed to assemble targets: %w", err)
	}

	cfgs, err := selectTargets(targets, w.Targets, w.Entry)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	root := settings.path(cmp.Or(settings.SourceRoot, "src"))
	dirs, err := watchDirs(root)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	builder := assets.New(settings.BuilderConfig())
	rebuild(ctx, builder, cfgs)

	log.Info().Str("root", root).Int("dirs", len(dirs)).Msg("Watching for changes")

	var (
		timer   *time.Timer
		pending <-chan time.Time
		changed []string
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !skipDir(info.Name()) {
					if err := watcher.Add(event.Name); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch directory")
					}
				}
			}
			changed = append(changed, event.Name)
			if timer == nil {
				timer = time.NewTimer(w.Debounce)
			} else {
				timer.Reset(w.Debounce)
			}
			pending = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		case <-pending:
			pending = nil
			log.Info().Strs("files", changed).Msg("Sources changed")
			changed = nil
			rebuild(ctx, builder, cfgs)
		}
	}
}

// rebuild builds every target in turn. Failures are logged so the watch
// loop keeps running.
func rebuild(ctx context.Context, builder *assets.Builder, cfgs []pipeline.Config) {
	for _, cfg := range cfgs {
		if _, err := builder.Build(ctx, cfg); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			log.Error().Err(err).Str("target", cfg.Name).Msg("Rebuild failed")
		}
	}
}

// watchDirs lists root and every directory below it that should be watched.
func watchDirs(root string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(d.Name()) {
			return filepath.SkipDir
		}
		dirs = append(dirs, path)
		return nil
	})
	return dirs, err
}

func skipDir(name string) bool {
	return name == "node_modules" || strings.HasPrefix(name, ".")
}

func relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}
	base := filepath.Base(event.Name)
	return !strings.HasPrefix(base, ".") && !strings.HasSuffix(base, "~")
}
