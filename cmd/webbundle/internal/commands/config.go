package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/wolfeidau/webbundle/internal/assets"
	"github.com/wolfeidau/webbundle/internal/pipeline"
	"gopkg.in/yaml.v3"
)

type ConfigCmd struct {
	Targets []string `arg:"" optional:"" help:"Targets to print. Defaults to all of them."`
}

func (c *ConfigCmd) Run(ctx context.Context, globals *Globals) error {
	settings, err := globals.Settings()
	if err != nil {
		return err
	}

	targets, err := assets.NewTargets(settings.Env())
	if err != nil {
		return fmt.Errorf("failed to assemble targets: %w", err)
	}

	cfgs := targets.All()
	if len(c.Targets) > 0 {
		cfgs = cfgs[:0:0]
		for _, name := range c.Targets {
			cfg, err := targets.Lookup(name)
			if err != nil {
				return err
			}
			cfgs = append(cfgs, cfg)
		}
	}

	return printConfigs(os.Stdout, cfgs)
}

func printConfigs(w io.Writer, cfgs []pipeline.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, cfg := range cfgs {
		if err := enc.Encode(cfg); err != nil {
			return fmt.Errorf("failed to encode %s: %w", cfg.Name, err)
		}
	}
	return enc.Close()
}
