package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/TFMV/InstitutionMatchPro/internal/registry"
	"github.com/TFMV/InstitutionMatchPro/pkg/config"
	"github.com/TFMV/InstitutionMatchPro/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries what every subcommand shares once the root flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "instmatch",
		Short:         "Match defibrillator installations to mandated institutions and find duplicate institutions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", os.Getenv("CONFIG_PATH"), "path to the YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newGroupCmd(a),
		newMatchCmd(a),
		newNormalizeCmd(a),
		newLoadCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.LoadConfig(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := utils.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger
	return nil
}

// engine builds the matching engine from the rules file or the built-in rules.
func (a *app) engine(ctx context.Context) (*registry.Engine, error) {
	names, addresses, err := registry.ResolveRules(ctx, a.cfg.RulesFile, nil)
	if err != nil {
		return nil, err
	}
	return registry.NewEngine(names, addresses, registry.EngineConfig{
		CacheTTL:      a.cfg.Cache.TTL,
		CacheCapacity: a.cfg.Cache.Capacity,
		ShortlistSize: a.cfg.Matching.ShortlistSize,
	}, a.logger)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
