package main

import (
	"strings"
	"time"

	"github.com/TFMV/InstitutionMatchPro/internal/matcher"
	"github.com/TFMV/InstitutionMatchPro/internal/registry"
	"github.com/TFMV/InstitutionMatchPro/pkg/db"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newGroupCmd(a *app) *cobra.Command {
	var (
		targetsPath string
		threshold   float64
		keepOrder   bool
	)
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Find duplicate target institutions in a CSV file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("threshold") {
				threshold = a.cfg.Grouping.Threshold
			}
			targets, err := readTargets(targetsPath)
			if err != nil {
				return err
			}
			if err := checkTargetLimit(len(targets), a.cfg.Limits.MaxTargets); err != nil {
				return err
			}
			if !keepOrder {
				matcher.SortInstitutions(targets)
			}

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			result, err := engine.Grouper.Group(targets, threshold)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), registry.RegionGroups{
				Result: result,
				Stats:  matcher.GroupStats(result.Groups, result.Ungrouped),
			})
		},
	}
	cmd.Flags().StringVar(&targetsPath, "targets", "", "CSV file of target institutions")
	cmd.Flags().Float64Var(&threshold, "threshold", matcher.DefaultThreshold, "similarity needed to join a group (0-1); defaults to grouping.threshold from the config")
	cmd.Flags().BoolVar(&keepOrder, "keep-order", false, "group in file order instead of sorting by name, province and district")
	_ = cmd.MarkFlagRequired("targets")
	return cmd
}

func checkTargetLimit(n, limit int) error {
	if limit > 0 && n > limit {
		return errors.Errorf("%d targets exceed the limit of %d", n, limit)
	}
	return nil
}

func newMatchCmd(a *app) *cobra.Command {
	var (
		targetsPath   string
		equipmentPath string
		tier          string
	)
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Rank installed equipment for every target institution",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter matcher.Tier
			if tier != "" {
				t, ok := matcher.ParseTier(tier)
				if !ok {
					return errors.Errorf("unknown tier %q", tier)
				}
				filter = t
			}

			targets, err := readTargets(targetsPath)
			if err != nil {
				return err
			}
			equipment, err := readEquipment(equipmentPath)
			if err != nil {
				return err
			}
			if err := checkTargetLimit(len(targets), a.cfg.Limits.MaxTargets); err != nil {
				return err
			}

			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			report, err := engine.Matcher.MatchAll(targets, registry.RegionCandidates(equipment), nil)
			if err != nil {
				return err
			}
			if filter != "" {
				report.Matches = matcher.FilterByTier(report.Matches, filter)
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&targetsPath, "targets", "", "CSV file of target institutions")
	cmd.Flags().StringVar(&equipmentPath, "equipment", "", "CSV file of installed equipment")
	cmd.Flags().StringVar(&tier, "tier", "", "only print targets in this tier (high, medium, low, unmatched)")
	_ = cmd.MarkFlagRequired("targets")
	_ = cmd.MarkFlagRequired("equipment")
	return cmd
}

func newNormalizeCmd(a *app) *cobra.Command {
	var address bool
	cmd := &cobra.Command{
		Use:   "normalize <text>",
		Short: "Print the normalized form of an institution name or address",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := a.engine(cmd.Context())
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			if address {
				return writeJSON(cmd.OutOrStdout(), engine.Addresses.Normalize(text))
			}
			return writeJSON(cmd.OutOrStdout(), engine.Names.Normalize(text))
		},
	}
	cmd.Flags().BoolVar(&address, "address", false, "normalize as an address")
	return cmd
}

func newLoadCmd(a *app) *cobra.Command {
	var (
		csvPath string
		table   string
		migrate bool
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Copy a CSV file into a Postgres table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()
			pool, err := db.NewConnection(cmd.Context(), a.cfg.ConnString())
			if err != nil {
				return err
			}
			defer pool.Close()

			if migrate {
				if err := db.Migrate(cmd.Context(), pool); err != nil {
					return err
				}
			}
			count, err := db.LoadCSV(cmd.Context(), pool, csvPath, table)
			if err != nil {
				return err
			}
			a.logger.Info("copied rows",
				zap.Int64("rows", count),
				zap.String("table", table),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file with a header row")
	cmd.Flags().StringVar(&table, "table", "", "destination table")
	cmd.Flags().BoolVar(&migrate, "migrate", true, "create the registry tables first")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
