package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"fondo/internal/config"
	"fondo/internal/core"
	"fondo/internal/engine"
	"fondo/internal/log"
	"fondo/internal/render"
)

type summaryOptions struct {
	profile string
	filters map[core.Field]*string
	search  string
}

// summaryFlags maps command line flags to the fields they restrict.
var summaryFlags = []struct {
	name  string
	field core.Field
	usage string
}{
	{"macro-sector", core.FieldMacroSector, "restrict to one macro sector"},
	{"subject-type", core.FieldSubjectType, "restrict to one subject type"},
	{"region", core.FieldRegion, "restrict to one region"},
	{"province", core.FieldProvince, "restrict to one province (rich profile)"},
	{"year", core.FieldYear, "restrict to one year"},
}

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &summaryOptions{filters: make(map[core.Field]*string)}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard figures for a selection",
		Long: `Load the dataset, apply the given filters and print the KPIs and every
aggregation of the profile. TUTTI and TUTTE are accepted as "any".`,
		Example: `  fondo summary --region Puglia
  fondo summary --macro-sector Cultura --year 2026 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(cmd.Context(), rootOpts, opts, cmd)
		},
	}

	for _, f := range summaryFlags {
		opts.filters[f.field] = cmd.Flags().String(f.name, "", f.usage)
	}
	cmd.Flags().StringVar(&opts.search, "search", "", "case-insensitive text search")
	cmd.Flags().StringVar(&opts.profile, "profile", "", "dashboard profile (overrides PROFILE)")

	return cmd
}

// criteria builds the selection, refusing filters the profile does not offer.
func (o *summaryOptions) criteria(p engine.Profile) (engine.Criteria, error) {
	c := engine.Criteria{Search: o.search}
	for _, f := range summaryFlags {
		v := *o.filters[f.field]
		if engine.IsAny(v) {
			continue
		}
		if !p.HasFilter(f.field) {
			return engine.Criteria{}, NewExitError(ExitCommandError,
				fmt.Sprintf("profile %s has no --%s filter", p.Name, f.name))
		}
		c = c.With(f.field, v)
	}
	return c, nil
}

func runSummary(ctx context.Context, rootOpts *RootOptions, opts *summaryOptions, cmd *cobra.Command) error {
	cfg := config.Load()
	if opts.profile != "" {
		cfg.Profile = opts.profile
		cfg.ProfileFile = ""
	}

	logger, err := SetupLogger(cfg, cmd.ErrOrStderr(), rootOpts.Verbose)
	if err != nil {
		return err
	}
	logger = logger.WithComponent(log.ComponentCLI)

	profile, err := LoadProfile(cfg)
	if err != nil {
		return err
	}
	c, err := opts.criteria(profile)
	if err != nil {
		return err
	}

	store, cleanup, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeQuietly(logger, cleanup)

	ds, err := loadDataset(ctx, store)
	if err != nil {
		return err
	}

	start := time.Now()
	sum := engine.Summarize(ds, c, profile)
	logger.Debug("Summary computed",
		log.FieldOperation, log.OpSummary,
		log.FieldCriteria, render.DescribeCriteria(sum.Criteria),
		log.FieldRecords, sum.View.Len(),
		log.FieldTotal, sum.KPIs.Total.String(),
		log.FieldDuration, time.Since(start).Milliseconds())

	return writeSummary(cmd.OutOrStdout(), rootOpts.Format, sum)
}

func writeSummary(w io.Writer, format string, sum engine.Summary) error {
	var err error
	if format == "json" {
		err = render.JSON(w, render.NewSummaryDoc(sum))
	} else {
		err = render.Text(w, sum)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "write summary", err)
	}
	return nil
}
