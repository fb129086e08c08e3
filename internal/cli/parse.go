package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rec-schedule/internal/filter"
	"github.com/pfrederiksen/rec-schedule/internal/logger"
	"github.com/pfrederiksen/rec-schedule/internal/scraper"
)

// filterFlags are the event selection flags shared by parse, show and ics
type filterFlags struct {
	classes       []string
	instructors   []string
	locations     []string
	categories    []string
	dates         string
	after         string
	before        string
	weekends      bool
	hideCancelled bool
	signupOnly    bool
	upcoming      bool
	sort          string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVar(&f.classes, "class", nil, "Only classes whose name contains this text (repeatable)")
	flags.StringSliceVar(&f.instructors, "instructor", nil, "Only classes taught by this instructor (repeatable)")
	flags.StringSliceVar(&f.locations, "location", nil, "Only classes at this location (repeatable)")
	flags.StringSliceVar(&f.categories, "category", nil, "Only classes in this category code, e.g. AQ (repeatable)")
	flags.StringVar(&f.dates, "dates", "", "Date range: 'Jun 1-7', 'June 28 - July 4', 'June' or '2026-06-01..2026-06-07'")
	flags.StringVar(&f.after, "after", "", "Only classes starting at or after this time, e.g. 6:00am")
	flags.StringVar(&f.before, "before", "", "Only classes starting at or before this time, e.g. 9:00am")
	flags.BoolVar(&f.weekends, "weekends", false, "Only Saturday and Sunday")
	flags.BoolVar(&f.hideCancelled, "hide-cancelled", false, "Leave out cancelled classes")
	flags.BoolVar(&f.signupOnly, "signup-only", false, "Only classes that need a sign-up")
	flags.BoolVar(&f.upcoming, "upcoming", false, "Leave out days that are already over")
	flags.StringVar(&f.sort, "sort", "", "Sort classes within a day: time, class, location or instructor")
}

// build converts the flags into a filter. now anchors year inference for --dates.
func (f *filterFlags) build(now time.Time) (*filter.Filter, error) {
	flt := filter.NewFilter()
	if f.classes != nil {
		flt.Classes = f.classes
	}
	if f.instructors != nil {
		flt.Instructors = f.instructors
	}
	if f.locations != nil {
		flt.Locations = f.locations
	}
	if f.categories != nil {
		flt.Categories = f.categories
	}
	flt.StartAfter = f.after
	flt.StartBefore = f.before
	flt.WeekendsOnly = f.weekends
	flt.HideCancelled = f.hideCancelled
	flt.SignupOnly = f.signupOnly
	if f.upcoming {
		flt.UpcomingFrom = &now
	}

	if f.dates != "" {
		from, to, err := filter.ParseDateRange(f.dates, now)
		if err != nil {
			return nil, err
		}
		flt.DateFrom, flt.DateTo = from, to
	}

	if err := flt.Validate(); err != nil {
		return nil, err
	}
	if f.sort != "" && !validSortOrder(SortOrder(f.sort)) {
		return nil, fmt.Errorf("invalid sort order: %s (must be 'time', 'class', 'location' or 'instructor')", f.sort)
	}

	return flt, nil
}

func newParseCmd(a *app) *cobra.Command {
	var (
		skip      int
		reference string
		save      bool
		filters   filterFlags
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse saved schedule text or HTML into days",
		Long: `Parse a saved schedule (plain-text export or saved HTML page) into per-day records.
Reads stdin when the file is "-" or omitted. With --save the days are merged into
the document store and the manifests are rebuilt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			flt, err := filters.build(a.now())
			if err != nil {
				return err
			}

			p, err := a.newParser(skip, reference)
			if err != nil {
				return err
			}

			path, reader := readInput(cmd, args)
			capture, err := (&scraper.FileSource{Path: path, Reader: reader}).Capture(ctx)
			if err != nil {
				return err
			}

			result, err := p.ParseViews(capture.Texts())
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			logger.Debug("Parsed input", logger.Fields{
				"source": capture.Views[0].Label,
				"days":   len(result.Days),
				"events": result.EventCount(),
			})

			out := &ScheduleOutput{
				GeneratedAt: a.now().UTC(),
				Skipped:     result.Skipped,
			}

			if save {
				agg, err := a.newAggregator(ctx)
				if err != nil {
					return err
				}
				merged, err := agg.Merge(ctx, result.Days)
				if err != nil {
					return fmt.Errorf("saving days: %w", err)
				}
				out.Changes = merged.Changes
				out.Saved = merged.Keys
			}

			days := flt.Apply(result.Days)
			sortDays(days, SortOrder(filters.sort))
			out.setDays(days)
			if !flt.IsEmpty() {
				out.Filter = flt.String()
			}

			return WriteSchedule(cmd.OutOrStdout(), out, a.outputFormat(), a.verbose)
		},
	}

	cmd.Flags().IntVar(&skip, "skip", -1, "Ignore day headers above this line (overrides config parser.skip_lines)")
	cmd.Flags().StringVar(&reference, "reference-date", "", "Date (YYYY-MM-DD) used to infer years of headers without one")
	cmd.Flags().BoolVar(&save, "save", false, "Merge parsed days into the store and rebuild manifests")
	filters.register(cmd)

	return cmd
}
