package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rec-schedule/internal/calendar"
	"github.com/pfrederiksen/rec-schedule/internal/event"
	"github.com/pfrederiksen/rec-schedule/internal/storage"
)

func newShowCmd(a *app) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show stored days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			flt, err := filters.build(a.now())
			if err != nil {
				return err
			}

			agg, err := a.newAggregator(ctx)
			if err != nil {
				return err
			}
			days, err := agg.Days(ctx)
			if err != nil {
				return fmt.Errorf("loading days: %w", err)
			}

			days = flt.Apply(days)
			sortDays(days, SortOrder(filters.sort))

			out := &ScheduleOutput{GeneratedAt: a.now().UTC()}
			out.setDays(days)
			if !flt.IsEmpty() {
				out.Filter = flt.String()
			}

			return WriteSchedule(cmd.OutOrStdout(), out, a.outputFormat(), a.verbose)
		},
	}

	filters.register(cmd)

	return cmd
}

func newManifestCmd(a *app) *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Rebuild the week and master manifests from stored days",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			agg, err := a.newAggregator(ctx)
			if err != nil {
				return err
			}

			if show {
				m, err := agg.Master(ctx)
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("no manifest stored yet, run without --show to build one")
				}
				if err != nil {
					return fmt.Errorf("loading manifest: %w", err)
				}
				return WriteManifest(cmd.OutOrStdout(), m, a.outputFormat())
			}

			m, err := agg.Rebuild(ctx)
			if err != nil {
				return err
			}
			return WriteManifest(cmd.OutOrStdout(), m, a.outputFormat())
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the stored master manifest without rebuilding")

	return cmd
}

func newICSCmd(a *app) *cobra.Command {
	var (
		output  string
		filters filterFlags
	)

	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export stored classes as an iCalendar feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			flt, err := filters.build(a.now())
			if err != nil {
				return err
			}
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			agg, err := a.newAggregator(ctx)
			if err != nil {
				return err
			}
			days, err := agg.Days(ctx)
			if err != nil {
				return fmt.Errorf("loading days: %w", err)
			}
			days = flt.Apply(days)

			ics := calendar.GenerateICS(days, calendar.Options{Location: loc, Now: a.now})

			if output == "" || output == "-" {
				if _, err := io.WriteString(cmd.OutOrStdout(), ics); err != nil {
					return fmt.Errorf("writing calendar: %w", err)
				}
				return nil
			}

			if err := os.WriteFile(output, []byte(ics), 0644); err != nil {
				return fmt.Errorf("writing calendar to %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d classes to %s\n", countEvents(days), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the calendar to this file instead of stdout")
	filters.register(cmd)

	return cmd
}

func countEvents(days []*event.Day) int {
	n := 0
	for _, d := range days {
		n += len(d.Events)
	}
	return n
}
