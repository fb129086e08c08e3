package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pfrederiksen/rec-schedule/internal/event"
	"github.com/pfrederiksen/rec-schedule/internal/logger"
	"github.com/pfrederiksen/rec-schedule/internal/notifier"
	"github.com/pfrederiksen/rec-schedule/internal/scraper"
)

// scrapeOptions are the flags shared by scrape and watch
type scrapeOptions struct {
	url      string
	useHTTP  bool
	saveHTML string
	dryRun   bool
	notify   string
}

func (o *scrapeOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.url, "url", "", "Schedule page URL (overrides config source.url)")
	cmd.Flags().BoolVar(&o.useHTTP, "http", false, "Fetch the page over plain HTTP instead of a headless browser")
	cmd.Flags().StringVar(&o.saveHTML, "save-html", "", "Write the rendered page HTML to this file")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "Parse without writing to the store")
	cmd.Flags().StringVar(&o.notify, "notify", "", "Post changes to: none, stdout, twitter or telegram (overrides config notify.channel)")
}

// notify posts the selected changes to the configured channel. A failed post
// is logged and does not fail the scrape, since the days are already stored.
func (a *app) notify(ctx context.Context, o *scrapeOptions, changes []*event.EventChange) int {
	channel := a.cfg.Notify.Channel
	if o.notify != "" {
		channel = o.notify
	}

	selected := notifier.Select(changes, a.cfg.Notify.Changes)
	if len(selected) == 0 {
		return 0
	}

	n, err := notifier.New(notifier.Options{
		Channel:        channel,
		TelegramChatID: a.cfg.Notify.TelegramChatID,
		Stdout:         a.stdout,
	})
	if err != nil {
		logger.Error("Creating notifier failed", logger.Fields{"channel": channel}, err)
		return 0
	}
	if n == nil {
		return 0
	}

	if err := n.Notify(ctx, selected); err != nil {
		logger.IncrCounter("notify.failures")
		logger.Error("Posting notifications failed", logger.Fields{"channel": channel, "changes": len(selected)}, err)
		return 0
	}

	logger.Info("Posted notifications", logger.Fields{"channel": channel, "changes": len(selected)})
	return len(selected)
}

// source builds the configured page source
func (a *app) source(o *scrapeOptions) scraper.Source {
	src := a.cfg.Source
	url := src.URL
	if o.url != "" {
		url = o.url
	}

	if o.useHTTP {
		return scraper.NewFetcher(url, src.Retries)
	}
	return scraper.NewBrowser(scraper.BrowserOptions{
		URL:         url,
		TabSelector: src.TabSelector,
		Wait:        src.Wait,
		Timeout:     src.Timeout,
		Retries:     src.Retries,
		ExecPath:    src.ChromePath,
	})
}

// scrape captures the schedule, parses every view and merges the days into the store
func (a *app) scrape(ctx context.Context, src scraper.Source, o *scrapeOptions) (*ScrapeOutput, error) {
	start := time.Now()

	capture, err := src.Capture(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing schedule: %w", err)
	}

	if o.saveHTML != "" && capture.HTML != "" {
		if err := os.WriteFile(o.saveHTML, []byte(capture.HTML), 0644); err != nil {
			return nil, fmt.Errorf("saving HTML: %w", err)
		}
		logger.Info("Saved page HTML", logger.Fields{"path": o.saveHTML})
	}

	p, err := a.newParser(-1, "")
	if err != nil {
		return nil, err
	}
	result, err := p.ParseViews(capture.Texts())
	if err != nil {
		return nil, fmt.Errorf("parsing schedule: %w", err)
	}

	out := &ScrapeOutput{
		CheckedAt:  a.now().UTC(),
		Views:      len(capture.Views),
		EventCount: result.EventCount(),
		Skipped:    result.Skipped,
		DryRun:     o.dryRun,
	}
	for _, d := range result.Days {
		out.Days = append(out.Days, d.Date)
	}

	if !o.dryRun {
		agg, err := a.newAggregator(ctx)
		if err != nil {
			return nil, err
		}
		merged, err := agg.Merge(ctx, result.Days)
		if err != nil {
			return nil, fmt.Errorf("saving days: %w", err)
		}
		out.Changes = merged.Changes
		out.Master = merged.Master
		out.Notified = a.notify(ctx, o, merged.Changes)
	}

	logger.Info("Scrape complete", logger.Fields{
		"views":    out.Views,
		"days":     len(out.Days),
		"events":   out.EventCount,
		"changes":  len(out.Changes),
		"duration": time.Since(start).String(),
	})

	return out, nil
}

func newScrapeCmd(a *app) *cobra.Command {
	var (
		opts     scrapeOptions
		exitCode bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape the live schedule and merge it into the store",
		Long: `Render the schedule page in headless Chrome, click through each day tab, parse
every view and merge the resulting days into the store. Days already stored are
replaced and the changes against the stored version are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.scrape(cmd.Context(), a.source(&opts), &opts)
			if err != nil {
				return err
			}

			if err := WriteScrape(cmd.OutOrStdout(), out, a.outputFormat(), a.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}

			if exitCode && len(out.Changes) > 0 {
				return &exitError{code: ExitChanges}
			}
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().BoolVar(&exitCode, "exit-code", false, fmt.Sprintf("Exit with status %d when stored days changed", ExitChanges))

	return cmd
}

func newWatchCmd(a *app) *cobra.Command {
	var (
		opts     scrapeOptions
		schedule string
		runNow   bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scrape on a cron schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if schedule == "" {
				schedule = a.cfg.Watch.Cron
			}
			loc, err := a.cfg.Location()
			if err != nil {
				return err
			}

			src := a.source(&opts)
			log := logger.Default().With(logger.Fields{"cron": schedule, "timezone": loc.String()})
			run := func() {
				out, err := a.scrape(ctx, src, &opts)
				if err != nil {
					logger.IncrCounter("watch.failures")
					log.Error("Scheduled scrape failed", nil, err)
					return
				}
				logger.IncrCounter("watch.runs")
				if err := WriteScrape(cmd.OutOrStdout(), out, a.outputFormat(), a.verbose); err != nil {
					log.Error("Writing scrape output failed", nil, err)
				}
			}

			c := cron.New(cron.WithLocation(loc))
			if _, err := c.AddFunc(schedule, run); err != nil {
				return fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
			}

			log.Info("Watching schedule", nil)

			if runNow {
				run()
			}

			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()

			log.Info("Stopped watching", logger.Fields{"metrics": logger.GetMetricsSnapshot()})
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&schedule, "cron", "", "Cron schedule (overrides config watch.cron)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Scrape once immediately before waiting for the schedule")

	return cmd
}
