package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/fs"
	"github.com/Brandonf2022/touringbot/harvest"
	"github.com/Brandonf2022/touringbot/xlsx"
)

// Run executes the harvest command.
func (c *HarvestCmd) Run(deps *Dependencies) error {
	cfg := *deps.Config
	if c.StartYear != 0 {
		cfg.StartYear = c.StartYear
	}
	if c.Years != 0 {
		cfg.Years = c.Years
	}
	if c.Venues != "" {
		cfg.VenueList = c.Venues
	}
	if c.Column != "" {
		cfg.VenueColumn = c.Column
	}
	if c.Concurrency > 0 {
		deps.Harvester.Concurrency = c.Concurrency
	}

	if c.Venue != "" {
		return c.runVenue(deps, cfg.StartYear)
	}

	if err := cfg.ValidateCampaign(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}

	venues, err := loadVenues(cfg.VenueList, cfg.VenueColumn)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}

	if c.Reset {
		if err := deps.Checkpoints.Clear(); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
			return err
		}
	}

	campaign := harvest.Campaign{StartYear: cfg.StartYear, Years: cfg.Years, Venues: venues}
	fmt.Fprintf(deps.Stdout, "Harvesting %d venues over %d years from %d\n", len(venues), cfg.Years, cfg.StartYear)

	result, err := deps.Harvester.Run(deps.Ctx, campaign, progressPrinter(deps))
	if result != nil {
		printSummary(deps, result)
	}
	if err != nil {
		if deps.Ctx.Err() != nil {
			fmt.Fprintln(deps.Stderr, "interrupted, progress saved to checkpoint")
			return err
		}
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}
	return nil
}

func (c *HarvestCmd) runVenue(deps *Dependencies, year int) error {
	if year < 1 {
		err := touringbot.Errorf(touringbot.ECONFIG, "start_year required")
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}
	if c.Half != 0 && c.Half != 1 {
		err := touringbot.Errorf(touringbot.ECONFIG, "half must be 0 or 1, got %d", c.Half)
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}

	w := touringbot.Window{Year: year, Half: c.Half}
	result, err := deps.Harvester.HarvestVenue(deps.Ctx, w, c.Venue)
	if result != nil {
		printSummary(deps, result)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}
	return nil
}

// progressPrinter reports venue outcomes on stdout and skips on stderr.
func progressPrinter(deps *Dependencies) harvest.ProgressFunc {
	return func(event harvest.ProgressEvent) {
		switch event.Type {
		case harvest.VenueCompleted:
			r := event.Result
			fmt.Fprintf(deps.Stdout, "  [%s %d/%d] %s: %d new of %d passages (%d pages)\n",
				event.Window, event.Index+1, event.Total, event.Venue, r.Inserted, r.Candidates, r.Pages)
		case harvest.VenueSkipped:
			fmt.Fprintf(deps.Stderr, "  skip venue %s: %s\n", event.Venue, touringbot.ErrorMessage(event.Error))
		case harvest.PageFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", event.URL, touringbot.ErrorMessage(event.Error))
		case harvest.WindowCompleted:
			fmt.Fprintf(deps.Stdout, "Finished %s\n", event.Window)
		}
	}
}

func printSummary(deps *Dependencies, r *harvest.Result) {
	fmt.Fprintf(deps.Stdout, "Saved %d of %d candidate passages (%d duplicates, %d failed pages, %d skipped venues)\n",
		r.Inserted, r.Candidates, r.Duplicates, r.Failed, r.Skipped)
	fmt.Fprintf(deps.Stdout, "Searched %d venue windows: %d matches, %d pages\n", r.Venues, r.Matches, r.Pages)
}

// loadVenues picks the loader by file extension.
func loadVenues(path, column string) ([]string, error) {
	var venues []string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		venues, err = xlsx.LoadVenues(path, column)
	} else {
		venues, err = fs.LoadVenues(path)
	}
	if err != nil {
		return nil, err
	}
	if len(venues) == 0 {
		return nil, touringbot.Errorf(touringbot.ECONFIG, "venue list %s is empty", path)
	}
	return venues, nil
}
