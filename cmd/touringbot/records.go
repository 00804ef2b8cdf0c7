package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Brandonf2022/touringbot"
)

// Run executes the records command.
func (c *RecordsCmd) Run(deps *Dependencies) error {
	filter := c.filter()

	if c.Count {
		n, err := deps.Records.CountRecords(deps.Ctx, filter)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, n)
		return nil
	}

	records, err := deps.Records.FindRecords(deps.Ctx, filter)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}

	if len(records) == 0 {
		fmt.Fprintln(deps.Stdout, "No records found. Use 'touringbot harvest' to collect some.")
		return nil
	}

	for _, r := range records {
		date := r.Date
		if date == "" {
			date = "undated"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s/%s/%d  %s\n", r.ID, date, r.PackageID, r.Part, r.Page, r.Venue)
		for _, line := range strings.Split(r.Text, "\n") {
			fmt.Fprintf(deps.Stdout, "    %s\n", line)
		}
	}
	return nil
}

func (c *RecordsCmd) filter() touringbot.RecordFilter {
	filter := touringbot.RecordFilter{Offset: c.Offset, Limit: c.Limit}
	if c.Package != "" {
		filter.PackageID = &c.Package
	}
	if c.Part != "" {
		filter.Part = &c.Part
	}
	if c.Page > 0 {
		filter.Page = &c.Page
	}
	if c.Venue != "" {
		filter.Venue = &c.Venue
	}
	return filter
}
