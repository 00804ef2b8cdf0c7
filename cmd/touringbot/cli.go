package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/Brandonf2022/touringbot"
	"github.com/Brandonf2022/touringbot/harvest"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx         context.Context
	Stdout      io.Writer
	Stderr      io.Writer
	Config      *Config
	Logger      *slog.Logger
	Records     touringbot.RecordService
	Checkpoints touringbot.CheckpointStore
	Harvester   *harvest.Harvester
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config   string `short:"c" type:"path" help:"Config file (default: ./touringbot.yaml if present)"`
	DB       string `type:"path" help:"Database path, overrides db_path and $TOURINGBOT_DB"`
	LogLevel string `help:"Log level: debug, info, warn or error"`

	Harvest    HarvestCmd    `cmd:"" help:"Harvest passages for every venue in the campaign"`
	Records    RecordsCmd    `cmd:"" help:"List stored passages"`
	Checkpoint CheckpointCmd `cmd:"" help:"Inspect or reset harvest progress"`
}

// HarvestCmd is the "harvest" subcommand.
type HarvestCmd struct {
	StartYear   int    `help:"First year of the campaign, overrides start_year"`
	Years       int    `help:"Number of years to harvest, overrides years"`
	Venues      string `type:"path" help:"Venue list (.txt or .xlsx), overrides venue_list"`
	Column      string `help:"Venue column header in a spreadsheet, overrides venue_column"`
	Concurrency int    `short:"j" help:"Matches fetched in parallel per venue, overrides concurrency"`
	Reset       bool   `help:"Clear the checkpoint and start from the first window"`
	Venue       string `help:"Harvest only this venue in one window, leaving the checkpoint untouched"`
	Half        int    `help:"Half-year window (0 or 1) used with --venue"`
}

// RecordsCmd is the "records" subcommand.
type RecordsCmd struct {
	Package string `help:"Only records from this package ID"`
	Part    string `help:"Only records from this part"`
	Page    int    `help:"Only records from this page"`
	Venue   string `help:"Only records harvested for this venue"`
	Limit   int    `help:"Maximum number of records"`
	Offset  int    `help:"Number of records to skip"`
	JSON    bool   `name:"json" help:"Print one JSON object per line"`
	Count   bool   `help:"Print only the number of matching records"`
}

// CheckpointCmd groups checkpoint subcommands.
type CheckpointCmd struct {
	Show  CheckpointShowCmd  `cmd:"" default:"1" help:"Print the saved position"`
	Reset CheckpointResetCmd `cmd:"" help:"Delete the saved position"`
}

// CheckpointShowCmd is the "checkpoint show" subcommand.
type CheckpointShowCmd struct{}

// CheckpointResetCmd is the "checkpoint reset" subcommand.
type CheckpointResetCmd struct{}
