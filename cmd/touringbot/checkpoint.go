package main

import (
	"fmt"

	"github.com/Brandonf2022/touringbot"
)

// Run executes the checkpoint show command.
func (c *CheckpointShowCmd) Run(deps *Dependencies) error {
	cp, err := deps.Checkpoints.Load()
	if touringbot.ErrorCode(err) == touringbot.ECHECKPOINT {
		fmt.Fprintf(deps.Stderr, "warning: %s (removed)\n", touringbot.ErrorMessage(err))
		cp, err = nil, nil
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}

	if cp == nil {
		fmt.Fprintln(deps.Stdout, "No checkpoint. The next harvest starts at the first window.")
		return nil
	}

	w := touringbot.Window{Year: cp.Year, Half: cp.Half}
	fmt.Fprintf(deps.Stdout, "Next window %s, venue index %d\n", w, cp.Index)
	return nil
}

// Run executes the checkpoint reset command.
func (c *CheckpointResetCmd) Run(deps *Dependencies) error {
	if err := deps.Checkpoints.Clear(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", touringbot.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, "Checkpoint cleared.")
	return nil
}
