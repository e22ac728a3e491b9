package main

import (
	"os"

	"golang.org/x/term"

	"dronefollow/internal/config"
	"dronefollow/internal/record"
	"dronefollow/internal/tui"
)

// newWriter sets up the status writer based on flags and env vars. It
// returns the writer and a cleanup function to close any resources.
func newWriter(cfg *config.Config, printOnly, useTUI bool, logFile string) (record.Writer, func(), error) {
	cleanup := func() {}

	var writer record.Writer
	switch {
	case useTUI && term.IsTerminal(int(os.Stdout.Fd())):
		tw := tui.NewWriter(cfg)
		writer = tw
		cleanup = func() { _ = tw.Close() }
	case printOnly || os.Getenv("GREPTIMEDB_ENDPOINT") == "":
		writer = &record.StdoutWriter{}
	default:
		gw, err := record.NewGreptimeWriter(os.Getenv("GREPTIMEDB_ENDPOINT"), "public")
		if err != nil {
			return nil, nil, err
		}
		writer = gw
	}

	if logFile == "" {
		return writer, cleanup, nil
	}

	fw, err := record.NewFileWriter(logFile)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	base := cleanup
	cleanup = func() {
		_ = fw.Close()
		base()
	}
	return record.NewMultiWriter(writer, fw), cleanup, nil
}
