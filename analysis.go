// Handle local data analysis commands

package main

import (
	"fmt"
	"io"
	"math"

	"slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/db"
	"slurmuse/sacct"
)

func localAnalysis(command cmd.AnalysisCommand, stdout io.Writer) error {
	args := command.SourceFlags()
	verbose := command.VerboseFlag()

	cfg, err := MaybeGetConfig(command.ConfigFile())
	if err != nil {
		return err
	}

	var store db.Store
	switch {
	case len(args.LogFiles) > 0:
		store = db.OpenTransientStore(args.LogFiles)
	case args.Database != "":
		store, err = db.OpenPgStore(args.Database)
	case args.DataDir != "":
		store = db.OpenFileStore(args.DataDir)
	case cfg.DatabaseURL != "":
		store, err = db.OpenPgStore(cfg.DatabaseURL)
	default:
		// Validate() has ensured there is a data source
		panic("Unexpected")
	}
	if err != nil {
		return fmt.Errorf("Failed to open log store\n%w", err)
	}
	defer store.Close()

	records, dropped, err := store.ReadRecords(args.FromDate, args.ToDate, verbose)
	if err != nil {
		return fmt.Errorf("Failed to read log records\n%w", err)
	}
	if verbose {
		Log.Infof("%d records read + %d dropped", len(records), dropped)
	}

	// The stores read whole days, so trim to the requested window exactly.  Only the bounds that
	// were actually requested apply; with logfiles and no -from/-to we take everything.
	if args.HaveFrom || args.HaveTo {
		lo := int64(math.MinInt64)
		hi := int64(math.MaxInt64)
		if args.HaveFrom {
			lo = args.FromDate.Unix()
		}
		if args.HaveTo {
			hi = args.ToDate.Unix()
		}
		records = sacct.SelectSubmitWindow(records, lo, hi)
	}

	err = command.Perform(stdout, cfg, records)

	if err != nil {
		return fmt.Errorf("Failed to perform operation\n%w", err)
	}

	return nil
}
