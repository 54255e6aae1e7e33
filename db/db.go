// Persistent storage of sacct records.
//
// Two backends provide the same Store interface: a date-keyed directory tree of sacct dumps (the
// usual arrangement when data arrive by nightly dump or by Kafka), and a Postgres database for
// sites that ingest into one.  Both hand back the canonical parsed records, so everything
// downstream (grouping, efficiency, daily metrics) is backend-agnostic.

package db

import (
	"time"

	"slurmuse/sacct"
)

// Store is a date-indexed collection of sacct records.
//
// ReadRecords returns the parsed records for the range fromDate (inclusive) to toDate (exclusive).
// The file backend returns whole days, so callers that need record-exact bounds must filter the
// result.  dropped counts input rows that could not be parsed.
//
// AppendRaw persists raw pipe-format records, bucketing them by their Submit timestamp; records
// without a parseable Submit time cannot be placed in the tree and are counted in undated.
// AppendJobsJSON persists one Slurm jobs envelope under the given timestamp.
type Store interface {
	ReadRecords(fromDate, toDate time.Time, verbose bool) (records []*sacct.Record, dropped int, err error)
	AppendRaw(records []sacct.RawRecord) (appended, undated int, err error)
	AppendJobsJSON(timestamp time.Time, payload []byte) error
	Close() error
}

// Open selects the backend: a nonempty databaseURL takes precedence over the directory tree.
func Open(dataDir, databaseURL string) (Store, error) {
	if databaseURL != "" {
		return OpenPgStore(databaseURL)
	}
	return OpenFileStore(dataDir), nil
}
