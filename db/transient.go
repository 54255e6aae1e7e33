// A read-only Store over a static list of file names, for reading sacct dumps directly without a
// directory tree.  Mostly this is used for testing and ad-hoc analysis of saved logs.

package db

import (
	"errors"
	"os"
	"path"
	"strings"
	"time"

	. "slurmuse/common"
	"slurmuse/sacct"
)

type TransientStore struct {
	// MT: Immutable after initialization
	files []string
}

var _ = Store((*TransientStore)(nil))

func OpenTransientStore(fileNames []string) *TransientStore {
	files := make([]string, 0, len(fileNames))
	for _, fn := range fileNames {
		files = append(files, path.Clean(fn))
	}
	return &TransientStore{files: files}
}

// Named files are read in full; the date range does not select among them.  Files ending in .json
// hold concatenated Slurm jobs envelopes, everything else is pipe-format sacct output.

func (s *TransientStore) ReadRecords(
	_, _ time.Time,
	verbose bool,
) (records []*sacct.Record, dropped int, err error) {
	records = make([]*sacct.Record, 0)
	for _, fn := range s.files {
		f, oerr := os.Open(fn)
		if oerr != nil {
			err = oerr
			return
		}
		var rs []*sacct.Record
		var dr int
		var perr error
		if strings.HasSuffix(fn, ".json") {
			rs, dr, perr = sacct.ParseJobsJSON(f, verbose)
		} else {
			rs, dr, perr = sacct.ReadRecords(f, verbose)
		}
		f.Close()
		if perr != nil {
			err = perr
			return
		}
		dropped += dr
		records = append(records, rs...)
	}
	if verbose {
		Log.Infof("%d records read, %d dropped", len(records), dropped)
	}
	return
}

var ReadOnlyStoreErr = errors.New("Log files are read-only")

func (s *TransientStore) AppendRaw([]sacct.RawRecord) (int, int, error) {
	return 0, 0, ReadOnlyStoreErr
}

func (s *TransientStore) AppendJobsJSON(time.Time, []byte) error {
	return ReadOnlyStoreErr
}

func (s *TransientStore) Close() error {
	return nil
}
