// A Store kept as a directory tree <dataDir>/yyyy/mm/dd/ of sacct data files.  Each day directory
// holds at most one pipe-format file, slurm-sacct.csv, and one file of concatenated Slurm jobs
// envelopes, job-slurm.json.  The pipe-format file carries a header line so that it parses the
// same way raw `sacct -P` output does and stays greppable in place.

package db

import (
	"fmt"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	. "slurmuse/common"
	"slurmuse/sacct"
)

const (
	dirPermissions  = 0755
	filePermissions = 0644

	sacctCsvName  = "slurm-sacct.csv"
	sacctJsonName = "job-slurm.json"
)

type FileStore struct {
	dataDir string

	// MT: Locked - serializes appends; reads are lock-free
	mu sync.Mutex
}

var _ = Store((*FileStore)(nil))

func OpenFileStore(dataDir string) *FileStore {
	return &FileStore{dataDir: dataDir}
}

func (s *FileStore) ReadRecords(
	fromDate, toDate time.Time,
	verbose bool,
) (records []*sacct.Record, dropped int, err error) {
	records = make([]*sacct.Record, 0)
	for d := ThisDay(fromDate.UTC()); d.Before(toDate); d = d.AddDate(0, 0, 1) {
		dir := path.Join(s.dataDir, dirnameFromTime(d))

		if f, oerr := os.Open(path.Join(dir, sacctCsvName)); oerr == nil {
			raws, dr, perr := sacct.ReadRaw(f)
			f.Close()
			if perr != nil {
				err = perr
				return
			}
			dropped += dr
			for _, r := range raws {
				records = append(records, sacct.FromRaw(r))
			}
		}

		if f, oerr := os.Open(path.Join(dir, sacctJsonName)); oerr == nil {
			rs, soft, perr := sacct.ParseJobsJSON(f, verbose)
			f.Close()
			if perr != nil {
				err = perr
				return
			}
			dropped += soft
			records = append(records, rs...)
		}
	}
	if verbose {
		Log.Infof("%d records read, %d dropped", len(records), dropped)
	}
	return
}

func (s *FileStore) AppendRaw(records []sacct.RawRecord) (appended, undated int, err error) {
	byFile := make(map[string][]string)
	for _, r := range records {
		when := sacct.ParseDateTime(r["Submit"])
		if !when.Ok {
			undated++
			continue
		}
		day := time.Unix(when.Val, 0).UTC()
		fn := path.Join(s.dataDir, dirnameFromTime(day), sacctCsvName)
		byFile[fn] = append(byFile[fn], rawLine(r))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for fn, lines := range byFile {
		if werr := appendCsvLines(fn, lines); werr != nil {
			err = werr
			return
		}
		appended += len(lines)
	}
	return
}

func (s *FileStore) AppendJobsJSON(timestamp time.Time, payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	fn := path.Join(s.dataDir, dirnameFromTime(timestamp.UTC()), sacctJsonName)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(path.Dir(fn), dirPermissions); err != nil {
		return err
	}
	f, err := os.OpenFile(fn, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Write(payload); err != nil {
		return err
	}
	if payload[len(payload)-1] != '\n' {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// The line layout is always DefaultColumns order: missing columns serialize as empty fields,
// extra columns in the input are dropped.
func rawLine(r sacct.RawRecord) string {
	fields := make([]string, len(sacct.DefaultColumns))
	for i, name := range sacct.DefaultColumns {
		fields[i] = r[name]
	}
	return strings.Join(fields, "|")
}

func appendCsvLines(fn string, lines []string) error {
	if err := os.MkdirAll(path.Dir(fn), dirPermissions); err != nil {
		return err
	}
	_, serr := os.Stat(fn)
	needHeader := serr != nil
	f, err := os.OpenFile(fn, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return err
	}
	defer f.Close()
	var b strings.Builder
	if needHeader {
		b.WriteString(strings.Join(sacct.DefaultColumns, "|"))
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	_, err = f.WriteString(b.String())
	return err
}

func dirnameFromTime(t time.Time) string {
	return fmt.Sprintf("%04d/%02d/%02d", t.Year(), t.Month(), t.Day())
}
