// A Store kept in Postgres, one row per sacct record in the slurm_job_acc table.  The schema is
// created on open if it is missing.  Missing values are stored as NULL, never as zero, so the
// missing/zero distinction survives the round trip.  Kind, ParentID, Rule and RuleArgs are not
// stored, they are rederived from job_id and comment on the way out.

package db

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	. "slurmuse/common"
	"slurmuse/sacct"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS slurm_job_acc (
	account text NOT NULL DEFAULT '',
	alloc_cpus bigint,
	alloc_nodes bigint,
	ave_rss bigint,
	comment text NOT NULL DEFAULT '',
	cpu_time_raw bigint,
	elapsed bigint,
	elapsed_raw bigint,
	end_time timestamptz,
	exit_code text NOT NULL DEFAULT '',
	job_id text NOT NULL,
	job_id_raw text NOT NULL DEFAULT '',
	job_name text NOT NULL DEFAULT '',
	max_rss bigint,
	max_vm_size bigint,
	node_list text NOT NULL DEFAULT '',
	partition_name text NOT NULL DEFAULT '',
	qos text NOT NULL DEFAULT '',
	req_cpus bigint,
	req_mem bigint,
	req_nodes bigint,
	start_time timestamptz,
	state text NOT NULL DEFAULT '',
	submit_time timestamptz NOT NULL,
	system_cpu bigint,
	timelimit bigint,
	total_cpu bigint,
	user_cpu bigint,
	username text NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS slurm_job_acc_submit_time ON slurm_job_acc (submit_time);
`

// Alpha order and KEEP ALL THE LISTS IN THIS FILE COMPLETELY IN SYNC OR YOU WILL BE SORRY!
const jobAccFields = "account, alloc_cpus, alloc_nodes, ave_rss, comment, cpu_time_raw, " +
	"elapsed, elapsed_raw, end_time, exit_code, job_id, job_id_raw, job_name, max_rss, " +
	"max_vm_size, node_list, partition_name, qos, req_cpus, req_mem, req_nodes, start_time, " +
	"state, submit_time, system_cpu, timelimit, total_cpu, user_cpu, username"

var jobAccInsertSQL = func() string {
	n := strings.Count(jobAccFields, ",") + 1
	ph := make([]string, n)
	for i := range ph {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	return "INSERT INTO slurm_job_acc (" + jobAccFields + ") VALUES (" +
		strings.Join(ph, ", ") + ")"
}()

// The connection is not thread-safe.  Perform all operations through the locking methods.
type databaseConnection struct {
	connection *pgx.Conn
	lock       sync.Mutex
}

func (cdb *databaseConnection) Query(cx context.Context, q string, arg ...any) (pgx.Rows, error) {
	cdb.lock.Lock()
	defer cdb.lock.Unlock()
	return cdb.connection.Query(cx, q, arg...)
}

func (cdb *databaseConnection) Exec(cx context.Context, q string, arg ...any) error {
	cdb.lock.Lock()
	defer cdb.lock.Unlock()
	_, err := cdb.connection.Exec(cx, q, arg...)
	return err
}

func (cdb *databaseConnection) SendBatch(cx context.Context, batch *pgx.Batch) error {
	cdb.lock.Lock()
	defer cdb.lock.Unlock()
	return cdb.connection.SendBatch(cx, batch).Close()
}

func (cdb *databaseConnection) Close() error {
	cdb.lock.Lock()
	defer cdb.lock.Unlock()
	return cdb.connection.Close(context.Background())
}

type PgStore struct {
	db *databaseConnection
}

var _ = Store((*PgStore)(nil))

func OpenPgStore(databaseURL string) (*PgStore, error) {
	connection, err := pgx.Connect(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to database: %v", err)
	}
	db := &databaseConnection{connection: connection}
	if err := db.Exec(context.Background(), schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("Unable to create schema: %v", err)
	}
	return &PgStore{db: db}, nil
}

func (s *PgStore) ReadRecords(
	fromDate, toDate time.Time,
	verbose bool,
) (records []*sacct.Record, dropped int, err error) {
	var account, comment, exitCode, jobID, jobIDRaw, jobName, nodeList,
		partitionName, qos, state, username string
	var allocCpus, allocNodes, aveRss, cpuTimeRaw, elapsed, elapsedRaw, maxRss, maxVmSize,
		reqCpus, reqMem, reqNodes, systemCpu, timelimit, totalCpu, userCpu pgtype.Int8
	var endTime, startTime, submitTime pgtype.Timestamptz

	boxes := []any{
		&account, &allocCpus, &allocNodes, &aveRss, &comment, &cpuTimeRaw,
		&elapsed, &elapsedRaw, &endTime, &exitCode, &jobID, &jobIDRaw, &jobName, &maxRss,
		&maxVmSize, &nodeList, &partitionName, &qos, &reqCpus, &reqMem, &reqNodes, &startTime,
		&state, &submitTime, &systemCpu, &timelimit, &totalCpu, &userCpu, &username,
	}
	unbox := func() *sacct.Record {
		r := &sacct.Record{
			JobID:     jobID,
			JobIDRaw:  jobIDRaw,
			User:      username,
			Account:   account,
			State:     state,
			QOS:       qos,
			Partition: partitionName,
			JobName:   jobName,
			Comment:   comment,
			NodeList:  nodeList,
			ExitCode:  exitCode,

			AllocCPUS:  optFromInt8(allocCpus),
			AllocNodes: optFromInt8(allocNodes),
			ReqCPUS:    optFromInt8(reqCpus),
			ReqNodes:   optFromInt8(reqNodes),
			ElapsedRaw: optFromInt8(elapsedRaw),
			Elapsed:    optFromInt8(elapsed),
			Timelimit:  optFromInt8(timelimit),
			TotalCPU:   optFromInt8(totalCpu),
			UserCPU:    optFromInt8(userCpu),
			SystemCPU:  optFromInt8(systemCpu),
			CPUTimeRAW: optFromInt8(cpuTimeRaw),
			ReqMem:     optFromInt8(reqMem),
			MaxRSS:     optFromInt8(maxRss),
			MaxVMSize:  optFromInt8(maxVmSize),
			AveRSS:     optFromInt8(aveRss),
			Submit:     optFromTimestamptz(submitTime),
			Start:      optFromTimestamptz(startTime),
			End:        optFromTimestamptz(endTime),
		}
		r.Kind, r.ParentID = sacct.Classify(r.JobID)
		r.Rule, r.RuleArgs = sacct.ParseRuleComment(r.Comment)
		return r
	}

	qstr := "SELECT " + jobAccFields + " FROM slurm_job_acc" +
		" WHERE submit_time >= $1 AND submit_time < $2 ORDER BY submit_time"
	rows, err := s.db.Query(context.Background(), qstr, fromDate.UTC(), toDate.UTC())
	if err != nil {
		return
	}
	records = make([]*sacct.Record, 0)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		records = append(records, unbox())
		return nil
	})
	if err != nil {
		records = nil
		return
	}
	if verbose {
		Log.Infof("%d records read from database", len(records))
	}
	return
}

func (s *PgStore) AppendRaw(records []sacct.RawRecord) (appended, undated int, err error) {
	rs := make([]*sacct.Record, len(records))
	for i, raw := range records {
		rs[i] = sacct.FromRaw(raw)
	}
	return s.insertRecords(rs)
}

func (s *PgStore) AppendJobsJSON(_ time.Time, payload []byte) error {
	records, softErrors, err := sacct.ParseJobsJSON(bytes.NewReader(payload), false)
	if err != nil {
		return err
	}
	if softErrors > 0 {
		Log.Warningf("%d soft errors in jobs payload", softErrors)
	}
	_, _, err = s.insertRecords(records)
	return err
}

func (s *PgStore) Close() error {
	return s.db.Close()
}

// Records without a Submit time have no place on the time line and are not stored, only counted.
func (s *PgStore) insertRecords(records []*sacct.Record) (appended, undated int, err error) {
	batch := new(pgx.Batch)
	for _, r := range records {
		if !r.Submit.Ok {
			undated++
			continue
		}
		batch.Queue(jobAccInsertSQL,
			r.Account, optArg(r.AllocCPUS), optArg(r.AllocNodes), optArg(r.AveRSS),
			r.Comment, optArg(r.CPUTimeRAW), optArg(r.Elapsed), optArg(r.ElapsedRaw),
			timeArg(r.End), r.ExitCode, r.JobID, r.JobIDRaw, r.JobName, optArg(r.MaxRSS),
			optArg(r.MaxVMSize), r.NodeList, r.Partition, r.QOS, optArg(r.ReqCPUS),
			optArg(r.ReqMem), optArg(r.ReqNodes), timeArg(r.Start), r.State,
			timeArg(r.Submit), optArg(r.SystemCPU), optArg(r.Timelimit), optArg(r.TotalCPU),
			optArg(r.UserCPU), r.User,
		)
		appended++
	}
	if batch.Len() == 0 {
		return
	}
	err = s.db.SendBatch(context.Background(), batch)
	if err != nil {
		appended = 0
	}
	return
}

func optArg(v OptInt) any {
	if !v.Ok {
		return nil
	}
	return v.Val
}

func timeArg(v OptInt) any {
	if !v.Ok {
		return nil
	}
	return time.Unix(v.Val, 0).UTC()
}

func optFromInt8(v pgtype.Int8) OptInt {
	if !v.Valid {
		return OptInt{}
	}
	return SomeInt(v.Int64)
}

func optFromTimestamptz(v pgtype.Timestamptz) OptInt {
	if !v.Valid {
		return OptInt{}
	}
	return SomeInt(v.Time.UTC().Unix())
}
