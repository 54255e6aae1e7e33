package cmd

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	. "slurmuse/common"
	"slurmuse/sacct"
	"slurmuse/slurmjobs"
	"slurmuse/table"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// DevArgs are for development and their inclusion can be controlled with the devArgs setting,
// below.

type DevArgs struct {
	CpuProfile string
}

const devArgs = true

func (d *DevArgs) CpuProfileFile() string {
	return d.CpuProfile
}

func (d *DevArgs) Add(fs *CLI) {
	if devArgs {
		fs.Group("development")
		fs.StringVar(&d.CpuProfile, "cpuprofile", "",
			"(Development) write cpu profile to `filename`")
	}
}

func (d *DevArgs) ReifyForRemote(x *ArgReifier) error {
	if d.CpuProfile != "" {
		return errors.New("-cpuprofile not allowed with remote execution")
	}
	return nil
}

func (d *DevArgs) Validate() error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// You wouldn't think -v would be so complicated.

type VerboseArgs struct {
	Verbose bool
}

func (va *VerboseArgs) Add(fs *CLI) {
	fs.Group("development")
	fs.BoolVar(&va.Verbose, "v", false, "Print verbose diagnostics to stderr")
	fs.BoolVar(&va.Verbose, "verbose", false, "Print verbose diagnostics to stderr")
}

func (va *VerboseArgs) Validate() error {
	// The global logger filters Infof at its default level; -v admits it.
	if va.Verbose {
		Log.LowerLevelTo(LogLevelInfo)
	}
	return nil
}

func (va *VerboseArgs) VerboseFlag() bool {
	return va.Verbose
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Handle -data-dir

type DataDirArgs struct {
	DataDir string
}

func (dd *DataDirArgs) Add(fs *CLI) {
	fs.Group("local-data-source")
	fs.StringVar(&dd.DataDir, "data-dir", "",
		"Select the root `directory` for the record store [default: $SLURMUSE_ROOT]")
	fs.StringVar(&dd.DataDir, "data-path", "", "Alias for -data-dir `directory`")
}

func (dd *DataDirArgs) Validate() error {
	if dd.DataDir != "" {
		dd.DataDir = path.Clean(dd.DataDir)
	} else if d := os.Getenv("SLURMUSE_ROOT"); d != "" {
		dd.DataDir = path.Clean(d)
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Handle -database.  A database URL selects the PostgreSQL store instead of the directory tree;
// like -data-dir it is a local data source, meaningless on a remote query.

type DatabaseArgs struct {
	Database string
}

func (da *DatabaseArgs) Add(fs *CLI) {
	fs.Group("local-data-source")
	fs.StringVar(&da.Database, "database", "",
		"Select a PostgreSQL `url` as the record store [default: none]")
}

func (da *DatabaseArgs) Validate() error {
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// RemotingArgs pertain to specifying a remote slurmuse service.  Note that the meaning of the
// -auth-file depends on the operation: for `add` it would normally be `cluster:cluster-password`
// pairs, not `user:password`.

type RemotingArgsNoCluster struct {
	Remote   string
	AuthFile string

	Remoting bool
}

func (ra *RemotingArgsNoCluster) Add(fs *CLI) {
	fs.Group("remote-data-source")
	fs.StringVar(&ra.Remote, "remote", "",
		"Select a remote `url` to serve the query [default: none].")
	fs.StringVar(&ra.AuthFile, "auth-file", "",
		"Provide a `file` on username:password format [default: none].  For use with -remote.")
}

func (ra *RemotingArgsNoCluster) Validate() error {
	if ra.Remote != "" {
		ra.Remoting = true
	}
	return nil
}

func (ra *RemotingArgsNoCluster) RemotingFlags() *RemotingArgsNoCluster {
	return ra
}

type RemotingArgs struct {
	RemotingArgsNoCluster
	Cluster string
}

func (ra *RemotingArgs) Add(fs *CLI) {
	ra.RemotingArgsNoCluster.Add(fs)
	fs.Group("remote-data-source")
	fs.StringVar(&ra.Cluster, "cluster", "",
		"Select the cluster `name` for which we want data [default: none].  For use with -remote.")
}

func (ra *RemotingArgs) Validate() error {
	if ra.Remote != "" || ra.Cluster != "" {
		if ra.Remote == "" || ra.Cluster == "" {
			return errors.New("-remote and -cluster must be used together")
		}
		ra.Remoting = true
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// SourceArgs pertain to record store location and the time window of records to read, though the
// -from/-to arguments are also used to filter records.

type SourceArgs struct {
	DataDirArgs
	DatabaseArgs
	RemotingArgs
	HaveFrom bool
	FromDate time.Time
	HaveTo   bool
	ToDate   time.Time
	LogFiles []string

	FromDateStr string
	ToDateStr   string
}

func (s *SourceArgs) SourceFlags() *SourceArgs {
	return s
}

func (s *SourceArgs) Add(fs *CLI) {
	s.DataDirArgs.Add(fs)
	s.DatabaseArgs.Add(fs)
	s.RemotingArgs.Add(fs)
	fs.Group("record-filter")
	fs.StringVar(&s.FromDateStr, "from", "",
		"Select records by this `time` and later.  Format can be YYYY-MM-DD, or Nd or Nw\n"+
			"signifying N days or weeks ago [default: 1d, ie 1 day ago]")
	fs.StringVar(&s.FromDateStr, "f", "", "Short for -from `time`")
	fs.StringVar(&s.ToDateStr, "to", "",
		"Select records by this `time` and earlier.  Format can be YYYY-MM-DD, or Nd or Nw\n"+
			"signifying N days or weeks ago [default: now]")
	fs.StringVar(&s.ToDateStr, "t", "", "Short for -to `time`")
}

func (s *SourceArgs) ReifyForRemote(x *ArgReifier) error {
	// Validate() has already checked that DataDir, Database, LogFiles, Remote, Cluster, and
	// AuthFile are consistent for remote or local execution; none of those except Cluster is
	// forwarded.
	x.String("cluster", s.Cluster)
	x.String("from", s.FromDateStr)
	x.String("to", s.ToDateStr)
	return nil
}

func (s *SourceArgs) SetRestArguments(args []string) {
	s.LogFiles = args
}

func (s *SourceArgs) Validate() error {
	envAuth := os.Getenv("SLURMUSE_AUTH") != ""
	switch {
	case len(s.LogFiles) > 0 || s.DataDir != "" || s.Database != "":
		// no action
	case s.Remote != "" || s.Cluster != "" || (envAuth || s.AuthFile != ""):
		ApplyDefault(&s.Remote, DataSourceRemote)
		if !envAuth {
			ApplyDefault(&s.AuthFile, DataSourceAuthFile)
		}
		ApplyDefault(&s.Cluster, DataSourceCluster)
	default:
		// There are no remoting args and no local-store args and no logfiles, so apply the ones we
		// have but error out if we have defaults for both.
		if (HasDefault(DataSourceRemote) ||
			(envAuth || HasDefault(DataSourceAuthFile)) ||
			HasDefault(DataSourceCluster)) &&
			(HasDefault(DataSourceDataDir) || HasDefault(DataSourceDatabase)) {
			return errors.New("No data source, but defaults for both remoting and local store")
		}
		if ApplyDefault(&s.DataDir, DataSourceDataDir) ||
			ApplyDefault(&s.Database, DataSourceDatabase) {
			// no action
		} else {
			ApplyDefault(&s.Remote, DataSourceRemote)
			if !envAuth {
				ApplyDefault(&s.AuthFile, DataSourceAuthFile)
			}
			ApplyDefault(&s.Cluster, DataSourceCluster)
		}
	}
	ApplyDefault(&s.FromDateStr, DataSourceFrom)
	ApplyDefault(&s.ToDateStr, DataSourceTo)

	err := s.RemotingArgs.Validate()
	if err != nil {
		return err
	}

	if s.Remoting {
		// If remoting then no local data sources are allowed, so don't compute default data dirs by
		// calling Validate(), it would confuse the matter - just disallow explicit values.  (This
		// is a small abstraction leak.)
		if s.DataDir != "" {
			return errors.New("-data-dir may not be used with -remote or -cluster")
		}
		if s.Database != "" {
			return errors.New("-database may not be used with -remote or -cluster")
		}
		if len(s.LogFiles) > 0 {
			return errors.New("-- logfile ... may not be used with -remote or -cluster")
		}
	} else {
		// Compute and clean the dataDir and clean any logfiles.  If we end up with no local source
		// at all then signal an error.
		err := s.DataDirArgs.Validate()
		if err != nil {
			return err
		}
		if len(s.LogFiles) > 0 {
			for i := 0; i < len(s.LogFiles); i++ {
				s.LogFiles[i] = path.Clean(s.LogFiles[i])
			}
		} else if s.DataDir == "" && s.Database == "" {
			return errors.New("Required -data-dir, -database, or -- logfile ...")
		}
	}

	// The song and dance with `HaveFrom` and `HaveTo` is this: when a list of files is present then
	// `-from` and `-to` are not applied as record filters, so long as they are not present on the
	// command line.

	now := time.Now().UTC()
	if s.FromDateStr != "" {
		var err error
		s.FromDate, err = ParseRelativeDateUtc(now, s.FromDateStr, false)
		if err != nil {
			return fmt.Errorf("Invalid -from argument %s", s.FromDateStr)
		}
		s.HaveFrom = true
	} else {
		s.FromDate = now.AddDate(0, 0, -1)
		s.HaveFrom = len(s.LogFiles) == 0
	}

	if s.ToDateStr != "" {
		var err error
		s.ToDate, err = ParseRelativeDateUtc(now, s.ToDateStr, true)
		if err != nil {
			return fmt.Errorf("Invalid -to argument %s", s.ToDateStr)
		}
		s.HaveTo = true
	} else {
		s.ToDate = now
		s.HaveTo = len(s.LogFiles) == 0
	}

	if s.FromDate.After(s.ToDate) {
		return errors.New("The -from time is greater than the -to time")
	}

	return nil
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// FilterArgs select jobs (or, for record-level commands, records) by their manifest attributes.
// In addition to these, the -from / -to arguments of the SourceArgs are applied as record
// filters.

type FilterArgs struct {
	User       []string
	Account    []string
	State      []string
	QOS        []string
	Partition  []string
	Rule       []string
	Job        []string
	MinRuntime int64
	MaxRuntime int64

	minRuntimeStr string
	maxRuntimeStr string
}

func (fa *FilterArgs) Add(fs *CLI) {
	fs.Group("job-filter")
	fs.Var(NewRepeatableString(&fa.User), "user",
		"Select jobs with user `user1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.User), "u", "Short for -user `user`")
	fs.Var(NewRepeatableString(&fa.Account), "account",
		"Select jobs with account `account1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.State), "state",
		"Select jobs with state `state,...`: COMPLETED, CANCELLED, FAILED, OUT_OF_MEMORY, TIMEOUT")
	fs.Var(NewRepeatableString(&fa.QOS), "qos",
		"Select jobs with QOS `qos1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.Partition), "partition",
		"Select jobs on partition `partition1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.Rule), "rule",
		"Select jobs tagged with snakemake rule `rule1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.Job), "job",
		"Select jobs with allocation ID `job1,...` [default: all]")
	fs.Var(NewRepeatableString(&fa.Job), "j", "Short for -job `job`")
	fs.StringVar(&fa.minRuntimeStr, "min-runtime", "",
		"Select jobs with elapsed time at least this, format `WwDdHhMm`, all parts\n"+
			"optional [default: 0m]")
	fs.StringVar(&fa.maxRuntimeStr, "max-runtime", "",
		"Select jobs with elapsed time at most this, format `WwDdHhMm`, all parts\n"+
			"optional [default: unlimited]")
}

func (fa *FilterArgs) ReifyForRemote(x *ArgReifier) error {
	x.RepeatableString("user", fa.User)
	x.RepeatableString("account", fa.Account)
	x.RepeatableString("state", fa.State)
	x.RepeatableString("qos", fa.QOS)
	x.RepeatableString("partition", fa.Partition)
	x.RepeatableString("rule", fa.Rule)
	x.RepeatableString("job", fa.Job)
	x.String("min-runtime", fa.minRuntimeStr)
	x.String("max-runtime", fa.maxRuntimeStr)
	return nil
}

func (fa *FilterArgs) Validate() error {
	var e1, e2 error
	fa.MinRuntime, e1 = DurationToSeconds("-min-runtime", fa.minRuntimeStr)
	fa.MaxRuntime, e2 = DurationToSeconds("-max-runtime", fa.maxRuntimeStr)
	return errors.Join(e1, e2)
}

// JobFilter translates the arguments for job-level filtering, after grouping and merging.

func (fa *FilterArgs) JobFilter() slurmjobs.JobFilter {
	return slurmjobs.JobFilter{
		User:       fa.User,
		Account:    fa.Account,
		State:      fa.State,
		QOS:        fa.QOS,
		Partition:  fa.Partition,
		Rule:       fa.Rule,
		Job:        fa.Job,
		MinRuntime: fa.MinRuntime,
		MaxRuntime: fa.MaxRuntime,
	}
}

// RecordFilter compiles the arguments into a record-level predicate, for commands that print
// records rather than jobs.  Records are matched on their own attributes: a step row carries no
// user or account, and a -user filter will keep only the rows that name the user.

func (fa *FilterArgs) RecordFilter() func(*sacct.Record) bool {
	users := stringSet(fa.User)
	accounts := stringSet(fa.Account)
	states := stringSet(fa.State)
	qoses := stringSet(fa.QOS)
	partitions := stringSet(fa.Partition)
	rules := stringSet(fa.Rule)
	jobs := stringSet(fa.Job)
	minRuntime := fa.MinRuntime
	maxRuntime := fa.MaxRuntime
	return func(r *sacct.Record) bool {
		return (users == nil || users[r.User]) &&
			(accounts == nil || accounts[r.Account]) &&
			(states == nil || states[r.State]) &&
			(qoses == nil || qoses[r.QOS]) &&
			(partitions == nil || partitions[r.Partition]) &&
			(rules == nil || rules[r.Rule]) &&
			(jobs == nil || jobs[r.ParentID]) &&
			(minRuntime <= 0 || r.ElapsedRaw.Val >= minRuntime) &&
			(maxRuntime <= 0 || r.ElapsedRaw.Val <= maxRuntime)
	}
}

func stringSet(xs []string) map[string]bool {
	if len(xs) == 0 {
		return nil
	}
	s := make(map[string]bool, len(xs))
	for _, x := range xs {
		s[x] = true
	}
	return s
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Config file

type ConfigFileArgs struct {
	ConfigFilename string
}

func (cfa *ConfigFileArgs) Add(fs *CLI) {
	fs.Group("local-data-source")
	fs.StringVar(&cfa.ConfigFilename, "config-file", "",
		"A `filename` for a file holding JSON data with cluster information, for when we\n"+
			"want capacity-relative values [default: none]")
}

func (cfa *ConfigFileArgs) ReifyForRemote(x *ArgReifier) error {
	if cfa.ConfigFilename != "" {
		return errors.New("-config-file can't be specified remotely")
	}
	return nil
}

func (cfa *ConfigFileArgs) Validate() error {
	if cfa.ConfigFilename != "" {
		cfa.ConfigFilename = path.Clean(cfa.ConfigFilename)
	}
	return nil
}

func (cfa *ConfigFileArgs) ConfigFile() string {
	return cfa.ConfigFilename
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Format arguments - same logic for most consumers.

type FormatArgs struct {
	// Print args
	Fmt string

	// Synthesized and other
	PrintFields []table.FieldSpec
	PrintOpts   *table.FormatOptions
}

func (fa *FormatArgs) Add(fs *CLI) {
	fs.Group("printing")
	fs.StringVar(&fa.Fmt, "fmt", "",
		"Select `field,...` and format for the output [default: try -fmt=help]")
}

func (fa *FormatArgs) ReifyForRemote(x *ArgReifier) error {
	x.String("fmt", fa.Fmt)
	return nil
}

func ValidateFormatArgs(
	fa *FormatArgs,
	defaultFields string,
	formatters map[string]table.Formatter,
	aliases map[string][]string,
	def table.DefaultFormat,
) error {
	var err error
	var others map[string]bool
	fa.PrintFields, others, err = table.ParseFormatSpec(defaultFields, fa.Fmt, formatters, aliases)
	if err == nil && len(fa.PrintFields) == 0 && !others["help"] {
		err = errors.New("No valid output fields were selected in format string")
	}
	fa.PrintOpts = table.StandardFormatOptions(others, def)
	return err
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Repeatable arguments.

type RepeatableCommaSeparated[T any] struct {
	xs         *[]T
	fromString func(string) (T, error)
}

func (rs *RepeatableCommaSeparated[T]) String() string {
	if rs == nil || rs.xs == nil {
		return ""
	}
	s := ""
	for _, v := range *rs.xs {
		if s != "" {
			s += ","
		}
		s += fmt.Sprint(v)
	}
	return s
}

func (rs *RepeatableCommaSeparated[T]) Set(s string) error {
	ys := strings.Split(s, ",") // OK: "" is ruled out below
	ws := make([]T, 0, len(ys))
	for _, y := range ys {
		if y == "" {
			return errors.New("Empty string is an invalid argument")
		}
		n, err := rs.fromString(y)
		if err != nil {
			return err
		}
		ws = append(ws, n)
	}
	if *rs.xs == nil {
		*rs.xs = ws
	} else {
		*rs.xs = append(*rs.xs, ws...)
	}
	return nil
}

type RepeatableString = RepeatableCommaSeparated[string]

func NewRepeatableString(xs *[]string) *RepeatableString {
	return &RepeatableString{
		xs,
		func(s string) (string, error) {
			return s, nil
		},
	}
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Shared args for the analysis commands.  FormatArgs are not part of these because format
// validation needs the per-command formatters.

type AnalysisArgs struct {
	DevArgs
	SourceArgs
	FilterArgs
	ConfigFileArgs
	VerboseArgs
}

func (aa *AnalysisArgs) Add(fs *CLI) {
	aa.DevArgs.Add(fs)
	aa.SourceArgs.Add(fs)
	aa.FilterArgs.Add(fs)
	aa.ConfigFileArgs.Add(fs)
	aa.VerboseArgs.Add(fs)
}

func (aa *AnalysisArgs) ReifyForRemote(x *ArgReifier) error {
	// We don't forward Verbose, it's mostly useful locally, and ideally the daemon should redact
	// it on the remote end to avoid revealing internal data.
	return errors.Join(
		aa.DevArgs.ReifyForRemote(x),
		aa.SourceArgs.ReifyForRemote(x),
		aa.FilterArgs.ReifyForRemote(x),
		aa.ConfigFileArgs.ReifyForRemote(x),
	)
}

func (aa *AnalysisArgs) Validate() error {
	return errors.Join(
		aa.DevArgs.Validate(),
		aa.SourceArgs.Validate(),
		aa.FilterArgs.Validate(),
		aa.ConfigFileArgs.Validate(),
		aa.VerboseArgs.Validate(),
	)
}
