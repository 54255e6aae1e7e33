// The `add` command ingests accounting data from stdin into a record store: pipe-format sacct
// dumps with -slurm-sacct, Sonar job envelopes with -slurm-json.  With -remote the payload is
// forwarded to a slurmuse daemon instead, which runs the same ingestion on its own store.

package add

import (
	"bytes"
	"errors"
	"io"

	. "slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/db"
	"slurmuse/sacct"
)

type AddCommand struct /* implements RemotableCommand */ {
	DevArgs
	VerboseArgs
	DataDirArgs
	DatabaseArgs
	RemotingArgs
	ConfigFileArgs
	SlurmSacct bool
	SlurmJSON  bool
}

var _ = RemotableCommand((*AddCommand)(nil))

func (ac *AddCommand) Summary() []string {
	return []string{
		"Add accounting data from stdin to a record store",
	}
}

func (ac *AddCommand) Add(fs *CLI) {
	ac.DevArgs.Add(fs)
	ac.VerboseArgs.Add(fs)
	ac.DataDirArgs.Add(fs)
	ac.DatabaseArgs.Add(fs)
	ac.RemotingArgs.Add(fs)
	ac.ConfigFileArgs.Add(fs)

	fs.Group("data-target")
	fs.BoolVar(&ac.SlurmSacct, "slurm-sacct", false,
		"Insert pipe-format sacct data from stdin (zero or more records)")
	fs.BoolVar(&ac.SlurmJSON, "slurm-json", false,
		"Insert Sonar slurm job envelopes from stdin (zero or more envelopes)")
}

func (ac *AddCommand) Validate() error {
	var e1, e2, e3, e4, e5, e6 error
	e1 = ac.DevArgs.Validate()
	e2 = ac.VerboseArgs.Validate()
	e3 = ac.RemotingArgs.Validate()
	e4 = ac.ConfigFileArgs.Validate()
	if ac.Remoting {
		if ac.DataDir != "" {
			e5 = errors.New("-data-dir may not be used with -remote or -cluster")
		}
		if ac.Database != "" {
			e5 = errors.Join(e5, errors.New("-database may not be used with -remote or -cluster"))
		}
	} else {
		e5 = ac.DataDirArgs.Validate()
		if ac.DataDir == "" && ac.Database == "" && ac.ConfigFilename == "" {
			e5 = errors.Join(e5,
				errors.New("Required -data-dir, -database, or -config-file argument is absent"))
		}
	}
	if ac.SlurmSacct == ac.SlurmJSON {
		e6 = errors.New("Exactly one of -slurm-sacct, -slurm-json must be requested")
	}
	return errors.Join(e1, e2, e3, e4, e5, e6)
}

func (ac *AddCommand) ReifyForRemote(x *ArgReifier) error {
	// VerboseArgs, DataDirArgs, DatabaseArgs, and RemotingArgs aren't used in remoting and all
	// error checking has already been performed.
	x.String("cluster", ac.Cluster)
	x.Bool("slurm-sacct", ac.SlurmSacct)
	x.Bool("slurm-json", ac.SlurmJSON)
	return ac.DevArgs.ReifyForRemote(x)
}

// AddData runs the ingestion locally, stdin to store.
func (ac *AddCommand) AddData(stdin io.Reader) error {
	payload, err := io.ReadAll(stdin)
	if err != nil {
		return err
	}
	store, err := ac.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	switch {
	case ac.SlurmSacct:
		return ac.addSlurmSacct(store, payload)
	case ac.SlurmJSON:
		return ac.addSlurmJSON(store, payload)
	default:
		panic("Unexpected")
	}
}

func (ac *AddCommand) openStore() (db.Store, error) {
	cfg, err := MaybeGetConfig(ac.ConfigFile())
	if err != nil {
		return nil, err
	}
	switch {
	case ac.Database != "":
		return db.OpenPgStore(ac.Database)
	case ac.DataDir != "":
		return db.OpenFileStore(ac.DataDir), nil
	case cfg.DatabaseURL != "":
		return db.OpenPgStore(cfg.DatabaseURL)
	default:
		return nil, errors.New("No database in the -config-file and no -data-dir or -database")
	}
}

func (ac *AddCommand) addSlurmSacct(store db.Store, payload []byte) error {
	records, dropped, err := sacct.ReadRaw(bytes.NewReader(payload))
	if err != nil {
		return err
	}
	appended, undated, err := store.AppendRaw(records)
	if ac.Verbose {
		Log.Infof("Sacct records: %d appended, %d undated, %d dropped", appended, undated, dropped)
	}
	return err
}

func (ac *AddCommand) addSlurmJSON(store db.Store, payload []byte) error {
	appended, dropped, err := db.IngestJobsJSON(store, payload)
	if ac.Verbose {
		Log.Infof("Slurm job envelopes: %d appended, %d dropped", appended, dropped)
	}
	return err
}
