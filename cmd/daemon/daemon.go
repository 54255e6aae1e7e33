// `slurmuse daemon` - HTTP server that runs slurmuse on behalf of a remote client
//
// This server responds to GET and POST requests carrying parameters that specify how to run
// slurmuse against a local data store.  The path is the slurmuse command name, eg, `GET /jobs?...`
// will run `slurmuse jobs` and `POST /add?slurm-sacct=true` will run `slurmuse add -slurm-sacct`.
//
// A query parameter `cluster=clusterName` is required for all requests, it names the cluster we're
// operating within and determines a bunch of file paths.
//
// Other parameter names are always the long parameter names for slurmuse and the parameter values
// are always urlencoded as necessary.  Most parameters and names are forwarded to slurmuse, with
// eg --data-dir and --config-file supplied by this code.  The returned output is the raw output
// from slurmuse, whether for success or error.  A successful run yields 2xx and an error yields
// 4xx or 5xx.
//
// There is additionally a typed JSON API under /api/v1/, see api.go, and an optional Kafka
// ingestion pathway, see kafka.go.
//
// Arguments:
//
// -slurmuse-dir <slurmuse-root-directory>
// -slurmuse-path <slurmuse-root-directory>
//
//  This is a required argument.  In the named directory there shall be:
//
//   - subdirectories `data` and `cluster-config`
//   - for each cluster, a subdirectory `data/CLUSTERNAME` with the cluster's sacct data tree
//   - in `cluster-config`, a file `CLUSTERNAME-config.json` for each cluster, which holds the
//     cluster description (capacity, database, Kafka broker)
//   - optionally a file `cluster-aliases.json`, described below
//
// -port <port-number>
//
//  This is an optional argument.  It is the port number on which to listen, the default is 8087.
//
// -analysis-auth <filename>
// -password-file <filename>
//
//  This is an optional argument.  It names a file with username:password pairs, one per line, to
//  be matched with values in an incoming HTTP basic authentication header for a GET operation.
//  (Note, if the connection is not HTTPS then the password may have been intercepted in transit.)
//
// -upload-auth <filename>
//
//  This is an optional but *strongly* recommended argument.  If provided then the file named must
//  provide username:password combinations, to be matched with one in an HTTP basic authentication
//  header.  (If the connection is not HTTPS then the password may have been intercepted in
//  transit.)
//
// -match-user-and-cluster
//
//  Optional but *strongly* recommended argument.  If set, and -upload-auth is also provided, then
//  the user name provided by the HTTP connection must match the cluster name in the query string.
//  The effect is to make it possible for each cluster to have its own username:password pair and
//  for one cluster not to be able to upload data for another.
//
// -kafka
//
//  Optional argument.  If set, the daemon starts one Kafka consumer per cluster whose config file
//  carries a `kafka_broker` value, ingesting job envelopes from the broker into the cluster's
//  data store.
//
// Termination:
//
//  Sending SIGHUP or SIGTERM to `slurmuse daemon` will shut it down in an orderly manner.
//
//  The daemon is usually run in the background and exit codes are not easily examined, but when
//  the daemon exits it will deliver a non-zero exit code if an error was discovered during startup
//  or shutdown.
//
//  This server needs to stay up because it's the only contact point for all remote queries, and it
//  tries hard to avoid exiting or panicking.  However, this can happen.  Infrastructure should
//  exist to restart it if it crashes.
//
// Logging:
//
//  The daemon logs everything to the syslog with the tag defined below ("logTag").  Errors
//  encountered during startup are also logged to stderr.
//
// Cluster names and aliases:
//
//  The cluster alias file is a JSON array containing objects with "alias" and "value" fields:
//
//    [{"alias":"c1","value":"cluster1.example.com"}, ...]
//
//  so that the short name "c1" can be used to name the cluster "cluster1.example.com" in requests.

package daemon

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	. "slurmuse/cmd"
)

const (
	defaultListenPort      = 8087
	clusterAliasesFilename = "cluster-aliases.json"
	logTag                 = "slurmuse/daemon"
	authRealm              = "Slurmuse remote access"
)

// Immutable (no mutator operations) and thread-safe.  It *will* be accessed concurrently b/c every
// HTTP handler runs as a separate goroutine.
type DaemonCommand struct {
	DevArgs
	VerboseArgs
	slurmuseDir         string
	port                uint
	getAuthFile         string
	postAuthFile        string
	matchUserAndCluster bool
	kafka               bool

	aliasResolver     *aliases
	getAuthenticator  *authenticator
	postAuthenticator *authenticator
	cmdlineHandler    CommandLineHandler
}

func New(cmdlineHandler CommandLineHandler) *DaemonCommand {
	dc := new(DaemonCommand)
	dc.cmdlineHandler = cmdlineHandler
	return dc
}

func (dc *DaemonCommand) Add(fs *CLI) {
	dc.DevArgs.Add(fs)
	dc.VerboseArgs.Add(fs)

	fs.Group("daemon-configuration")
	fs.StringVar(&dc.slurmuseDir, "slurmuse-dir", "", "Slurmuse root `directory` (required)")
	fs.UintVar(&dc.port, "port", defaultListenPort, "Listen for connections on `port`")
	fs.StringVar(&dc.getAuthFile, "analysis-auth", "", "Authentication info `filename` for analysis access")
	fs.StringVar(&dc.postAuthFile, "upload-auth", "", "Authentication info `filename` for data upload access")
	fs.BoolVar(&dc.matchUserAndCluster, "match-user-and-cluster", false, "Require user name to match cluster name")
	fs.BoolVar(&dc.kafka, "kafka", false, "Consume job data from each cluster's Kafka broker")
	fs.StringVar(&dc.slurmuseDir, "slurmuse-path", "", "Alias for -slurmuse-dir")
	fs.StringVar(&dc.getAuthFile, "password-file", "", "Alias for -analysis-auth")
}

func (dc *DaemonCommand) Summary() []string {
	return []string{
		"Run slurmuse as an HTTP server that responds to GET and POST for data",
		"extraction and update.",
	}
}

func (dc *DaemonCommand) Validate() error {
	var e1, e2, e3, e4, e5, e6 error
	e1 = dc.DevArgs.Validate()
	e2 = dc.VerboseArgs.Validate()
	dc.slurmuseDir, e3 = requireDirectory(dc.slurmuseDir, "-slurmuse-path")
	if dc.getAuthFile != "" {
		dc.getAuthenticator, e4 = readPasswords(dc.getAuthFile)
		if e4 != nil {
			e4 = fmt.Errorf("Failed to read analysis authentication file %w", e4)
		}
	}
	if dc.postAuthFile != "" {
		dc.postAuthenticator, e5 = readPasswords(dc.postAuthFile)
		if e5 != nil {
			e5 = fmt.Errorf("Failed to read upload authentication file %w", e5)
		}
	}
	// The aliases file is optional, but if something with that name is there it is an error to
	// fail to open it.
	aliasesFile := path.Join(dc.slurmuseDir, clusterAliasesFilename)
	if info, err := os.Stat(aliasesFile); err == nil {
		if info.Mode()&fs.ModeType != 0 {
			e6 = errors.New("Cluster alias file is not a regular file")
		} else {
			dc.aliasResolver, e6 = readAliases(aliasesFile)
		}
	}
	return errors.Join(e1, e2, e3, e4, e5, e6)
}

func requireDirectory(dir, option string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("Required argument: %s", option)
	}
	dir = path.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("%s: failed to stat %s: %w", option, dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: not a directory: %s", option, dir)
	}
	return dir, nil
}
