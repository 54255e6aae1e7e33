// When adding a new command to the daemon, several points in this file have to be updated:
//
// - a new handler has to be installed in RunDaemon()
// - any special argument construction has to be created in httpGetHandler() or httpPostHandler()
// - any local-only arguments that should never be forwarded need to be added to the blacklist
//   in argOk()

package daemon

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	. "slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/db"
)

// Note, this is not called Perform(), so that a DaemonCommand is never mistaken for an
// AnalysisCommand.

func (dc *DaemonCommand) RunDaemon(_ io.Reader, _, _ io.Writer) error {
	if err := StartSyslog(logTag); err != nil {
		return fmt.Errorf("FATAL ERROR: Failing to open logger: %v", err)
	}

	// Note "daemon" is not a command here
	http.HandleFunc("/add", httpAddHandler(dc))
	http.HandleFunc("/parse", httpGetHandler(dc, "parse"))
	http.HandleFunc("/jobs", httpGetHandler(dc, "jobs"))
	http.HandleFunc("/rules", httpGetHandler(dc, "rules"))
	http.HandleFunc("/daily", httpGetHandler(dc, "daily"))
	registerAPI(dc, http.DefaultServeMux)

	if dc.kafka {
		startKafka(dc)
	}

	var programFailed bool
	s := newServer(dc.Verbose, dc.port, func(err error) {
		programFailed = true
	})
	go s.start()

	// Wait here until we're stopped by SIGHUP (manual) or SIGTERM (from OS during shutdown).
	//
	// TODO: IMPROVEME: For SIGHUP, we should not exit but should instead reread the password
	// files, the cluster aliases file, and the configuration files (we could purge the config
	// object cache).
	waitForSignal(syscall.SIGHUP, syscall.SIGTERM)
	s.stop()

	if programFailed {
		return errors.New("HTTP server failed to start, or errored out")
	}
	return nil
}

// HTTP handlers
//
// Documented behavior: the server will close the request body, we don't need to do it.

func httpGetHandler(
	dc *DaemonCommand,
	command string,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _, clusterName, ok :=
			requestPreamble(dc, w, r, "GET", dc.getAuthenticator, authRealm, "")
		if !ok {
			return
		}

		arguments, cerr := storeArguments(dc, clusterName)
		if cerr != nil {
			errResponse(w, 400, cerr, "", dc.Verbose)
			return
		}

		for name, vs := range r.URL.Query() {
			if name == "cluster" {
				continue
			}

			if !argOk(name) {
				w.WriteHeader(400)
				fmt.Fprintf(w, "Bad parameter %s", name)
				if dc.Verbose {
					Log.Warningf("Bad parameter %s", name)
				}
				return
			}

			// Repeats are OK, the commands allow them in a number of cases.  Go requires "="
			// between parameter and name for boolean params, but allows it for every type, so do
			// it uniformly.
			for _, v := range vs {
				arguments = append(arguments, "--"+name+"="+v)
			}
		}

		// Everyone gets a config, for capacity-relative values and local database settings.
		arguments = append(
			arguments,
			"--config-file",
			db.MakeConfigFilePath(dc.slurmuseDir, clusterName),
		)

		stdout, ok := runCommand(dc, w, command, arguments, []byte{})
		if !ok {
			return
		}

		w.WriteHeader(200)
		fmt.Fprint(w, stdout)
	}
}

func parseAddQuery(query url.Values, name string) (isSet bool, err error) {
	vs, isName := query[name]
	if !isName {
		return
	}
	if len(vs) == 1 {
		switch vs[0] {
		case "true":
			isSet = true
			return
		case "false":
			return
		}
	}
	err = fmt.Errorf("Bad `%s` parameter", name)
	return
}

func httpAddHandler(dc *DaemonCommand) func(http.ResponseWriter, *http.Request) {
	forSlurmSacct := httpPostHandler(dc, "slurm-sacct", "text/csv")
	forSlurmJSON := httpPostHandler(dc, "slurm-json", "application/json")
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		isSlurmSacct, e1 := parseAddQuery(query, "slurm-sacct")
		isSlurmJSON, e2 := parseAddQuery(query, "slurm-json")
		var e3 error
		if isSlurmSacct == isSlurmJSON {
			e3 = errors.New("Need exactly one of `-slurm-sacct` or `-slurm-json`")
		}
		if err := errors.Join(e1, e2, e3); err != nil {
			w.WriteHeader(400)
			fmt.Fprintf(w, "Bad operation: %s", err.Error())
			if dc.Verbose {
				Log.Warningf("Bad operation: %s", err.Error())
			}
			return
		}
		switch {
		case isSlurmSacct:
			forSlurmSacct(w, r)
		case isSlurmJSON:
			forSlurmJSON(w, r)
		default:
			panic("Unexpected")
		}
	}
}

func httpPostHandler(
	dc *DaemonCommand,
	dataType string,
	contentType string,
) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, userName, clusterName, ok :=
			requestPreamble(dc, w, r, "POST", dc.postAuthenticator, "", contentType)
		if !ok {
			return
		}

		if dc.matchUserAndCluster && userName != "" && clusterName != userName {
			w.WriteHeader(400)
			fmt.Fprintf(w, "Upload not authorized")
			if dc.Verbose {
				Log.Warningf("Upload not authorized")
			}
			return
		}

		arguments, cerr := storeArguments(dc, clusterName)
		if cerr != nil {
			errResponse(w, 400, cerr, "", dc.Verbose)
			return
		}
		arguments = append([]string{"--" + dataType}, arguments...)

		stdout, ok := runCommand(dc, w, "add", arguments, payload)
		if !ok {
			return
		}

		w.WriteHeader(200)
		fmt.Fprint(w, stdout)
	}
}

// The cluster's config decides where its records live: a cluster with a database_url is served
// from Postgres, any other cluster from its file tree under the data directory.
func storeArguments(dc *DaemonCommand, clusterName string) ([]string, error) {
	cfg, err := MaybeGetConfig(db.MakeConfigFilePath(dc.slurmuseDir, clusterName))
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURL != "" {
		return []string{"--database", cfg.DatabaseURL}, nil
	}
	return []string{"--data-dir", db.MakeClusterDataPath(dc.slurmuseDir, clusterName)}, nil
}

func requestPreamble(
	dc *DaemonCommand,
	w http.ResponseWriter,
	r *http.Request,
	method string,
	auth *authenticator,
	realm string,
	contentType string,
) (payload []byte, userName, clusterName string, ok bool) {
	if dc.Verbose {
		// Header reveals auth info, don't put it into logs
		Log.Infof("Request from %s: %v", r.RemoteAddr, r.URL.String())
	}

	if !assertMethod(w, r, method, dc.Verbose) {
		return
	}

	authOk, userName := authenticate(w, r, auth, realm, dc.Verbose)
	if !authOk {
		return
	}

	payload, havePayload := readPayload(w, r, dc.Verbose)
	if !havePayload {
		return
	}

	if contentType != "" {
		if !assertContentType(w, r, contentType, dc.Verbose) {
			return
		}
	}

	clusterValues, found := r.URL.Query()["cluster"]
	if !found || len(clusterValues) != 1 || clusterValues[0] == "" {
		w.WriteHeader(400)
		fmt.Fprintf(w, "Bad parameters - missing or empty or repeated 'cluster'")
		if dc.Verbose {
			Log.Warningf("Bad parameters - missing or empty or repeated 'cluster'")
		}
		return
	}

	clusterName = clusterValues[0]
	if dc.aliasResolver != nil {
		clusterName = dc.aliasResolver.resolve(clusterName)
	}

	ok = true
	return
}

func runCommand(
	dc *DaemonCommand,
	w http.ResponseWriter,
	verb string,
	arguments []string,
	input []byte,
) (stdout string, ok bool) {
	cmdName := "<slurmuse>"

	// Run the command and report the result

	if dc.Verbose {
		Log.Infof("Command: %s %s", cmdName, verb+" "+strings.Join(arguments, " "))
	}

	anyCmd, _ := dc.cmdlineHandler.ParseVerb(cmdName, verb)
	if anyCmd == nil {
		errResponse(w, 400, fmt.Errorf("Bad verb in daemon-dispatched command: %s", verb), "", dc.Verbose)
		return
	}
	fs := NewCLI(verb, anyCmd, cmdName, false)
	err := dc.cmdlineHandler.ParseArgs(verb, arguments, anyCmd, fs)
	if err != nil {
		errResponse(w, 400, err, "", dc.Verbose)
		return
	}

	// The -cpuprofile option is ignored here, it should have forced ParseArgs to error out.

	var stdoutBuf, stderrBuf strings.Builder
	err = dc.cmdlineHandler.HandleCommand(anyCmd, bytes.NewReader(input), &stdoutBuf, &stderrBuf)
	stdout = stdoutBuf.String()
	stderr := stderrBuf.String()
	if err != nil {
		errResponse(w, 400, err, stderr, dc.Verbose)
		return
	}
	if stderr != "" {
		Log.Warningf("%s", stderr)
	}

	ok = true
	return
}

func errResponse(w http.ResponseWriter, code int, err error, stderr string, verbose bool) {
	w.WriteHeader(code)
	fmt.Fprint(w, err.Error())
	if stderr != "" {
		fmt.Fprint(w, "\n", stderr)
	}
	if verbose {
		Log.Warningf("ERROR: %v", err)
	}
}

// Disallow argument names that are malformed or are specific values.  This is not fabulous but
// maintaining a whitelist is a lot of work.

func argOk(arg string) bool {
	// Args are alphabetic and lower-case only, except - is allowed except in the first position
	for i, c := range arg {
		switch {
		case c >= 'a' && c <= 'z':
			// OK
		case c == '-' && i > 0:
			// OK
		default:
			return false
		}
	}

	// Disallow short options (pretty primitive)
	if len(arg) <= 1 {
		return false
	}

	// Specific names are excluded; the names in the comments relate to structure names in
	// cmd/args.go.
	switch arg {
	case "cpuprofile":
		// DevArgs
		return false
	case "data-dir", "data-path":
		// DataDirArgs
		return false
	case "database":
		// DatabaseArgs
		return false
	case "cluster", "remote", "auth-file":
		// RemotingArgs
		return false
	case "config-file":
		// ConfigFileArgs
		return false
	case "verbose", "v":
		// VerboseArgs
		return false
	default:
		return true
	}
}
