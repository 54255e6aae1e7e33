// Server plumbing for the daemon: a stoppable HTTP listener, request assertions, HTTP basic
// authentication against a password file, cluster-name aliasing, and signal waiting.

package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	. "slurmuse/common"
)

const serverShutdownTimeoutSec = 10

type server struct {
	verbose bool
	port    uint
	failed  func(error)
	stopped chan bool
	srv     *http.Server
}

// Create a server that will be listening on `port`.  It will call `failed` if the server returns
// a failure code.  The server is not started by this.
func newServer(verbose bool, port uint, failed func(error)) *server {
	return &server{
		verbose: verbose,
		port:    port,
		failed:  failed,
		stopped: make(chan bool),
	}
}

// Start the server.  This blocks the current goroutine until the server exits, so typical usage
// would be `go s.start()`.  To force the server to shut down, call s.stop().  When the server
// exits, it will call s.failed if there was an error.
func (s *server) start() {
	if s.verbose {
		Log.Infof("Listening on port %d", s.port)
	}
	s.srv = &http.Server{Addr: fmt.Sprintf(":%d", s.port)}
	err := s.srv.ListenAndServe()
	if err != nil {
		if err != http.ErrServerClosed {
			Log.Errorf("%s", err.Error())
			Log.Errorf("SERVER NOT RUNNING")
			if s.failed != nil {
				s.failed(err)
			}
		} else {
			Log.Infof("%s", err.Error())
		}
	}
	s.stopped <- true
}

// Cause the server to shut down and stop.
func (s *server) stop() {
	ctx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeoutSec*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		Log.Warningf("%s", err.Error())
	}
	<-s.stopped
}

func waitForSignal(signals ...os.Signal) {
	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, signals...)
	<-stopSignal
}

// Assert that the method in the request is `method`.  If not, signal a 403 response and log it.
func assertMethod(w http.ResponseWriter, r *http.Request, method string, verbose bool) bool {
	if r.Method != method {
		w.WriteHeader(403)
		fmt.Fprintf(w, "Bad method")
		if verbose {
			Log.Warningf("Bad method: %s", r.Method)
		}
		return false
	}
	return true
}

// Read the payload from a request and return it.  If the reading fails, signal a 400 and log it.
func readPayload(w http.ResponseWriter, r *http.Request, verbose bool) ([]byte, bool) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(400)
		fmt.Fprintf(w, "Bad content")
		if verbose {
			Log.Warningf("Bad content - can't read the body")
		}
		return nil, false
	}
	return payload, true
}

func assertContentType(w http.ResponseWriter, r *http.Request, requestedContentType string, verbose bool) bool {
	ct, ok := r.Header["Content-Type"]
	if !ok || ct[0] != requestedContentType {
		receivedContentType := "(no type)"
		if ok {
			receivedContentType = ct[0]
		}
		w.WriteHeader(400)
		fmt.Fprintf(w, "Bad content-type")
		if verbose {
			Log.Warningf("Bad content-type got %s wanted %s", receivedContentType, requestedContentType)
		}
		return false
	}
	return true
}

// Given a (possibly nil) authenticator (user-to-password mapping) and a request, apply HTTP basic
// authentication for the given realm.  If the authentication fails then signal a 401 response and
// log the error.
//
// The realm name can be empty, in which case no further information is requested, the request
// will just fail.  This is sensible when the client is supposed to know the realm for which to
// authenticate.
func authenticate(
	w http.ResponseWriter,
	r *http.Request,
	auth *authenticator,
	realm string,
	verbose bool,
) (bool, string) {
	user, pass, ok := r.BasicAuth()
	passed := (!ok && auth == nil) || (ok && auth != nil && auth.authenticate(user, pass))
	if !passed {
		if auth != nil && realm != "" {
			w.Header().Add("WWW-Authenticate", "Basic realm=\""+realm+"\", charset=\"utf-8\"")
		}
		w.WriteHeader(401)
		fmt.Fprintf(w, "Unauthorized")
		if verbose {
			Log.Warningf("Authorization failed")
		}
		return false, ""
	}
	return true, user
}

// A password file has a sequence of lines, each with a username:password syntax (blanks are
// significant, but empty lines are ignored).

// MT: Locked
type authenticator struct {
	lock       sync.RWMutex
	identities map[string]string
}

func readPasswords(filename string) (*authenticator, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	m := make(map[string]string)
	for i, l := range strings.Split(string(bs), "\n") {
		s := strings.TrimSpace(l)
		if s == "" {
			continue
		}
		user, pass, found := strings.Cut(s, ":")
		if !found {
			return nil, fmt.Errorf("Password file has the wrong format (line %d)", i+1)
		}
		if _, dup := m[user]; dup {
			return nil, fmt.Errorf("Password file has duplicated user name (line %d)", i+1)
		}
		m[user] = pass
	}
	return &authenticator{identities: m}, nil
}

func (a *authenticator) authenticate(user, pass string) bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	probe, found := a.identities[user]
	return found && probe == pass
}

// The alias file maps a short cluster name to a full name.  There can be multiple short names
// mapping to the same long name.  The input is a JSON file with an array of mappings:
//
//  [{"alias":"c1", "value":"cluster1.example.com"}, ...]

// MT: Immutable after initialization
type aliases struct {
	mapping map[string]string
}

func readAliases(filepath string) (*aliases, error) {
	all, err := os.ReadFile(filepath)
	if err != nil {
		return nil, err
	}

	type aliasEncoding struct {
		Alias string `json:"alias"`
		Value string `json:"value"`
	}

	var encoded []aliasEncoding
	err = json.Unmarshal(all, &encoded)
	if err != nil {
		return nil, errors.New("Failed to unmarshal aliases")
	}

	mapping := make(map[string]string)
	for _, e := range encoded {
		mapping[e.Alias] = e.Value
	}
	return &aliases{mapping: mapping}, nil
}

func (a *aliases) resolve(alias string) string {
	if m, found := a.mapping[alias]; found {
		return m
	}
	return alias
}
