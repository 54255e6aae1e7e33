// Handle remotable data analysis commands

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"slurmuse/cmd"
	"slurmuse/cmd/add"
	. "slurmuse/common"
)

// The analyses are windowed and the uploads are modest, so a minute of headroom covers even a slow
// link to the server.
const remoteTimeoutSec = 60

func remoteOperation(rCmd cmd.RemotableCommand, verb string, stdin io.Reader, stdout io.Writer) error {
	r := cmd.NewArgReifier()
	err := rCmd.ReifyForRemote(&r)
	if err != nil {
		return err
	}

	args := rCmd.RemotingFlags()
	var username, password string
	if it := os.Getenv("SLURMUSE_AUTH"); it != "" {
		var ok bool
		username, password, ok = strings.Cut(strings.TrimSpace(it), ":")
		if !ok {
			return errors.New("Invalid SLURMUSE_AUTH syntax")
		}
	} else if args.AuthFile != "" {
		bs, err := os.ReadFile(args.AuthFile)
		if err != nil {
			// Note, file name is redacted
			return errors.New("Failed to read auth file")
		}
		var ok bool
		username, password, ok = strings.Cut(strings.TrimSpace(string(bs)), ":")
		if !ok {
			return errors.New("Invalid auth file syntax")
		}
	}

	url := args.Remote + "/" + verb + "?" + r.EncodedArguments()

	ctx, cancel := context.WithTimeout(context.Background(), remoteTimeoutSec*time.Second)
	defer cancel()

	var req *http.Request
	switch command := rCmd.(type) {
	case cmd.AnalysisCommand:
		req, err = http.NewRequestWithContext(ctx, "GET", url, nil)
	case *add.AddCommand:
		// This turns into a POST with the data coming from stdin
		var contentType string
		switch {
		case command.SlurmSacct:
			contentType = "text/csv"
		case command.SlurmJSON:
			contentType = "application/json"
		default:
			panic("Unknown state of AddCommand")
		}
		req, err = http.NewRequestWithContext(ctx, "POST", url, stdin)
		if err == nil {
			req.Header.Set("Content-Type", contentType)
		}
	default:
		panic("Unimplemented")
	}
	if err != nil {
		return err
	}
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	if rCmd.VerboseFlag() {
		// The credentials are in the header, not the URL, so the URL is safe to log.
		Log.Infof("Executing <%s %s>", req.Method, url)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		// Print this unredacted on the assumption that the remote service doesn't reveal anything
		// it shouldn't.
		return fmt.Errorf("Failed to contact remote host: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("Failed to read response from remote host: %v", err)
	}

	// If there is a processing error on the remote end then the server responds with an error code
	// and the text that would otherwise go to stderr, see runCommand() in cmd/daemon/perform.go.
	if resp.StatusCode >= 300 {
		if len(body) > 0 {
			return fmt.Errorf("Remote: %s", strings.TrimSpace(string(body)))
		}
		return fmt.Errorf("Remote: %s", resp.Status)
	}

	// print, not println, or we end up adding a blank line that confuses consumers
	fmt.Fprint(stdout, string(body))
	return nil
}
