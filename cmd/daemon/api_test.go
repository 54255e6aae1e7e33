package daemon

import (
	"encoding/base64"
	"testing"
)

func TestParseBasicAuth(t *testing.T) {
	// The password may itself contain a colon, only the first one splits.
	header := "Basic " + base64.StdEncoding.EncodeToString([]byte("alice:sec:ret"))
	user, pass, ok := parseBasicAuth(header)
	if !ok || user != "alice" || pass != "sec:ret" {
		t.Fatalf("Expected alice/sec:ret, got %s/%s/%v", user, pass, ok)
	}
	if _, _, ok := parseBasicAuth(""); ok {
		t.Fatal("Expected failure on a missing header")
	}
	if _, _, ok := parseBasicAuth("Bearer xyzzy"); ok {
		t.Fatal("Expected failure on a non-Basic scheme")
	}
	if _, _, ok := parseBasicAuth("Basic !!!"); ok {
		t.Fatal("Expected failure on undecodable base64")
	}
	noColon := "Basic " + base64.StdEncoding.EncodeToString([]byte("alicesecret"))
	if _, _, ok := parseBasicAuth(noColon); ok {
		t.Fatal("Expected failure when the credentials have no colon")
	}
}
