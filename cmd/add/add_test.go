package add

import (
	"strings"
	"testing"
)

func TestAddValidate(t *testing.T) {
	var ac AddCommand
	ac.SlurmSacct = true
	ac.DataDir = "data/fox"
	if err := ac.Validate(); err != nil {
		t.Fatal(err)
	}

	// Exactly one input format must be requested.
	ac = AddCommand{}
	ac.DataDir = "data/fox"
	err := ac.Validate()
	if err == nil || !strings.Contains(err.Error(), "Exactly one of") {
		t.Fatalf("Expected format error, got %v", err)
	}
	ac.SlurmSacct = true
	ac.SlurmJSON = true
	err = ac.Validate()
	if err == nil || !strings.Contains(err.Error(), "Exactly one of") {
		t.Fatalf("Expected format error, got %v", err)
	}

	// Remoting excludes the local store.
	ac = AddCommand{}
	ac.SlurmSacct = true
	ac.Remote = "https://example.com"
	ac.Cluster = "fox"
	ac.DataDir = "data/fox"
	err = ac.Validate()
	if err == nil || !strings.Contains(err.Error(), "-data-dir may not be used") {
		t.Fatalf("Expected conflict, got %v", err)
	}

	// A remote upload carries no local source at all.
	ac = AddCommand{}
	ac.SlurmJSON = true
	ac.Remote = "https://example.com"
	ac.Cluster = "fox"
	if err := ac.Validate(); err != nil {
		t.Fatal(err)
	}

	// A local upload must have somewhere to put the data.
	t.Setenv("SLURMUSE_ROOT", "")
	ac = AddCommand{}
	ac.SlurmSacct = true
	err = ac.Validate()
	if err == nil || !strings.Contains(err.Error(), "Required -data-dir") {
		t.Fatalf("Expected missing-store error, got %v", err)
	}
}
