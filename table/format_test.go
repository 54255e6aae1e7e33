package table

import (
	"reflect"
	"strings"
	"testing"
)

type frow struct {
	Name string `desc:"the name"`
	N    int64  `desc:"the count" alias:"num"`
}

func frowTable() (map[string]Formatter, map[string][]string) {
	formatters := DefineTableFromTags(reflect.TypeFor[frow](), nil)
	aliases := map[string][]string{"all": []string{"Name", "N"}}
	return formatters, aliases
}

func TestParseFormatSpec(t *testing.T) {
	formatters, aliases := frowTable()

	fields, others, err := ParseFormatSpec("Name,N", "", formatters, aliases)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 2 || fields[0].Name != "Name" || fields[1].Name != "N" {
		t.Fatal(fields)
	}
	if len(others) != 0 {
		t.Fatal(others)
	}

	// Aliases expand, unknown words become attributes, field aliases resolve.
	fields, others, err = ParseFormatSpec("Name", "all,num,csv,header", formatters, aliases)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 3 || fields[0].Name != "Name" || fields[1].Name != "N" || fields[2].Name != "num" {
		t.Fatal(fields)
	}
	if !others["csv"] || !others["header"] || len(others) != 2 {
		t.Fatal(others)
	}

	// Modifiers attach to the field and extend the header.
	fields, _, err = ParseFormatSpec("", "N/sec", formatters, aliases)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 || fields[0].Name != "N" || fields[0].Mod != PrintModSec || fields[0].Header != "N/sec" {
		t.Fatal(fields)
	}
}

func TestStandardFormatOptions(t *testing.T) {
	opts := StandardFormatOptions(map[string]bool{}, DefaultFixed)
	if !opts.Fixed || !opts.Header || opts.Csv || opts.Json {
		t.Fatalf("%+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"csv": true}, DefaultFixed)
	if !opts.Csv || opts.Header || opts.Fixed {
		t.Fatalf("%+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"csvnamed": true, "nodefaults": true}, DefaultFixed)
	if !opts.Csv || !opts.Named || !opts.NoDefaults {
		t.Fatalf("%+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"json": true, "header": true}, DefaultFixed)
	if !opts.Json || opts.Header {
		t.Fatalf("%+v", opts)
	}
	opts = StandardFormatOptions(map[string]bool{"fixed": true, "noheader": true, "tag:abc": true}, DefaultNone)
	if !opts.Fixed || opts.Header || opts.Tag != "abc" {
		t.Fatalf("%+v", opts)
	}
}

func formatToString(spec string, def DefaultFormat, data []any) string {
	formatters, aliases := frowTable()
	fields, others, err := ParseFormatSpec("Name,N", spec, formatters, aliases)
	if err != nil {
		panic(err)
	}
	opts := StandardFormatOptions(others, def)
	var buf strings.Builder
	FormatData(&buf, fields, formatters, opts, data)
	return buf.String()
}

func TestFormatData(t *testing.T) {
	data := []any{&frow{"alpha", 10}, &frow{"b", 7}}

	if s := formatToString("", DefaultFixed, data); s != "Name   N\nalpha  10\nb      7\n" {
		t.Fatalf("fixed %q", s)
	}
	if s := formatToString("Name,N,csv,header", DefaultFixed, data); s != "Name,N\nalpha,10\nb,7\n" {
		t.Fatalf("csv %q", s)
	}
	if s := formatToString("Name,N,csvnamed", DefaultFixed, data); s != "Name=alpha,N=10\nName=b,N=7\n" {
		t.Fatalf("csvnamed %q", s)
	}
	if s := formatToString("Name,N,json", DefaultFixed, data); s != `[{"Name":"alpha","N":"10"},{"Name":"b","N":"7"}]` {
		t.Fatalf("json %q", s)
	}
	if s := formatToString("Name,N,awk", DefaultFixed, data); s != "alpha 10\nb 7\n" {
		t.Fatalf("awk %q", s)
	}
}

func TestFormatDataNoDefaults(t *testing.T) {
	data := []any{&frow{"alpha", 0}}

	// In csv mode a skipped field is printed empty so rows keep their arity.
	if s := formatToString("Name,N,csv,nodefaults", DefaultFixed, data); s != "alpha,\n" {
		t.Fatalf("csv nodefaults %q", s)
	}
	// In csvnamed mode it vanishes.
	if s := formatToString("Name,N,csvnamed,nodefaults", DefaultFixed, data); s != "Name=alpha\n" {
		t.Fatalf("csvnamed nodefaults %q", s)
	}
	// In json mode it vanishes.
	if s := formatToString("Name,N,json,nodefaults", DefaultFixed, data); s != `[{"Name":"alpha"}]` {
		t.Fatalf("json nodefaults %q", s)
	}
}

func TestDefAlias(t *testing.T) {
	formatters, aliases := frowTable()
	DefAlias(formatters, "Name", "title")
	fields, _, err := ParseFormatSpec("Name,N", "title", formatters, aliases)
	if err != nil {
		t.Fatal(err)
	}
	if len(fields) != 1 || fields[0].Name != "title" {
		t.Fatal(fields)
	}
	if s := fields[0].Name; formatters[s].AliasOf != "Name" {
		t.Fatal(formatters[s])
	}
}
