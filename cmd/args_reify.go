package cmd

import (
	"net/url"
)

// ArgReifier builds a URL query string from parsed command arguments, for forwarding a command to
// a remote slurmuse service.  The remote end parses the reified arguments with the same flag
// definitions, so every value is encoded as --name=value.

type ArgReifier struct {
	options string
}

func NewArgReifier() ArgReifier {
	return ArgReifier{}
}

func (r *ArgReifier) addString(name, value string) {
	if r.options != "" {
		r.options += "&"
	}
	r.options += url.QueryEscape(name)
	r.options += "="
	r.options += url.QueryEscape(value)
}

func (r *ArgReifier) Bool(n string, v bool) {
	if v {
		r.addString(n, "true")
	}
}

func (r *ArgReifier) String(n, v string) {
	if v != "" {
		r.addString(n, v)
	}
}

func (r *ArgReifier) RepeatableString(n string, vs []string) {
	for _, v := range vs {
		r.String(n, v)
	}
}

func (r *ArgReifier) EncodedArguments() string {
	return r.options
}
