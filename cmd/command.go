package cmd

import (
	"io"

	. "slurmuse/common"
	"slurmuse/sacct"
	"slurmuse/table"
)

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Interfaces that the various commands can implement to respond to various situations.

type FormatHelpAPI interface {
	// If the command accepts a -fmt argument and the value of that argument is "help", return a
	// non-nil object here with formatter help.
	MaybeFormatHelp() *table.FormatHelp
}

type SetRestArgumentsAPI interface {
	// Install any left-over arguments into the arguments object
	SetRestArguments(args []string)
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// Any command of any type must be able to define and validate command line args, and handle some
// developer arguments.

type Command interface {
	// Return the name of the cpu profile file, if requested
	CpuProfileFile() string

	// Documentation, one line per string
	Summary() []string

	// Add all arguments including shared arguments
	Add(fs *CLI)

	// Validate all arguments including shared arguments
	Validate() error

	// The -v flag
	VerboseFlag() bool
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// A command that can be sent to a remote server for evaluation there.

type RemotableCommand interface {
	Command

	// Reify all arguments including shared arguments for remote execution, with checking
	ReifyForRemote(x *ArgReifier) error

	// Retrieve the remoting arguments
	RemotingFlags() *RemotingArgsNoCluster
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// An analysis command reads accounting records from some store and digests them for printing.
// The driver opens the store, reads the window given by the source arguments, and hands the
// records to Perform.

type AnalysisCommand interface {
	RemotableCommand
	SetRestArgumentsAPI
	FormatHelpAPI

	// Retrieve the source arguments
	SourceFlags() *SourceArgs

	// Retrieve the config file name for those commands that allow it, otherwise ""
	ConfigFile() string

	// Perform the operation on the records read from the store
	Perform(out io.Writer, cfg *ClusterConfig, records []*sacct.Record) error
}

///////////////////////////////////////////////////////////////////////////////////////////////////
//
// This is a container for behavior.  CommandLineHandler is a hack that's really only necessary to
// deal with Go's prohibition against circular package dependencies: the daemon code calls indirect
// back up to the application level, which can then call down to the engine again.

type CommandLineHandler struct {
	// Translate `maybeVerb` into a Command and return a normalized verb.  If the translation failed
	// then `cmd` will be nil and `verb` will be "".  The `cmdName` is the name of the program
	// (argv[0]).
	ParseVerb func(cmdName, maybeVerb string) (cmd Command, verb string)

	// Given a verb and command returned from ParseVerb, and a list of arguments and an empty but
	// otherwise initialized flag set, set up argument parsing, perform it, and validate the result.
	ParseArgs func(verb string, args []string, cmd Command, fs *CLI) error

	// Given a command initialized with parsed arguments, and i/o streams, run the command.
	HandleCommand func(anyCmd Command, stdin io.Reader, stdout, stderr io.Writer) error
}
