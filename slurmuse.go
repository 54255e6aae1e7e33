// `slurmuse` -- Normalize and analyze Slurm sacct accounting data
//
// Run `slurmuse help` for brief help.

package main

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"

	"slurmuse/cmd"
	"slurmuse/cmd/add"
	"slurmuse/cmd/daemon"
	"slurmuse/cmd/daily"
	"slurmuse/cmd/jobs"
	"slurmuse/cmd/parse"
	"slurmuse/cmd/rules"
	"slurmuse/table"
)

// v0.1.0 - first cut: parse, jobs, rules, daily, add
// v0.2.0 - added 'daemon' verb with the /api/v1 endpoints and Kafka ingestion

const SlurmuseVersion = "0.2.0"

// The handler is how the daemon replays a remote client's command line through the same parsing
// and dispatch as the command line proper.  Assigned in init() because parseVerb mentions
// stdhandler, which the compiler would reject as an initialization cycle in a var initializer.
var stdhandler cmd.CommandLineHandler

func init() {
	stdhandler = cmd.CommandLineHandler{
		ParseVerb:     parseVerb,
		ParseArgs:     parseArgs,
		HandleCommand: handleCommand,
	}
}

func main() {
	err := slurmuse()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func slurmuse() error {
	out := cmd.CLIOutput()

	if len(os.Args) < 2 {
		fmt.Fprintf(out, "Required operation missing, try `slurmuse help`\n")
		os.Exit(2)
	}

	maybeVerb := os.Args[1]
	switch maybeVerb {
	case "help", "-h":
		printHelp(out)
		os.Exit(0)
	case "version":
		// Must print version on stdout, consumed by scripts.
		fmt.Printf("slurmuse version(%s)\n", SlurmuseVersion)
		os.Exit(0)
	}

	anyCmd, verb := parseVerb(os.Args[0], maybeVerb)
	if anyCmd == nil {
		fmt.Fprintf(out, "Required operation missing, try `slurmuse help`\n")
		os.Exit(2)
	}

	fs := cmd.NewCLI(verb, anyCmd, os.Args[0], true)
	err := parseArgs(verb, os.Args[2:], anyCmd, fs)
	if err != nil {
		fmt.Fprintf(out, "Bad arguments, try -h\n%v\n", err.Error())
		os.Exit(2)
	}

	if fhCmd, ok := anyCmd.(cmd.FormatHelpAPI); ok {
		if h := fhCmd.MaybeFormatHelp(); h != nil {
			table.PrintFormatHelp(out, h)
			os.Exit(0)
		}
	}

	if anyCmd.CpuProfileFile() != "" {
		f, err := os.Create(anyCmd.CpuProfileFile())
		if err != nil {
			return fmt.Errorf("Failed to create profile\n%w", err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if rCmd, ok := anyCmd.(cmd.RemotableCommand); ok && rCmd.RemotingFlags().Remoting {
		return remoteOperation(rCmd, verb, os.Stdin, os.Stdout)
	}

	return handleCommand(anyCmd, os.Stdin, os.Stdout, os.Stderr)
}

func printHelp(out io.Writer) {
	fmt.Fprintf(out, "Usage: %s command [options] [-- logfile ...]\n", os.Args[0])
	fmt.Fprintf(out, "Commands:\n")
	fmt.Fprintf(out, "  add     - add sacct data to a record store\n")
	fmt.Fprintf(out, "  daemon  - run as an HTTP server answering remote requests\n")
	fmt.Fprintf(out, "  daily   - daily consumption against capacity, by QOS\n")
	fmt.Fprintf(out, "  jobs    - summarize and filter jobs with their efficiency\n")
	fmt.Fprintf(out, "  parse   - parse, select and reformat input data\n")
	fmt.Fprintf(out, "  rules   - job efficiency statistics per snakemake rule\n")
	fmt.Fprintf(out, "  version - print information about the program\n")
	fmt.Fprintf(out, "  help    - print this message\n")
	fmt.Fprintf(out, "Each command accepts -h to further explain options.\n")
}

func parseVerb(_, maybeVerb string) (anyCmd cmd.Command, verb string) {
	switch maybeVerb {
	case "add":
		anyCmd = new(add.AddCommand)
	case "daemon":
		anyCmd = daemon.New(stdhandler)
	case "daily":
		anyCmd = new(daily.DailyCommand)
	case "jobs":
		anyCmd = new(jobs.JobsCommand)
	case "parse":
		anyCmd = new(parse.ParseCommand)
	case "rules":
		anyCmd = new(rules.RulesCommand)
	default:
		return
	}
	verb = maybeVerb
	return
}

func parseArgs(verb string, args []string, anyCmd cmd.Command, fs *cmd.CLI) error {
	anyCmd.Add(fs)

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) > 0 {
		if lfCmd, ok := anyCmd.(cmd.SetRestArgumentsAPI); ok {
			lfCmd.SetRestArguments(rest)
		} else {
			return fmt.Errorf("Rest arguments not accepted by `%s`.", verb)
		}
	}

	return anyCmd.Validate()
}

// The daemon enters here too, replaying a parsed remote command.  Remoting never reaches this
// point: the command line proper peels it off after validation, and the daemon rejects remoting
// parameters before replaying.

func handleCommand(anyCmd cmd.Command, stdin io.Reader, stdout, stderr io.Writer) error {
	switch command := anyCmd.(type) {
	case cmd.AnalysisCommand:
		return localAnalysis(command, stdout)
	case *add.AddCommand:
		return command.AddData(stdin)
	case *daemon.DaemonCommand:
		return command.RunDaemon(stdin, stdout, stderr)
	default:
		return fmt.Errorf("NYI command")
	}
}
