package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/meshboot/internal/app"
	"github.com/specialistvlad/meshboot/internal/supervisor"
	"github.com/specialistvlad/meshboot/internal/validate"
)

// Exit codes
const (
	ExitUsage   = 2
	ExitInvalid = 3
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// ExitCode maps an error returned by the app to a process exit code: a
// rejected topology exits with ExitInvalid, anything else with 1.
func ExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var v *validate.Violation
	if errors.As(err, &v) {
		return ExitInvalid
	}
	return 1
}

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("meshboot", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
meshboot - validate a mesh topology and bootstrap one actor per node.

Usage:
  meshboot [options] [TOPOLOGY_PATH]

Arguments:
  TOPOLOGY_PATH
    Path to a single .hcl/.yaml file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	var vars stringList
	topologyFlag := flagSet.String("topology", "", "Path to the topology file or directory.")
	tFlag := flagSet.String("t", "", "Path to the topology file or directory (shorthand).")
	flagSet.Var(&vars, "var", "Set a topology variable as name=value. Repeatable.")
	checkFlag := flagSet.Bool("check", false, "Validate the topology, print the report and exit.")
	durationFlag := flagSet.Duration("duration", 0, "Stop the mesh after this long. 0 runs until interrupted.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "json", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	parallelismFlag := flagSet.Int("parallelism", 0, "Maximum concurrent node constructions. 0 is unlimited.")
	eventsURLFlag := flagSet.String("events-url", "", "Socket.IO endpoint that receives node events.")
	pollFlag := flagSet.Duration("poll-interval", supervisor.DefaultInterval, "How often the supervisor polls node events.")
	probeFlag := flagSet.Bool("probe", false, "Ask every server for its type from every web client after start.")
	seedFlag := flagSet.Uint64("seed", 0, "Seed for relay drop decisions.")
	delayFlag := flagSet.Duration("relay-delay", 0, "Per-hop latency of the 'delayed' relay behaviour. 0 disables it.")
	contentFlag := flagSet.String("content", "", "Directory served by the servers instead of the built-in pages.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *topologyFlag != "" {
		path = *topologyFlag
	} else if *tFlag != "" {
		path = *tFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Topology path determined.", "path", path)

	if path == "" {
		slog.Debug("No topology path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		TopologyPath:    path,
		Variables:       vars,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		HealthcheckPort: *healthPortFlag,
		CheckOnly:       *checkFlag,
		Duration:        *durationFlag,
		Parallelism:     *parallelismFlag,
		EventsURL:       *eventsURLFlag,
		PollInterval:    *pollFlag,
		Probe:           *probeFlag,
		Seed:            *seedFlag,
		RelayDelay:      *delayFlag,
		ContentDir:      *contentFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: ExitUsage, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
