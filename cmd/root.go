package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/explaunch/explaunch/launch"
)

// launchOptions holds the flags the launcher itself understands. Every other
// flag on the command line belongs to the experiment.
type launchOptions struct {
	gpu          string // CUDA_VISIBLE_DEVICES for the experiment
	debug        bool   // Start the experiment under pdb
	flagfile     string // Defaults for custom flags, one name=value per line
	logLevel     string // Log verbosity level
	launchConfig string // Optional YAML launcher config
	yes          bool   // Delete existing directories without asking
	dryRun       bool   // Print the command instead of running it
}

var (
	opts     launchOptions
	exitCode int
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "explaunch <experiment> [--gpu=0,1] [--flagfile=path] [--name=value ...]",
	Short: "Start an experiment with per-run log, checkpoint, evaluation and tensorboard directories",
	Long: `Start experiment/<experiment>*.py as a python module.

Flags not listed below are custom flags. They are forwarded to the experiment
and, except for --train and --eval, name the run's output directories.`,
	// Custom flags are unknown to cobra; splitArgs separates them.
	DisableFlagParsing: true,
	SilenceUsage:       true,
	Run: func(cmd *cobra.Command, args []string) {
		known, positional, custom := splitArgs(cmd.Flags(), args)
		if err := cmd.Flags().Parse(known); err != nil {
			logrus.Fatalf("Invalid launcher flags: %v", err)
		}
		if help, _ := cmd.Flags().GetBool("help"); help {
			_ = cmd.Help()
			return
		}

		level, err := logrus.ParseLevel(opts.logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", opts.logLevel)
		}
		logrus.SetLevel(level)

		req, err := buildRequest(opts, positional, custom)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		cfg := launch.DefaultConfig()
		if opts.launchConfig != "" {
			if cfg, err = launch.LoadConfig(opts.launchConfig); err != nil {
				logrus.Fatalf("%v", err)
			}
		}

		launcher := &launch.Launcher{
			Config:    cfg,
			Confirmer: newConfirmer(opts.yes),
			Runner:    launch.NewShellRunner(),
		}
		code, err := launcher.Launch(context.Background(), req)
		if err != nil {
			logrus.Fatalf("Launch failed: %v", err)
		}
		exitCode = code
	},
}

// splitArgs separates launcher flags, positional arguments and custom flags.
// Launcher flags taking a value accept both --name=value and --name value.
func splitArgs(fs *pflag.FlagSet, args []string) (known, positional, custom []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-h":
			known = append(known, arg)
		case strings.HasPrefix(arg, "--"):
			name, _, hasValue := strings.Cut(arg[2:], "=")
			f := fs.Lookup(name)
			if f == nil {
				custom = append(custom, arg)
				continue
			}
			known = append(known, arg)
			if !hasValue && f.NoOptDefVal == "" && i+1 < len(args) {
				i++
				known = append(known, args[i])
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			// Single-dash tokens are not valid custom flags; ParseFlag reports them.
			custom = append(custom, arg)
		default:
			positional = append(positional, arg)
		}
	}
	return known, positional, custom
}

// buildRequest validates the positional arguments and merges the flagfile
// under the custom flags.
func buildRequest(o launchOptions, positional, custom []string) (launch.Request, error) {
	if len(positional) != 1 {
		return launch.Request{}, fmt.Errorf("expected exactly one experiment name, got %d: %v", len(positional), positional)
	}
	flags, err := launch.ParseFlags(custom)
	if err != nil {
		return launch.Request{}, err
	}
	flags, err = launch.MergeFlagfile(o.flagfile, flags)
	if err != nil {
		return launch.Request{}, err
	}
	if o.flagfile != "" {
		logrus.Debugf("Custom flags after merging %s: %v", o.flagfile, flags.Strings())
	}
	return launch.Request{
		Experiment: positional[0],
		GPU:        o.gpu,
		Debug:      o.debug,
		DryRun:     o.dryRun,
		Flags:      flags,
	}, nil
}

func newConfirmer(yes bool) launch.Confirmer {
	if yes {
		return launch.AutoConfirmer{Answer: true}
	}
	if fd := os.Stdin.Fd(); !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		logrus.Warn("stdin is not a terminal; deletion prompts read answers from piped input (use --yes to skip them)")
	}
	return launch.NewPromptConfirmer(os.Stdin, os.Stdout)
}

// Execute runs the CLI root command and exits with the experiment's status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	os.Exit(exitCode)
}

func registerFlags(fs *pflag.FlagSet, o *launchOptions) {
	fs.StringVar(&o.gpu, "gpu", "", "Set visible GPU devices")
	fs.BoolVar(&o.debug, "debug", false, "Start experiment with debugger")
	fs.StringVar(&o.flagfile, "flagfile", "", "Path to flagfile")
	fs.StringVar(&o.logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	fs.StringVar(&o.launchConfig, "launch-config", "", "Path to YAML launcher config")
	fs.BoolVar(&o.yes, "yes", false, "Delete existing output directories without asking")
	fs.BoolVar(&o.dryRun, "dry-run", false, "Print the experiment command without running it")
	fs.BoolP("help", "h", false, "Help for explaunch")
}

// init sets up CLI flags
func init() {
	registerFlags(rootCmd.Flags(), &opts)
}
