package launch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command is a fully built experiment invocation.
type Command struct {
	Line string   // passed to sh -c
	Env  []string // extra KEY=VALUE entries on top of the parent environment
}

// GPUEnv returns the environment that restricts the child to the given GPUs.
func GPUEnv(gpu string) []string {
	return []string{
		"CUDA_DEVICE_ORDER=PCI_BUS_ID",
		"CUDA_VISIBLE_DEVICES=" + gpu,
	}
}

// BuildCommand returns the shell line that runs experiment module name with
// the layout's directory flags followed by flags. With debug the module is
// started under pdb.
func (c Config) BuildCommand(name string, layout Layout, flags Flags, debug bool) string {
	module := c.ModulePrefix() + "." + name
	head := c.Python + " -m " + module + " "
	if debug {
		head = c.Python + " -m pdb -m " + module + " "
	}
	args := append(layout.Flags().Strings(), flags.Strings()...)
	return head + strings.TrimSpace(strings.Join(args, " "))
}

// Runner executes a command and reports its exit status.
type Runner interface {
	Run(ctx context.Context, cmd Command) (int, error)
}

// ShellRunner runs commands through sh with the launcher's stdio.
type ShellRunner struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewShellRunner returns a ShellRunner attached to the process stdio.
func NewShellRunner() *ShellRunner {
	return &ShellRunner{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// Run executes cmd.Line and returns its exit code. A non-zero exit is not an
// error; an error means the shell could not be run at all.
func (r *ShellRunner) Run(ctx context.Context, cmd Command) (int, error) {
	c := exec.CommandContext(ctx, "sh", "-c", cmd.Line)
	c.Env = append(os.Environ(), cmd.Env...)
	c.Stdin = r.Stdin
	c.Stdout = r.Stdout
	c.Stderr = r.Stderr

	err := c.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	if err != nil {
		return -1, fmt.Errorf("run %q: %w", cmd.Line, err)
	}
	return 0, nil
}
