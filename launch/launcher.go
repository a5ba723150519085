package launch

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Request describes one experiment launch.
type Request struct {
	Experiment string // script name prefix under Config.ExperimentDir
	GPU        string
	Debug      bool
	DryRun     bool
	Flags      Flags // merged custom flags, forwarded to the experiment as-is
}

// Launcher resolves, prepares and runs experiments.
type Launcher struct {
	Config    Config
	Confirmer Confirmer
	Runner    Runner
}

// Launch runs req and returns the experiment's exit code.
func (l *Launcher) Launch(ctx context.Context, req Request) (int, error) {
	path, name, err := l.Config.ResolveExperiment(req.Experiment)
	if err != nil {
		return 1, err
	}
	logrus.Infof("Run experiment script: %s", path)

	layout := l.Config.Plan(name, req.Flags)
	line := l.Config.BuildCommand(name, layout, req.Flags, req.Debug)

	if req.DryRun {
		logrus.Infof("Dry run, would execute: %s", line)
		return 0, nil
	}

	if err := Prepare(layout.Dirs(), l.Confirmer); err != nil {
		return 1, err
	}
	sorted := req.Flags.Without(l.Config.FilteredFlags).Sorted()
	if err := WriteManifest(layout[CategoryLog], l.Config.ManifestName, sorted); err != nil {
		return 1, err
	}

	logrus.Infof("Execute: %s", line)
	return l.Runner.Run(ctx, Command{Line: line, Env: GPUEnv(req.GPU)})
}
