package launch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRunner records commands instead of running them.
type fakeRunner struct {
	code int
	cmds []Command
}

func (f *fakeRunner) Run(_ context.Context, cmd Command) (int, error) {
	f.cmds = append(f.cmds, cmd)
	return f.code, nil
}

// newTestLauncher points every configured path into a temp dir that holds a
// single experiment script, experiment/foo.py.
func newTestLauncher(t *testing.T, c Confirmer, r Runner) (*Launcher, string) {
	t.Helper()
	root := t.TempDir()
	cfg := DefaultConfig()
	cfg.ExperimentDir = filepath.Join(root, "experiment")
	for cat, base := range cfg.Directories {
		cfg.Directories[cat] = filepath.Join(root, base)
	}
	require.NoError(t, os.MkdirAll(cfg.ExperimentDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ExperimentDir, "foo.py"), nil, 0o644))
	return &Launcher{Config: cfg, Confirmer: c, Runner: r}, root
}

func TestLaunch_CreatesLayoutWritesManifestAndRuns(t *testing.T) {
	// GIVEN an experiment and custom flags including the filtered --eval
	runner := &fakeRunner{code: 7}
	l, root := newTestLauncher(t, AutoConfirmer{}, runner)
	flags := mustFlags(t, "--lr=0.1", "--eval", "--batch=32")

	// WHEN it is launched
	code, err := l.Launch(context.Background(), Request{Experiment: "foo", GPU: "3", Flags: flags})

	// THEN the child's exit status is returned
	require.NoError(t, err)
	assert.Equal(t, 7, code)

	// AND every directory exists under the filtered suffix
	for _, base := range []string{"log", "checkpoint", "evaluation", "tensorboard"} {
		assert.DirExists(t, filepath.Join(root, base, "foo--batch=32--lr=0.1"))
	}

	// AND the manifest holds the sorted, filtered flags
	data, err := os.ReadFile(filepath.Join(root, "log", "foo--batch=32--lr=0.1", "flags"))
	require.NoError(t, err)
	assert.Equal(t, "--batch=32\n--lr=0.1", string(data))

	// AND the child sees the GPU environment and every custom flag
	require.Len(t, runner.cmds, 1)
	assert.Equal(t, GPUEnv("3"), runner.cmds[0].Env)
	assert.Contains(t, runner.cmds[0].Line, "-m "+l.Config.ModulePrefix()+".foo ")
	assert.Contains(t, runner.cmds[0].Line, " --lr=0.1 --eval --batch=32")
}

func TestLaunch_RerunDeclinedKeepsContents(t *testing.T) {
	l, root := newTestLauncher(t, AutoConfirmer{Answer: false}, &fakeRunner{})
	req := Request{Experiment: "foo", Flags: mustFlags(t, "--lr=0.1")}

	_, err := l.Launch(context.Background(), req)
	require.NoError(t, err)
	ckpt := filepath.Join(root, "checkpoint", "foo--lr=0.1", "step-100")
	require.NoError(t, os.WriteFile(ckpt, []byte("w"), 0o644))

	// identical flags in another order reuse the same directories
	req.Flags = mustFlags(t, "--lr=0.1", "--train")
	_, err = l.Launch(context.Background(), req)
	require.NoError(t, err)

	assert.FileExists(t, ckpt)
}

func TestLaunch_RerunConfirmedClearsContents(t *testing.T) {
	l, root := newTestLauncher(t, AutoConfirmer{Answer: true}, &fakeRunner{})
	req := Request{Experiment: "foo"}

	_, err := l.Launch(context.Background(), req)
	require.NoError(t, err)
	stale := filepath.Join(root, "tensorboard", "foo", "events.out")
	require.NoError(t, os.WriteFile(stale, []byte("w"), 0o644))

	_, err = l.Launch(context.Background(), req)
	require.NoError(t, err)

	assert.NoFileExists(t, stale)
	assert.DirExists(t, filepath.Join(root, "tensorboard", "foo"))
}

func TestLaunch_DryRunTouchesNothing(t *testing.T) {
	runner := &fakeRunner{}
	l, root := newTestLauncher(t, AutoConfirmer{}, runner)

	code, err := l.Launch(context.Background(), Request{Experiment: "foo", DryRun: true})

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Empty(t, runner.cmds)
	assert.NoDirExists(t, filepath.Join(root, "log"))
}

func TestLaunch_UnknownExperiment(t *testing.T) {
	runner := &fakeRunner{}
	l, _ := newTestLauncher(t, AutoConfirmer{}, runner)

	code, err := l.Launch(context.Background(), Request{Experiment: "bar"})

	require.Error(t, err)
	assert.Equal(t, 1, code)
	assert.Empty(t, runner.cmds)
}
