package launch

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Layout maps each output category to the directory used for one run.
type Layout map[Category]string

// Dirs returns the directories in category order.
func (l Layout) Dirs() []string {
	dirs := make([]string, 0, len(Categories))
	for _, c := range Categories {
		if d, ok := l[c]; ok {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// Flags returns the --<category>_dir flags in category order.
func (l Layout) Flags() Flags {
	flags := make(Flags, 0, len(Categories))
	for _, c := range Categories {
		if d, ok := l[c]; ok {
			flags = append(flags, Flag{Name: c.FlagName(), Value: d, HasValue: true})
		}
	}
	return flags
}

// Suffix is the canonical directory suffix for a flag set: filtered names are
// dropped, the rest sorted as rendered strings and concatenated.
func Suffix(flags Flags, filtered []string) string {
	return strings.Join(flags.Without(filtered).Sorted(), "")
}

// Plan resolves the output directories of experiment name run with flags.
func (c Config) Plan(name string, flags Flags) Layout {
	suffix := Suffix(flags, c.FilteredFlags)
	layout := make(Layout, len(Categories))
	for _, cat := range Categories {
		layout[cat] = filepath.Join(c.Directories[cat], name+suffix)
	}
	return layout
}

// ResolveExperiment finds the first script in the experiment directory whose
// file name starts with name and returns its path and base name.
func (c Config) ResolveExperiment(name string) (path, base string, err error) {
	matches, err := filepath.Glob(filepath.Join(c.ExperimentDir, name+"*.py"))
	if err != nil {
		return "", "", fmt.Errorf("resolve experiment %q: %w", name, err)
	}
	if len(matches) == 0 {
		return "", "", fmt.Errorf("no experiment script matches %q in %s", name, c.ExperimentDir)
	}
	path = matches[0]
	base, _, _ = strings.Cut(filepath.Base(path), ".")
	return path, base, nil
}
