package launch

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Flag is a single pass-through command-line flag. Flags without a value
// (e.g. --train) have HasValue == false.
type Flag struct {
	Name     string
	Value    string
	HasValue bool
}

// String renders the flag as --name=value, or --name when it carries no value.
func (f Flag) String() string {
	if !f.HasValue {
		return "--" + f.Name
	}
	return strings.TrimRight("--"+f.Name+"="+f.Value, " \t\r\n")
}

// Flags is an ordered sequence of pass-through flags.
type Flags []Flag

// ParseFlag parses a --name or --name=value token. The value is everything
// after the first '='.
func ParseFlag(s string) (Flag, error) {
	tok := strings.TrimSpace(s)
	if !strings.HasPrefix(tok, "--") {
		return Flag{}, fmt.Errorf("malformed flag %q: expected --name or --name=value", s)
	}
	name, value, hasValue := strings.Cut(tok[2:], "=")
	if name == "" {
		return Flag{}, fmt.Errorf("malformed flag %q: empty name", s)
	}
	return Flag{Name: name, Value: value, HasValue: hasValue}, nil
}

// ParseFlags parses every token with ParseFlag, preserving order.
func ParseFlags(args []string) (Flags, error) {
	flags := make(Flags, 0, len(args))
	for _, a := range args {
		f, err := ParseFlag(a)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, nil
}

// Strings renders every flag in order.
func (fs Flags) Strings() []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = f.String()
	}
	return out
}

// Without returns the flags whose name is not in names.
func (fs Flags) Without(names []string) Flags {
	skip := make(map[string]bool, len(names))
	for _, n := range names {
		skip[n] = true
	}
	var out Flags
	for _, f := range fs {
		if !skip[f.Name] {
			out = append(out, f)
		}
	}
	return out
}

// Sorted returns the rendered flags sorted lexicographically as whole strings.
func (fs Flags) Sorted() []string {
	out := fs.Strings()
	sort.Strings(out)
	return out
}

// Merge overlays override on base. Names present in both keep their position
// in base and take the value from override; names only in override are
// appended in override order. Later duplicates within one side win.
func Merge(base, override Flags) Flags {
	index := make(map[string]int, len(base)+len(override))
	var out Flags
	put := func(f Flag) {
		if i, ok := index[f.Name]; ok {
			out[i] = f
			return
		}
		index[f.Name] = len(out)
		out = append(out, f)
	}
	for _, f := range base {
		put(f)
	}
	for _, f := range override {
		put(f)
	}
	return out
}

// ReadFlagfile reads one flag per line. Blank lines and lines starting with
// '#' are skipped.
func ReadFlagfile(path string) (Flags, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open flagfile: %w", err)
	}
	defer file.Close()

	var flags Flags
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		f, err := ParseFlag(line)
		if err != nil {
			return nil, fmt.Errorf("flagfile %s line %d: %w", path, lineNo, err)
		}
		flags = append(flags, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read flagfile: %w", err)
	}
	return flags, nil
}

// MergeFlagfile merges the flagfile at path under the command-line flags.
// cli is returned unchanged when path is empty or is not an existing file.
func MergeFlagfile(path string, cli Flags) (Flags, error) {
	if path == "" {
		return cli, nil
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return cli, nil
	}
	fileFlags, err := ReadFlagfile(path)
	if err != nil {
		return nil, err
	}
	return Merge(fileFlags, cli), nil
}
