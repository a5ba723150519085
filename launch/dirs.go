package launch

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

// Confirmer answers yes/no questions, e.g. whether to delete a directory.
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// PromptConfirmer writes the prompt to Out and reads one answer line from In.
// Only an exact "y" is a yes; end of input is a no.
type PromptConfirmer struct {
	In  *bufio.Reader
	Out io.Writer
}

// NewPromptConfirmer wraps in and out in a PromptConfirmer.
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{In: bufio.NewReader(in), Out: out}
}

func (p *PromptConfirmer) Confirm(prompt string) (bool, error) {
	if _, err := fmt.Fprint(p.Out, prompt); err != nil {
		return false, err
	}
	line, err := p.In.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimRight(line, "\r\n") == "y", nil
}

// AutoConfirmer gives the same answer to every question.
type AutoConfirmer struct {
	Answer bool
}

func (a AutoConfirmer) Confirm(string) (bool, error) {
	return a.Answer, nil
}

// Prepare creates every directory in order. An existing directory is removed
// first if c confirms its deletion; otherwise its contents are kept.
func Prepare(dirs []string, c Confirmer) error {
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err == nil && info.IsDir() {
			if size, files, err := dirUsage(dir); err == nil {
				logrus.Infof("%s already exists (%s in %d files)", dir, humanize.Bytes(size), files)
			}
			ok, err := c.Confirm(fmt.Sprintf("Delete %s ?(y/n)", dir))
			if err != nil {
				return fmt.Errorf("confirm deletion of %s: %w", dir, err)
			}
			if ok {
				logrus.Debugf("Removing %s", dir)
				if err := os.RemoveAll(dir); err != nil {
					return fmt.Errorf("remove %s: %w", dir, err)
				}
			}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func dirUsage(dir string) (size uint64, files int, err error) {
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += uint64(info.Size())
		files++
		return nil
	})
	return size, files, err
}

// WriteManifest writes the sorted flags, one per line, to name inside logDir.
// Any previous manifest is replaced.
func WriteManifest(logDir, name string, sorted []string) error {
	path := filepath.Join(logDir, name)
	if err := os.WriteFile(path, []byte(strings.Join(sorted, "\n")), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
