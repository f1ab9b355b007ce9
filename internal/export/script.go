package export

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/Amerone/dabase-tool/internal/core"
)

// scriptFile is a buffered output script. The first write error is kept and
// later writes become no-ops, so callers check it once at Close.
type scriptFile struct {
	path string
	f    *os.File
	w    *bufio.Writer
	err  error
}

func createScript(path string) (*scriptFile, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: failed to create parent directory for %s: %w", core.ErrIO, path, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create export file at %s: %w", core.ErrIO, path, err)
	}
	return &scriptFile{path: path, f: f, w: bufio.NewWriter(f)}, nil
}

func (s *scriptFile) line(text string) {
	if s.err != nil {
		return
	}
	if _, err := s.w.WriteString(text); err != nil {
		s.err = err
		return
	}
	s.err = s.w.WriteByte('\n')
}

func (s *scriptFile) linef(format string, args ...any) {
	s.line(fmt.Sprintf(format, args...))
}

func (s *scriptFile) blank() {
	s.line("")
}

// lines writes each statement on its own line.
func (s *scriptFile) lines(stmts []string) {
	for _, stmt := range stmts {
		s.line(stmt)
	}
}

// section writes a blank separator followed by stmts, or nothing when stmts
// is empty.
func (s *scriptFile) section(stmts []string) {
	if len(stmts) == 0 {
		return
	}
	s.blank()
	s.lines(stmts)
}

func (s *scriptFile) Close() error {
	err := s.err
	err = multierr.Append(err, s.w.Flush())
	err = multierr.Append(err, s.f.Close())
	if err != nil {
		return fmt.Errorf("%w: failed to write %s: %w", core.ErrIO, s.path, err)
	}
	return nil
}

// closeScript closes s into *errp, keeping an earlier error.
func closeScript(s *scriptFile, errp *error) {
	*errp = multierr.Append(*errp, s.Close())
}
