package feature

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"firestige.xyz/netcarve/internal/core"
)

// Banner is the first line of every feature file.
const Banner = "# netcarve feature file"

// FileRecorder writes each feature kind to <dir>/<kind>.txt, one
// offset<TAB>value<TAB>context line per feature. Files are created on the
// first feature of their kind.
type FileRecorder struct {
	dir string

	mu     sync.Mutex
	files  map[string]*featureFile
	closed bool
}

type featureFile struct {
	f   *os.File
	buf *bufio.Writer
}

// NewFileRecorder returns a recorder rooted at dir, creating dir if needed.
func NewFileRecorder(dir string) (*FileRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create feature dir %s: %v: %w", dir, err, core.ErrOutputIO)
	}
	return &FileRecorder{dir: dir, files: make(map[string]*featureFile)}, nil
}

// Path returns the file a kind is written to.
func (r *FileRecorder) Path(kind string) string {
	return filepath.Join(r.dir, kind+".txt")
}

// Record appends f to the file of its kind. It fails with ErrOutputIO after
// Close.
func (r *FileRecorder) Record(f Feature) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return fmt.Errorf("feature recorder closed: %w", core.ErrOutputIO)
	}
	ff, err := r.fileLocked(f.Kind)
	if err != nil {
		return err
	}

	line := make([]byte, 0, 64+len(f.Value)+len(f.Context))
	line = strconv.AppendInt(line, f.Offset, 10)
	line = append(line, '\t')
	line = append(line, Escape(f.Value)...)
	line = append(line, '\t')
	line = append(line, Escape(f.Context)...)
	line = append(line, '\n')
	if _, err := ff.buf.Write(line); err != nil {
		return fmt.Errorf("write %s feature: %v: %w", f.Kind, err, core.ErrOutputIO)
	}
	return nil
}

func (r *FileRecorder) fileLocked(kind string) (*featureFile, error) {
	if ff, ok := r.files[kind]; ok {
		return ff, nil
	}
	f, err := os.Create(r.Path(kind))
	if err != nil {
		return nil, fmt.Errorf("create %s feature file: %v: %w", kind, err, core.ErrOutputIO)
	}
	ff := &featureFile{f: f, buf: bufio.NewWriter(f)}
	fmt.Fprintf(ff.buf, "%s\n# kind: %s\n", Banner, kind)
	r.files[kind] = ff
	return ff, nil
}

// Kinds returns how many feature files have been opened.
func (r *FileRecorder) Kinds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// Close flushes and closes every feature file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var first error
	for kind, ff := range r.files {
		err := ff.buf.Flush()
		if cerr := ff.f.Close(); err == nil {
			err = cerr
		}
		if err != nil && first == nil {
			first = fmt.Errorf("close %s feature file: %v: %w", kind, err, core.ErrOutputIO)
		}
	}
	r.files = map[string]*featureFile{}
	r.closed = true
	return first
}
