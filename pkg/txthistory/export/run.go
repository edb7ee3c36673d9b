package export

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/cognicore/txthistory/pkg/txthistory/chunk"
)

// RunLayout names the per-run directory, e.g. 2024-03-04_21-15-00.
const RunLayout = "2006-01-02_15-04-05"

// DefaultConcurrency bounds the number of chunks written at once.
const DefaultConcurrency = 4

// ManifestName is the file a run's manifest is written to.
const ManifestName = "manifest.json"

// File describes one written chunk file.
type File struct {
	Path    string `json:"path"`
	Format  string `json:"format"`
	Chunk   int    `json:"chunk"`
	Entries int    `json:"entries"`
	Bytes   int64  `json:"bytes"`
}

// Manifest records the output of one export run.
type Manifest struct {
	ID        string    `json:"id"`
	Dir       string    `json:"dir"`
	CreatedAt time.Time `json:"created_at"`
	Files     []File    `json:"files"`
}

// TotalBytes sums the size of every written file.
func (m Manifest) TotalBytes() int64 {
	var total int64
	for _, f := range m.Files {
		total += f.Bytes
	}
	return total
}

// Summary is a one-line human readable description of the run.
func (m Manifest) Summary() string {
	return fmt.Sprintf("run %s: %d files, %s in %s", m.ID, len(m.Files), humanize.Bytes(uint64(m.TotalBytes())), m.Dir)
}

// Runner writes chunked exports into timestamped run directories.
type Runner struct {
	Dir         string
	Formats     []Format
	Concurrency int
	Now         func() time.Time

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewRunner creates a runner writing under dir.
func NewRunner(dir string, formats ...Format) *Runner {
	if len(formats) == 0 {
		formats = Formats
	}
	return &Runner{
		Dir:         dir,
		Formats:     formats,
		Concurrency: DefaultConcurrency,
		Now:         time.Now,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}
}

// ChunkPath returns where chunk index is written for format inside runDir.
// JSON chunks sit at the top of the run; text and CSV chunks get their own
// subdirectories.
func ChunkPath(runDir string, format Format, index int) string {
	name := fmt.Sprintf("chunk_%d%s", index, format.Extension())
	switch format {
	case FormatText:
		return filepath.Join(runDir, "chunks_txt", name)
	case FormatCSV:
		return filepath.Join(runDir, "chunks_csv", name)
	}
	return filepath.Join(runDir, name)
}

// Write exports every chunk in every configured format and writes the
// run manifest. Each call gets its own run directory, so runs started within
// the same second never share one. Chunks are written concurrently; the first
// error wins.
func (r *Runner) Write(ctx context.Context, chunks []chunk.Chunk[Entry]) (Manifest, error) {
	now := r.Now()
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return Manifest{}, fmt.Errorf("create output directory: %w", err)
	}
	runDir, err := claimRunDir(r.Dir, now.Format(RunLayout))
	if err != nil {
		return Manifest{}, err
	}

	r.mu.Lock()
	id := ulid.MustNew(ulid.Timestamp(now), r.entropy).String()
	r.mu.Unlock()

	limit := r.Concurrency
	if limit <= 0 {
		limit = 1
	}

	files := make([][]File, len(chunks))
	sem := make(chan struct{}, limit)
	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	for i, c := range chunks {
		if err := ctx.Err(); err != nil {
			errOnce.Do(func() { firstErr = err })
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, c chunk.Chunk[Entry]) {
			defer wg.Done()
			defer func() { <-sem }()

			written, err := r.writeChunk(runDir, c)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				return
			}
			files[i] = written
		}(i, c)
	}
	wg.Wait()
	if firstErr != nil {
		return Manifest{}, firstErr
	}

	m := Manifest{ID: id, Dir: runDir, CreatedAt: now}
	for _, written := range files {
		m.Files = append(m.Files, written...)
	}
	if err := writeManifest(filepath.Join(runDir, ManifestName), m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// claimRunDir creates a fresh run directory under parent. When name is
// already taken, a numeric suffix is added: name_2, name_3, ...
func claimRunDir(parent, name string) (string, error) {
	dir := filepath.Join(parent, name)
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("create run directory: %w", err)
		}
		dir = filepath.Join(parent, fmt.Sprintf("%s_%d", name, n))
	}
}

func (r *Runner) writeChunk(runDir string, c chunk.Chunk[Entry]) ([]File, error) {
	out := make([]File, 0, len(r.Formats))
	for _, format := range r.Formats {
		path := ChunkPath(runDir, format, c.Index)
		if err := WriteFile(path, c.Items, format); err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c.Index, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		out = append(out, File{
			Path:    path,
			Format:  format.String(),
			Chunk:   c.Index,
			Entries: len(c.Items),
			Bytes:   info.Size(),
		})
	}
	return out, nil
}

func writeManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest written by Runner.Write.
func LoadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return m, nil
}

// WriteRun writes chunks under dir with default settings.
func WriteRun(ctx context.Context, dir string, chunks []chunk.Chunk[Entry], formats ...Format) (Manifest, error) {
	return NewRunner(dir, formats...).Write(ctx, chunks)
}
