package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/KaramelBytes/tablescope/internal/analysis"
	"github.com/KaramelBytes/tablescope/internal/utils"
	"github.com/google/uuid"
)

const (
	manifestFileName = "workspace.json"
	uploadsDirName   = "uploads"
)

// Workspace stores imported source files under a data directory and tracks
// them in a JSON manifest. It is safe for concurrent use.
type Workspace struct {
	root    string
	allowed []string
	opt     analysis.Options

	mu       sync.Mutex
	datasets map[string]*Dataset
}

type manifest struct {
	Datasets  map[string]*Dataset `json:"datasets"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// Open loads the workspace at root, creating it when absent. allowed lists
// the accepted file extensions; opt is used to verify imports.
func Open(root string, allowed []string, opt analysis.Options) (*Workspace, error) {
	if root == "" {
		return nil, errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(filepath.Join(root, uploadsDirName)); err != nil {
		return nil, fmt.Errorf("ensure dir: %w", err)
	}
	w := &Workspace{
		root:     root,
		allowed:  append([]string(nil), allowed...),
		opt:      opt,
		datasets: make(map[string]*Dataset),
	}
	b, err := os.ReadFile(filepath.Join(root, manifestFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return w, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Datasets != nil {
		w.datasets = m.Datasets
	}
	return w, nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.root }

// save writes the manifest atomically. Callers hold mu.
func (w *Workspace) save() error {
	data, err := utils.PrettyJSON(manifest{Datasets: w.datasets, UpdatedAt: time.Now()})
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.root, manifestFileName), data)
}

// Import copies the file at path into the workspace.
func (w *Workspace) Import(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &analysis.NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()
	return w.ImportReader(filepath.Base(path), f, 0)
}

// ImportReader stores the bytes of r as a new dataset called name. A
// positive limit caps the accepted size. The stored file is verified by
// loading it once; on any failure nothing is left behind.
func (w *Workspace) ImportReader(name string, r io.Reader, limit int64) (*Dataset, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "." || name == string(filepath.Separator) || !utils.AllowedExtension(name, w.allowed) {
		return nil, &ExtensionError{Name: name, Allowed: w.allowed}
	}
	id := uuid.NewString()
	rel := filepath.Join(uploadsDirName, id+strings.ToLower(filepath.Ext(name)))
	dst := filepath.Join(w.root, rel)

	size, err := copyLimited(dst, r, limit)
	if err != nil {
		_ = os.Remove(dst)
		if errors.Is(err, errTooLarge) {
			return nil, &TooLargeError{Name: name, Limit: limit}
		}
		return nil, err
	}
	t, err := loadAs(dst, name, w.opt)
	if err != nil {
		_ = os.Remove(dst)
		return nil, err
	}
	d := &Dataset{
		ID:      id,
		Name:    name,
		Path:    rel,
		Size:    size,
		Rows:    t.Len(),
		Columns: len(t.Columns()),
		AddedAt: time.Now().UTC(),
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.datasets[id] = d
	if err := w.save(); err != nil {
		delete(w.datasets, id)
		_ = os.Remove(dst)
		return nil, err
	}
	cp := *d
	return &cp, nil
}

var errTooLarge = errors.New("too large")

func copyLimited(dst string, r io.Reader, limit int64) (int64, error) {
	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create dataset file: %w", err)
	}
	src := r
	if limit > 0 {
		src = io.LimitReader(r, limit+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("write dataset file: %w", err)
	}
	if limit > 0 && n > limit {
		return n, errTooLarge
	}
	return n, nil
}

// Get returns a copy of the dataset with the given id.
func (w *Workspace) Get(id string) (*Dataset, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.datasets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	cp := *d
	return &cp, nil
}

// List returns every dataset ordered by AddedAt, then ID.
func (w *Workspace) List() []Dataset {
	w.mu.Lock()
	out := make([]Dataset, 0, len(w.datasets))
	for _, d := range w.datasets {
		out = append(out, *d)
	}
	w.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.Before(out[j].AddedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Remove deletes the dataset's file and manifest entry.
func (w *Workspace) Remove(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	d, ok := w.datasets[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	delete(w.datasets, id)
	if err := w.save(); err != nil {
		w.datasets[id] = d
		return err
	}
	if err := os.Remove(filepath.Join(w.root, d.Path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove dataset file: %w", err)
	}
	return nil
}

// Load parses the stored file of dataset id into a fresh Table named after
// the original upload.
func (w *Workspace) Load(id string, opt analysis.Options) (*analysis.Table, error) {
	d, err := w.Get(id)
	if err != nil {
		return nil, err
	}
	return loadAs(filepath.Join(w.root, d.Path), d.Name, opt)
}

func loadAs(path, name string, opt analysis.Options) (*analysis.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &analysis.NotFoundError{Path: name}
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return analysis.Read(f, name, opt)
}
