package diag

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/vg"
)

// HistogramDir is one namespace of the histogram persistence service.
// Registered histograms stay owned by the directory and are written out in
// their final state when the store closes.
type HistogramDir interface {
	PutH1D(name, title string, h *hbook.H1D)
	PutH2D(name, title string, h *hbook.H2D)
}

// HistogramStore is the persistence service supplied by the host framework:
// one sub-directory per run number plus a top-level namespace.
type HistogramStore interface {
	Run(run int) HistogramDir
	Top() HistogramDir
}

// FileStore implements HistogramStore on the filesystem: every registered
// histogram is written under outDir/<namespace>/ as YODA text plus a PNG
// plot on Close.
type FileStore struct {
	outDir string
	logger *slog.Logger
	dirs   map[string]*fileDir
}

type h1Entry struct {
	name  string
	title string
	hist  *hbook.H1D
}

type h2Entry struct {
	name  string
	title string
	hist  *hbook.H2D
}

type fileDir struct {
	name string
	h1s  []h1Entry
	h2s  []h2Entry
}

func NewFileStore(outDir string, logger *slog.Logger) *FileStore {
	return &FileStore{
		outDir: outDir,
		logger: logger,
		dirs:   make(map[string]*fileDir),
	}
}

func (s *FileStore) Run(run int) HistogramDir {
	return s.dir(fmt.Sprintf("r%03d", run))
}

func (s *FileStore) Top() HistogramDir {
	return s.dir(".")
}

func (s *FileStore) dir(name string) *fileDir {
	d, ok := s.dirs[name]
	if !ok {
		d = &fileDir{name: name}
		s.dirs[name] = d
	}
	return d
}

func (d *fileDir) PutH1D(name, title string, h *hbook.H1D) {
	for i := range d.h1s {
		if d.h1s[i].name == name {
			d.h1s[i] = h1Entry{name: name, title: title, hist: h}
			return
		}
	}
	d.h1s = append(d.h1s, h1Entry{name: name, title: title, hist: h})
}

func (d *fileDir) PutH2D(name, title string, h *hbook.H2D) {
	for i := range d.h2s {
		if d.h2s[i].name == name {
			d.h2s[i] = h2Entry{name: name, title: title, hist: h}
			return
		}
	}
	d.h2s = append(d.h2s, h2Entry{name: name, title: title, hist: h})
}

// Close writes every registered histogram to disk.
func (s *FileStore) Close() error {
	names := make([]string, 0, len(s.dirs))
	for name := range s.dirs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		d := s.dirs[name]
		path := filepath.Join(s.outDir, name)
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("error creating histogram directory %q: %w", path, err)
		}
		for _, entry := range d.h1s {
			if err := s.writeH1D(path, entry); err != nil {
				return err
			}
		}
		for _, entry := range d.h2s {
			if err := s.writeH2D(path, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *FileStore) writeH1D(path string, entry h1Entry) error {
	raw, err := entry.hist.MarshalYODA()
	if err != nil {
		return fmt.Errorf("error marshaling histogram %q: %w", entry.name, err)
	}
	fname := filepath.Join(path, entry.name+".yoda")
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		return fmt.Errorf("error writing histogram %q: %w", entry.name, err)
	}

	p := hplot.New()
	p.Title.Text = entry.title
	p.Add(hplot.NewH1D(entry.hist))
	pname := filepath.Join(path, entry.name+".png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, pname); err != nil {
		return fmt.Errorf("error plotting histogram %q: %w", entry.name, err)
	}
	s.logger.Debug(fmt.Sprintf("Wrote histogram %s", fname), "module", "store")
	return nil
}

func (s *FileStore) writeH2D(path string, entry h2Entry) error {
	raw, err := entry.hist.MarshalYODA()
	if err != nil {
		return fmt.Errorf("error marshaling histogram %q: %w", entry.name, err)
	}
	fname := filepath.Join(path, entry.name+".yoda")
	if err := os.WriteFile(fname, raw, 0644); err != nil {
		return fmt.Errorf("error writing histogram %q: %w", entry.name, err)
	}

	p := hplot.New()
	p.Title.Text = entry.title
	p.Add(hplot.NewH2D(entry.hist, nil))
	pname := filepath.Join(path, entry.name+".png")
	if err := p.Save(6*vg.Inch, 4*vg.Inch, pname); err != nil {
		return fmt.Errorf("error plotting histogram %q: %w", entry.name, err)
	}
	s.logger.Debug(fmt.Sprintf("Wrote histogram %s", fname), "module", "store")
	return nil
}
