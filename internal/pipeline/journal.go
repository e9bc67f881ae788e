package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Journal persists run reports under:
//
//	<baseDir>/.slidepress/runs/<run-id>/report.json
//
// Writes are atomic and durable (file sync + rename + dir sync) so a crashed
// run never leaves a half-written report behind.
type Journal struct {
	baseDir string
}

func NewJournal(baseDir string) (*Journal, error) {
	if strings.TrimSpace(baseDir) == "" {
		return nil, errors.New("baseDir is required")
	}
	return &Journal{baseDir: baseDir}, nil
}

func (j *Journal) runsRootDir() string {
	return filepath.Join(j.baseDir, ".slidepress", "runs")
}

func (j *Journal) runDir(runID string) string {
	return filepath.Join(j.runsRootDir(), runID)
}

// ReportPath returns where a run's report lives on disk.
func (j *Journal) ReportPath(runID string) string {
	return filepath.Join(j.runDir(runID), "report.json")
}

// WriteReport persists the report and returns its path.
func (j *Journal) WriteReport(r Report) (string, error) {
	if j == nil {
		return "", errors.New("nil Journal")
	}
	if strings.TrimSpace(r.RunID) == "" {
		return "", errors.New("report has no run id")
	}
	if err := ensureDirDurable(j.runDir(r.RunID), 0o755); err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	data = append(data, '\n')
	path := j.ReportPath(r.RunID)
	if err := writeFileAtomicDurable(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// ReadReport loads a previously persisted report.
func (j *Journal) ReadReport(runID string) (Report, error) {
	var r Report
	if strings.TrimSpace(runID) == "" {
		return Report{}, errors.New("runID is required")
	}
	f, err := os.Open(j.ReportPath(runID))
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&r); err != nil {
		return Report{}, err
	}
	return r, nil
}

// ListRunIDs returns the ids of all persisted runs, sorted.
func (j *Journal) ListRunIDs() ([]string, error) {
	entries, err := os.ReadDir(j.runsRootDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ids = append(ids, e.Name())
	}
	sort.Strings(ids)
	return ids, nil
}

func ensureDirDurable(dir string, perm os.FileMode) error {
	if err := os.MkdirAll(dir, perm); err != nil {
		return err
	}
	if err := fsyncDir(dir); err != nil {
		return err
	}
	parent := filepath.Dir(dir)
	if parent != dir {
		if err := fsyncDir(parent); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomicDurable(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return fsyncDir(dir)
}

func fsyncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
