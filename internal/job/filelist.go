package job

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File lists are the hand-off format between the pipeline and the external
// programs: newline-separated paths, one per line, and a two-column
// tab-separated variant for the metadata job.

// WriteList writes a newline-separated path list.
func WriteList(path string, paths []string) error {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString(p)
		b.WriteByte('\n')
	}
	return writeScratch(path, b.String())
}

// WriteTSV writes two-column tab-separated rows, in the given row order.
func WriteTSV(path string, rows [][2]string) error {
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(row[0])
		b.WriteByte('\t')
		b.WriteString(row[1])
		b.WriteByte('\n')
	}
	return writeScratch(path, b.String())
}

func writeScratch(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating list directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
