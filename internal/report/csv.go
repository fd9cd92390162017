package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/crawlytics/crawlytics/internal/model"
	"github.com/crawlytics/crawlytics/internal/stats"
)

// CSVWriter outputs one histogram weight file per column, named
// <column>_weights.csv, into a target directory. This format is designed
// for spreadsheet import and plotting tools.
//
// Design decision: Unlike the other writers, CSVWriter owns its files
// rather than wrapping a single io.Writer because it fans one analysis out
// into several artifacts; a single stream cannot carry them.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a CSVWriter that writes weight files into dir.
// The directory is created on first Write if it does not exist.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

// Write outputs one weight file per computed histogram.
// Returns the total bytes written across all files.
func (w *CSVWriter) Write(analysis *model.Analysis) (int, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return 0, fmt.Errorf("create csv output directory: %w", err)
	}

	var total int
	for _, name := range columnOrder(analysis) {
		n, err := w.writeColumn(name, analysis.Histograms[name])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// writeColumn renders one histogram as bucket,weight rows.
func (w *CSVWriter) writeColumn(name string, result *stats.Result) (int, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	if err := cw.Write([]string{"bucket", "weight"}); err != nil {
		return 0, err
	}
	for i, weight := range result.Weights {
		row := []string{
			strconv.FormatFloat(result.Boundaries[i], 'f', -1, 64),
			strconv.Itoa(weight),
		}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}

	path := filepath.Join(w.dir, name+"_weights.csv")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return buf.Len(), nil
}
