// Package dataset loads index builder output: titles, offset rules and local
// books as JSONL or Parquet files.
package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// Loader reads one dataset file
type Loader struct {
	datasetPath string
}

// NewLoader creates a new dataset loader
func NewLoader(datasetPath string) *Loader {
	return &Loader{
		datasetPath: datasetPath,
	}
}

// LoadTitles loads index entries
func (l *Loader) LoadTitles() ([]models.TitleRow, error) {
	return load[models.TitleRow](l.datasetPath)
}

// LoadOffsets loads offset rules in file order
func (l *Loader) LoadOffsets() ([]models.OffsetRule, error) {
	return load[models.OffsetRule](l.datasetPath)
}

// LoadBooks loads local book to canonical mappings
func (l *Loader) LoadBooks() ([]models.LocalBook, error) {
	return load[models.LocalBook](l.datasetPath)
}

func load[T any](path string) ([]T, error) {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".parquet":
		return loadParquet[T](path)
	case ".jsonl", ".json":
		return loadJSONL[T](path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
}

func loadJSONL[T any](path string) ([]T, error) {
	slog.Debug("Opening JSONL file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset file: %w", err)
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)

	const maxCapacity = 1024 * 1024 // 1MB per line
	scanner.Buffer(make([]byte, 64*1024), maxCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		records = append(records, record)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading dataset: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "path", path, "total_records", len(records), "total_lines", lineNum)

	return records, nil
}

func loadParquet[T any](path string) ([]T, error) {
	slog.Debug("Opening Parquet file", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[T](pf)
	defer reader.Close()

	var records []T
	rows := make([]T, 128)

	for {
		n, err := reader.Read(rows)
		records = append(records, rows[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet file", "path", path, "total_records", len(records))

	return records, nil
}
