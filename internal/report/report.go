// Package report renders search results for the terminal and for export.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// Formats lists the supported output formats
var Formats = []string{"text", "json", "csv", "yaml"}

// YAMLQuery is the query section of the YAML report
type YAMLQuery struct {
	Title    string `yaml:"title,omitempty"`
	Composer string `yaml:"composer,omitempty"`
	Dedup    string `yaml:"dedup"`
	Total    int    `yaml:"total"`
}

// YAMLHit is one hit in the YAML report
type YAMLHit struct {
	Title     string `yaml:"title"`
	Composer  string `yaml:"composer,omitempty"`
	Source    string `yaml:"source"`
	Book      string `yaml:"book"`
	Canonical string `yaml:"canonical,omitempty"`
	File      string `yaml:"file,omitempty"`
	Sheet     string `yaml:"sheet"`
	Page      *int   `yaml:"page,omitempty"`
}

// YAMLReport is the complete YAML document
type YAMLReport struct {
	Query YAMLQuery `yaml:"query"`
	Hits  []YAMLHit `yaml:"hits"`
}

// Write renders result to w in the given format
func Write(w io.Writer, format string, result *models.SearchResult) error {
	switch format {
	case "text", "":
		return writeText(w, result)
	case "json":
		return writeJSON(w, result)
	case "csv":
		return writeCSV(w, result)
	case "yaml":
		return writeYAML(w, result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeText(w io.Writer, result *models.SearchResult) error {
	if len(result.Hits) == 0 {
		_, err := fmt.Fprintln(w, "No matches.")
		return err
	}

	for i, hit := range result.Hits {
		fmt.Fprintf(w, "[%d] %s", i+1, hit.Title)
		if hit.Composer != "" {
			fmt.Fprintf(w, " (%s)", hit.Composer)
		}
		fmt.Fprintln(w)

		book := hit.Canonical
		if book == "" {
			book = hit.LocalName
		}
		fmt.Fprintf(w, "    %s, sheet %s, page %s [%s/%s]\n",
			book, hit.Sheet, pageString(hit), hit.SourceCode, hit.LocalName)
		if hit.File != "" {
			fmt.Fprintf(w, "    %s\n", hit.File)
		}
	}

	footer := fmt.Sprintf("%d of %d matches", len(result.Hits), result.Total)
	if result.Dedup != "" {
		footer += ", dedup " + result.Dedup
	}
	_, err := fmt.Fprintln(w, footer)
	return err
}

func writeJSON(w io.Writer, result *models.SearchResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func writeCSV(w io.Writer, result *models.SearchResult) error {
	writer := csv.NewWriter(w)

	header := []string{"Title", "Composer", "Source", "Book", "Canonical", "File", "Sheet", "Page"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, hit := range result.Hits {
		page := ""
		if hit.PageResolved {
			page = strconv.Itoa(hit.Page)
		}
		row := []string{
			hit.Title,
			hit.Composer,
			hit.SourceCode,
			hit.LocalName,
			hit.Canonical,
			hit.File,
			hit.Sheet,
			page,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func writeYAML(w io.Writer, result *models.SearchResult) error {
	doc := YAMLReport{
		Query: YAMLQuery{
			Title:    result.Title,
			Composer: result.Composer,
			Dedup:    result.Dedup,
			Total:    result.Total,
		},
		Hits: make([]YAMLHit, 0, len(result.Hits)),
	}

	for _, hit := range result.Hits {
		h := YAMLHit{
			Title:     hit.Title,
			Composer:  hit.Composer,
			Source:    hit.SourceCode,
			Book:      hit.LocalName,
			Canonical: hit.Canonical,
			File:      hit.File,
			Sheet:     hit.Sheet,
		}
		if hit.PageResolved {
			h.Page = models.IntPtr(hit.Page)
		}
		doc.Hits = append(doc.Hits, h)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return encoder.Close()
}

func pageString(hit models.Hit) string {
	if !hit.PageResolved {
		return "?"
	}
	return strconv.Itoa(hit.Page)
}
