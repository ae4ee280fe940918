package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

func sampleResult() *models.SearchResult {
	return &models.SearchResult{
		Filter: models.Filter{Title: "autumn"},
		Dedup:  "titles",
		Total:  3,
		Hits: []models.Hit{
			{
				CandidateRow: models.CandidateRow{
					TitleRow: models.TitleRow{
						Title: "Autumn Leaves", Composer: "Kosma", Sheet: "32",
						SourceCode: "Skr", LocalName: "RB1",
					},
					Canonical: "Real Book Vol 1",
					File:      "realbook1.pdf",
				},
				Page:         36,
				PageResolved: true,
			},
			{
				CandidateRow: models.CandidateRow{
					TitleRow: models.TitleRow{
						Title: "Autumn in New York", Sheet: "12A",
						SourceCode: "Fak", LocalName: "NRB",
					},
				},
			},
		},
	}
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "text", sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"[1] Autumn Leaves (Kosma)",
		"Real Book Vol 1, sheet 32, page 36 [Skr/RB1]",
		"realbook1.pdf",
		"[2] Autumn in New York",
		"NRB, sheet 12A, page ? [Fak/NRB]",
		"2 of 3 matches, dedup titles",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestWriteTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "text", &models.SearchResult{}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "No matches." {
		t.Errorf("Expected no matches message, got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "json", sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var decoded struct {
		Title string `json:"title"`
		Total int    `json:"total"`
		Hits  []struct {
			Title        string `json:"title"`
			Page         int    `json:"page"`
			PageResolved bool   `json:"page_resolved"`
		} `json:"hits"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if decoded.Title != "autumn" || decoded.Total != 3 {
		t.Errorf("Unexpected header: %+v", decoded)
	}
	if len(decoded.Hits) != 2 || decoded.Hits[0].Page != 36 || !decoded.Hits[0].PageResolved {
		t.Errorf("Unexpected hits: %+v", decoded.Hits)
	}
	if decoded.Hits[1].PageResolved {
		t.Error("Expected second hit unresolved")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "csv", sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected header and 2 rows, got %d", len(records))
	}
	if records[1][0] != "Autumn Leaves" || records[1][7] != "36" {
		t.Errorf("Unexpected first row: %v", records[1])
	}
	if records[2][7] != "" {
		t.Errorf("Expected empty page for unresolved hit, got %q", records[2][7])
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "yaml", sampleResult()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	var doc YAMLReport
	if err := yaml.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("Invalid YAML: %v", err)
	}
	if doc.Query.Dedup != "titles" || len(doc.Hits) != 2 {
		t.Errorf("Unexpected document: %+v", doc)
	}
	if doc.Hits[0].Page == nil || *doc.Hits[0].Page != 36 {
		t.Errorf("Expected page 36, got %v", doc.Hits[0].Page)
	}
	if doc.Hits[1].Page != nil {
		t.Errorf("Expected no page for unresolved hit, got %v", *doc.Hits[1].Page)
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, "xml", sampleResult()); err == nil {
		t.Error("Expected error for unsupported format")
	}
}
