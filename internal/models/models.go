package models

// IndexSource is an independently produced index of one or more books
type IndexSource struct {
	Code     string `json:"code" yaml:"code" mapstructure:"code"` // 3-4 letter abbreviation
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Priority int    `json:"priority" yaml:"priority" mapstructure:"priority"` // lower is preferred
}

// Canonical is the normalized identity of one real-world book
type Canonical struct {
	Name     string `json:"name" yaml:"name" mapstructure:"name"`
	Priority int    `json:"priority" yaml:"priority" mapstructure:"priority"`
	File     string `json:"file,omitempty" yaml:"file,omitempty" mapstructure:"file"` // empty until linked to a PDF
}

// LocalBook is a book edition as catalogued by one source
type LocalBook struct {
	SourceCode string `json:"source_code" parquet:"source_code"`
	LocalName  string `json:"local_name" parquet:"local_name"`
	Canonical  string `json:"canonical" parquet:"canonical"`
}

// OffsetRule states that from SheetStart onward, page = sheet + SheetOffset.
// Seq is insertion order and decides which rule wins; it is not derived from SheetStart.
type OffsetRule struct {
	SourceCode  string `json:"source_code" parquet:"source_code"`
	LocalName   string `json:"local_name" parquet:"local_name"`
	SheetStart  int    `json:"sheet_start" parquet:"sheet_start"`
	SheetOffset int    `json:"sheet_offset" parquet:"sheet_offset"`
	Seq         int    `json:"seq,omitempty" parquet:"seq,optional"`
}

// TitleRow is one raw index entry
type TitleRow struct {
	Title      string `json:"title" parquet:"title"`
	Composer   string `json:"composer,omitempty" parquet:"composer,optional"` // empty when the index has none
	Sheet      string `json:"sheet" parquet:"sheet"`                          // as printed, e.g. "12" or "12A"
	SourceCode string `json:"source_code" parquet:"source_code"`
	LocalName  string `json:"local_name" parquet:"local_name"`
}

// SheetValue parses the printed sheet into its typed form
func (r TitleRow) SheetValue() Sheet {
	return ParseSheet(r.Sheet)
}

// CandidateRow is a TitleRow joined with its canonical book and both priorities.
// A nil priority means the row was built without configuration for its source
// or canonical; consumers must report it rather than assume a default.
type CandidateRow struct {
	TitleRow
	Canonical         string `json:"canonical"`
	File              string `json:"file,omitempty"`
	SourcePriority    *int   `json:"source_priority"`
	CanonicalPriority *int   `json:"canonical_priority"`
}

// IntPtr is a convenience for building priorities in literals
func IntPtr(v int) *int {
	return &v
}
