package models

import (
	"strconv"
	"strings"
)

// Sheet is a printed page label. Only NumericSheet takes part in offset
// resolution; OpaqueSheet values such as "12A" pass through unresolved.
type Sheet interface {
	String() string
	isSheet()
}

// NumericSheet is a sheet label that is a plain integer
type NumericSheet int

// OpaqueSheet is any sheet label that is not a plain integer
type OpaqueSheet string

func (s NumericSheet) String() string { return strconv.Itoa(int(s)) }
func (NumericSheet) isSheet()         {}

func (s OpaqueSheet) String() string { return string(s) }
func (OpaqueSheet) isSheet()         {}

// ParseSheet classifies a printed sheet label
func ParseSheet(raw string) Sheet {
	trimmed := strings.TrimSpace(raw)
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return OpaqueSheet(raw)
	}
	return NumericSheet(n)
}

// SheetNumber returns the integer form of s, if it has one
func SheetNumber(s Sheet) (int, bool) {
	n, ok := s.(NumericSheet)
	if !ok {
		return 0, false
	}
	return int(n), true
}
