package pipeline

import (
	"fmt"
	"strings"
)

// Variant selects the conversion flavour.
type Variant string

const (
	// VariantExtract exports every page table as found.
	VariantExtract Variant = "extract"
	// VariantClean normalizes cells and removes sensitive rows and columns.
	VariantClean Variant = "clean"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(strings.ToLower(strings.TrimSpace(s))); v {
	case VariantExtract, VariantClean:
		return v, nil
	}
	return "", fmt.Errorf("unknown variant %q", s)
}

// SheetName is the name of the single worksheet in the export.
func (v Variant) SheetName() string {
	if v == VariantClean {
		return "Cleaned Data"
	}
	return "Extracted Data"
}

// Filename is the suggested download name.
func (v Variant) Filename() string {
	if v == VariantClean {
		return "filtered_invoice_data.xlsx"
	}
	return "combined_output.xlsx"
}
