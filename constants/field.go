package constants

import (
	"fmt"
	"strings"
)

// Field identifies one column of the extracted invoice record.
type Field int

const (
	VendorName Field = iota
	InvoiceNumber
	DueDate
	Balance
)

var fieldNames = [...]string{
	VendorName:    "vendor_name",
	InvoiceNumber: "invoice_number",
	DueDate:       "due_date",
	Balance:       "balance",
}

// AllFields returns the fields in output column order.
func AllFields() []Field {
	return []Field{VendorName, InvoiceNumber, DueDate, Balance}
}

// FieldNames returns the output column header.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames[:])
	return out
}

func (f Field) String() string {
	if f.Valid() {
		return fieldNames[f]
	}
	return "unknown"
}

func (f Field) Valid() bool {
	return f >= VendorName && f <= Balance
}

// ParseField maps a column name (case-insensitive) back to its Field.
func ParseField(s string) (Field, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range fieldNames {
		if name == s {
			return Field(i), true
		}
	}
	return 0, false
}

// MarshalText encodes the field as its column name.
func (f Field) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("invalid field %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText decodes a column name into a Field.
func (f *Field) UnmarshalText(b []byte) error {
	v, ok := ParseField(string(b))
	if !ok {
		return fmt.Errorf("unknown field %q", string(b))
	}
	*f = v
	return nil
}
