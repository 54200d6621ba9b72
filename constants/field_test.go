package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldNamesColumnOrder(t *testing.T) {
	assert.Equal(t, []string{"vendor_name", "invoice_number", "due_date", "balance"}, FieldNames())
	for i, f := range AllFields() {
		assert.Equal(t, FieldNames()[i], f.String())
	}
}

func TestParseField(t *testing.T) {
	f, ok := ParseField(" Due_Date ")
	assert.True(t, ok)
	assert.Equal(t, DueDate, f)

	_, ok = ParseField("total")
	assert.False(t, ok)
	assert.Equal(t, "unknown", Field(42).String())
}

func TestMapExtToFormat(t *testing.T) {
	assert.Equal(t, JSON, MapExtToFormat(".JSON"))
	assert.Equal(t, IMAGE, MapExtToFormat("jpeg"))
	assert.Equal(t, PDF, MapExtToFormat(".pdf"))
	assert.Equal(t, "", MapExtToFormat(".docx"))
}
