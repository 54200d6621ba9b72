package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
)

func record(t *testing.T, text string) resolve.Record {
	t.Helper()
	x, err := extract.NewRulesExtractor(extract.RulesConfig{}, nil)
	require.NoError(t, err)
	res, err := x.ExtractFields(context.Background(), extract.FieldsRequest{Text: text})
	require.NoError(t, err)
	return res.Record
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestCSVWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	w, err := NewCSVWriter(common.OutputConfig{Dir: dir, FileTemplate: "{}.csv"}, nil)
	require.NoError(t, err)

	rec := record(t, "Acme Widgets Inc\nINVOICE # 12345\nBalance $ 1,200.00")
	out, err := w.Write("/data/in/inv1.json", rec)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "inv1.json.csv"), out)

	rows := readCSV(t, out)
	assert.Equal(t, [][]string{
		{"vendor_name", "invoice_number", "due_date", "balance"},
		{"Acme Widgets Inc", "12345", "", "$ 1,200.00"},
	}, rows)
}

func TestCSVWriterEmptyRecordAndOverwrite(t *testing.T) {
	dir := t.TempDir()
	w, err := NewCSVWriter(common.OutputConfig{Dir: dir, FileTemplate: "out_{}.csv"}, nil)
	require.NoError(t, err)

	_, err = w.Write("a.txt", record(t, "INVOICE # 1"))
	require.NoError(t, err)
	out, err := w.Write("a.txt", resolve.Record{})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "out_a.txt.csv"), out)
	assert.Equal(t, [][]string{
		{"vendor_name", "invoice_number", "due_date", "balance"},
		{"", "", "", ""},
	}, readCSV(t, out))
}

func TestCSVWriterReportsWriteErrors(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	dir := t.TempDir()
	w, err := NewCSVWriter(common.OutputConfig{Dir: dir, FileTemplate: "{}.csv"}, nil)
	require.NoError(t, err)
	require.NoError(t, os.Symlink("/dev/full", w.Path("inv1.txt")))

	_, err = w.Write("inv1.txt", record(t, "INVOICE # 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write csv")
}

func TestCSVWriterRejectsBadTemplate(t *testing.T) {
	_, err := NewCSVWriter(common.OutputConfig{Dir: t.TempDir(), FileTemplate: "fixed.csv"}, nil)
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestExportXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{URL: ":memory:"}, nil)
	require.NoError(t, err)
	defer db.Close(nil)
	jobs := repository.NewExtractJobRepository(db, nil)

	ok, err := jobs.Start(ctx, "inv1.json", constants.JSON)
	require.NoError(t, err)
	require.NoError(t, jobs.FinishFields(ctx, ok.ID, record(t, "Acme Widgets Inc INVOICE # 12345")))
	bad, err := jobs.Start(ctx, "scan.pdf", constants.PDF)
	require.NoError(t, err)
	require.NoError(t, jobs.FinishFailure(ctx, bad.ID, "boom"))

	b, err := NewService(jobs, nil).ExportXLSX(ctx, repository.ListFilter{Status: constants.JobStatusFieldsOK})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(jobsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Source File", "vendor_name", "invoice_number", "due_date", "balance", "Status", "Method", "Started", "Error", "Job ID"}, rows[0])
	assert.Equal(t, "inv1.json", rows[1][0])
	assert.Equal(t, "Acme Widgets Inc", rows[1][1])
	assert.Equal(t, "12345", rows[1][2])
	assert.Equal(t, "FIELDS_OK", rows[1][5])
	assert.Equal(t, ok.ID.String(), rows[1][9])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
}
