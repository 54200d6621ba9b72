package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{URL: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	return db
}

func sampleRecord(t *testing.T) resolve.Record {
	t.Helper()
	x, err := extract.NewRulesExtractor(extract.RulesConfig{}, nil)
	require.NoError(t, err)
	res, err := x.ExtractFields(context.Background(), extract.FieldsRequest{
		Text: "Acme Widgets Inc\nINVOICE # 12345\nDue 03/15/2024\nBalance $ 1,200.00",
	})
	require.NoError(t, err)
	return res.Record
}

func TestOpenRejectsUnknownURL(t *testing.T) {
	_, err := Open(context.Background(), Config{URL: "mysql://x"}, nil)
	assert.ErrorIs(t, err, common.ErrConfig)
}

func TestOpenFileIsIdempotent(t *testing.T) {
	url := "sqlite://" + t.TempDir() + "/jobs.db"
	ctx := context.Background()

	db, err := Open(ctx, Config{URL: url}, nil)
	require.NoError(t, err)
	job, err := NewExtractJobRepository(db, nil).Start(ctx, "a.json", constants.JSON)
	require.NoError(t, err)
	db.Close(nil)

	db, err = Open(ctx, Config{URL: url}, nil)
	require.NoError(t, err)
	defer db.Close(nil)
	require.NoError(t, db.HealthCheck(ctx, 0))

	got, err := NewExtractJobRepository(db, nil).Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.json", got.SourcePath)
}

func TestExtractJobLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	job, err := repo.Start(ctx, "/in/inv1.json", constants.JSON)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusRunning, job.Status)

	require.NoError(t, repo.FinishText(ctx, job.ID, "INVOICE # 12345", "ocr-json"))
	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusTextOK, got.Status)
	assert.Equal(t, "INVOICE # 12345", got.OCRText)
	assert.Equal(t, "ocr-json", got.Method)
	assert.Nil(t, got.FinishedAt)

	rec := sampleRecord(t)
	require.NoError(t, repo.FinishFields(ctx, job.ID, rec))
	got, err = repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFieldsOK, got.Status)
	require.NotNil(t, got.FinishedAt)
	assert.Equal(t, 4, got.FieldsFound)
	assert.Equal(t, rec.Row(), got.Record.Row())
	assert.Equal(t, "12345", got.Record.Value(constants.InvoiceNumber))
	assert.Equal(t, job.StartedAt, got.StartedAt)
}

func TestExtractJobFailure(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	job, err := repo.Start(ctx, "scan.pdf", constants.PDF)
	require.NoError(t, err)
	require.NoError(t, repo.FinishFailure(ctx, job.ID, "pdftotext: exit status 1"))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.JobStatusFailed, got.Status)
	assert.Equal(t, "pdftotext: exit status 1", got.ErrorMessage)
	assert.Empty(t, got.Record.Spans())
}

func TestExtractJobErrors(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	_, err := repo.Start(ctx, "a.docx", "DOCX")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	missing := uuid.New()
	_, err = repo.Get(ctx, missing)
	assert.True(t, IsNotFound(err))
	assert.ErrorIs(t, repo.FinishText(ctx, missing, "x", "plain-text"), common.ErrNotFound)
	assert.ErrorIs(t, repo.FinishFailure(ctx, missing, "x"), common.ErrNotFound)
}

func TestExtractJobList(t *testing.T) {
	ctx := context.Background()
	repo := NewExtractJobRepository(openTestDB(t), nil)

	var ids []uuid.UUID
	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		job, err := repo.Start(ctx, p, constants.TXT)
		require.NoError(t, err)
		ids = append(ids, job.ID)
	}
	require.NoError(t, repo.FinishFailure(ctx, ids[1], "boom"))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].StartedAt.After(all[i-1].StartedAt), "newest first")
	}

	failed, err := repo.List(ctx, ListFilter{Status: constants.JobStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, ids[1], failed[0].ID)

	limited, err := repo.List(ctx, ListFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
