package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/resolve"
)

const extractJobTable = "extract_job"

var extractJobColumns = []string{
	"id", "source_path", "format", "status", "started_at", "finished_at",
	"error_message", "ocr_text", "method", "extracted_json",
	"vendor_name", "invoice_number", "due_date", "balance", "fields_found",
}

// ExtractJob is one row of extract_job: a single file run through the
// extraction pipeline.
type ExtractJob struct {
	ID           uuid.UUID
	SourcePath   string
	Format       string
	Status       constants.JobStatus
	StartedAt    time.Time
	FinishedAt   *time.Time
	ErrorMessage string
	OCRText      string
	Method       string
	Record       resolve.Record
	FieldsFound  int
}

// ListFilter narrows List; zero values mean no constraint.
type ListFilter struct {
	Status constants.JobStatus
	Limit  int
}

type ExtractJobRepository interface {
	Start(ctx context.Context, sourcePath, format string) (*ExtractJob, error)
	FinishText(ctx context.Context, jobID uuid.UUID, ocrText, method string) error
	FinishFields(ctx context.Context, jobID uuid.UUID, record resolve.Record) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error)
	List(ctx context.Context, filter ListFilter) ([]*ExtractJob, error)
}

type extractJobRepo struct {
	db  *DB
	log *slog.Logger
}

func NewExtractJobRepository(db *DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log}
}

func (r *extractJobRepo) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect())
}

func (r *extractJobRepo) Start(ctx context.Context, sourcePath, format string) (*ExtractJob, error) {
	if !validFormat(format) {
		return nil, fmt.Errorf("format %q: %w", format, common.ErrInvalidInput)
	}
	job := &ExtractJob{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Format:     format,
		Status:     constants.JobStatusRunning,
		StartedAt:  time.UnixMilli(time.Now().UnixMilli()),
	}
	q, args := r.builder().
		Insert(extractJobTable).
		Columns("id", "source_path", "format", "status", "started_at").
		Values(job.ID.String(), sourcePath, format, string(job.Status), job.StartedAt.UnixMilli()).
		Query()
	if err := r.db.drv.Exec(ctx, q, args, nil); err != nil {
		r.log.Error("extract_job start failed", "source_path", sourcePath, "err", err)
		return nil, fmt.Errorf("%w: insert extract_job: %v", common.ErrDatabase, err)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "source_path", sourcePath, "format", format)
	return job, nil
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, ocrText, method string) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("ocr_text", ocrText).
			Set("method", method).
			Set("status", string(constants.JobStatusTextOK))
	})
	if err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text extracted", "job_id", jobID, "method", method, "chars", len(ocrText))
	return nil
}

func (r *extractJobRepo) FinishFields(ctx context.Context, jobID uuid.UUID, record resolve.Record) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	found := len(record.Spans())
	err = r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("extracted_json", string(b)).
			Set("vendor_name", record.Value(constants.VendorName)).
			Set("invoice_number", record.Value(constants.InvoiceNumber)).
			Set("due_date", record.Value(constants.DueDate)).
			Set("balance", record.Value(constants.Balance)).
			Set("fields_found", found).
			Set("finished_at", time.Now().UnixMilli()).
			Set("status", string(constants.JobStatusFieldsOK))
	})
	if err != nil {
		r.log.Error("extract_job finish(FIELDS_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (FIELDS_OK)", "job_id", jobID, "fields_found", found)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	err := r.update(ctx, jobID, func(u *entsql.UpdateBuilder) {
		u.Set("finished_at", time.Now().UnixMilli()).
			Set("status", string(constants.JobStatusFailed)).
			Set("error_message", message)
	})
	if err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) update(ctx context.Context, jobID uuid.UUID, set func(*entsql.UpdateBuilder)) error {
	u := r.builder().Update(extractJobTable)
	set(u)
	q, args := u.Where(entsql.EQ("id", jobID.String())).Query()

	var res sql.Result
	if err := r.db.drv.Exec(ctx, q, args, &res); err != nil {
		return fmt.Errorf("%w: update extract_job: %v", common.ErrDatabase, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update extract_job: %v", common.ErrDatabase, err)
	}
	if n == 0 {
		return fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*ExtractJob, error) {
	b := r.builder()
	t := b.Table(extractJobTable)
	q, args := b.Select(extractJobColumns...).
		From(t).
		Where(entsql.EQ("id", jobID.String())).
		Query()

	jobs, err := r.query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("extract_job %s: %w", jobID, common.ErrNotFound)
	}
	return jobs[0], nil
}

// List returns jobs newest first.
func (r *extractJobRepo) List(ctx context.Context, filter ListFilter) ([]*ExtractJob, error) {
	b := r.builder()
	t := b.Table(extractJobTable)
	s := b.Select(extractJobColumns...).From(t)
	if filter.Status != "" {
		s.Where(entsql.EQ("status", string(filter.Status)))
	}
	s.OrderBy(entsql.Desc(s.C("started_at")), entsql.Asc(s.C("id")))
	if filter.Limit > 0 {
		s.Limit(filter.Limit)
	}
	q, args := s.Query()
	return r.query(ctx, q, args)
}

func (r *extractJobRepo) query(ctx context.Context, q string, args []any) ([]*ExtractJob, error) {
	var rows entsql.Rows
	if err := r.db.drv.Query(ctx, q, args, &rows); err != nil {
		r.log.Error("extract_job query failed", "err", err)
		return nil, fmt.Errorf("%w: query extract_job: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []*ExtractJob
	for rows.Next() {
		job, err := scanExtractJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: query extract_job: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func scanExtractJob(rows entsql.Rows) (*ExtractJob, error) {
	var (
		id, status                            string
		job                                   ExtractJob
		startedAt                             int64
		finishedAt                            sql.NullInt64
		errMsg, ocrText, method, extracted    sql.NullString
		vendor, invoiceNumber, dueDate, total sql.NullString
	)
	err := rows.Scan(&id, &job.SourcePath, &job.Format, &status, &startedAt, &finishedAt,
		&errMsg, &ocrText, &method, &extracted,
		&vendor, &invoiceNumber, &dueDate, &total, &job.FieldsFound)
	if err != nil {
		return nil, fmt.Errorf("%w: scan extract_job: %v", common.ErrDatabase, err)
	}
	if job.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: extract_job id %q: %v", common.ErrDatabase, id, err)
	}
	job.Status = constants.JobStatus(status)
	job.StartedAt = time.UnixMilli(startedAt)
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64)
		job.FinishedAt = &t
	}
	job.ErrorMessage = errMsg.String
	job.OCRText = ocrText.String
	job.Method = method.String
	if extracted.Valid && extracted.String != "" {
		if err := json.Unmarshal([]byte(extracted.String), &job.Record); err != nil {
			return nil, fmt.Errorf("%w: extract_job %s extracted_json: %v", common.ErrDatabase, id, err)
		}
	}
	return &job, nil
}

func validFormat(format string) bool {
	for _, f := range constants.FileTypes {
		if f == format {
			return true
		}
	}
	return false
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
