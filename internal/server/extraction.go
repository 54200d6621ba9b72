package server

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const maxListLimit = 500

var jobStatuses = []string{
	string(constants.JobStatusQueued),
	string(constants.JobStatusRunning),
	string(constants.JobStatusTextOK),
	string(constants.JobStatusFieldsOK),
	string(constants.JobStatusFailed),
}

// ExtractionService implements ExtractionServer over the pipeline and the
// job store.
type ExtractionService struct {
	processor    *pipeline.Processor
	jobs         repository.ExtractJobRepository
	exporter     *export.Service
	logger       *slog.Logger
	maxTextBytes int
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(proc *pipeline.Processor, jobs repository.ExtractJobRepository, exp *export.Service, maxTextBytes int, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTextBytes <= 0 {
		maxTextBytes = 1 << 20
	}
	return &ExtractionService{processor: proc, jobs: jobs, exporter: exp, logger: logger, maxTextBytes: maxTextBytes}
}

// Extract resolves fields over {"text", "spans"?, "source"?} and records a job.
func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	v := common.NewValidator().
		Field("text", text, common.Required, common.MaxLen(s.maxTextBytes))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	spans, err := spansFromStruct(req)
	if err != nil {
		return nil, common.ToStatus(err)
	}

	source := stringField(req, "source")
	if source == "" {
		source = "grpc:" + common.RequestIDFromContext(ctx)
	}

	res, err := s.processor.ProcessText(ctx, source, text, spans)
	if err != nil {
		s.logger.Error("extract.failed", "source", source, "job_id", res.JobID, "err", err)
		return nil, common.ToStatus(err)
	}

	fields, err := recordToMap(res.Record)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	out, err := structpb.NewStruct(map[string]any{
		"job_id":   res.JobID.String(),
		"values":   valuesToMap(res.Record),
		"spans":    fields,
		"tokens":   res.Fields.Tokens,
		"matches":  res.Fields.Matches,
		"entities": res.Fields.Entities,
		"overlaps": overlapsToList(res.Record),
	})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

// GetJob returns one job by {"job_id"}.
func (s *ExtractionService) GetJob(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := stringField(req, "job_id")
	v := common.NewValidator().Field("job_id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	job, err := s.jobs.Get(ctx, uuid.MustParse(id))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	m, err := jobToMap(job)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

func (s *ExtractionService) listFilter(req *structpb.Struct) (repository.ListFilter, error) {
	status := stringField(req, "status")
	v := common.NewValidator()
	if status != "" {
		v.Field("status", status, common.OneOf(jobStatuses...))
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return repository.ListFilter{}, err
	}
	limit, err := intField(req, "limit")
	if err != nil {
		return repository.ListFilter{}, common.ToStatus(err)
	}
	if limit == 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	return repository.ListFilter{Status: constants.JobStatus(strings.ToUpper(status)), Limit: limit}, nil
}

// ListJobs returns {"jobs": [...]} newest first, filtered by optional
// "status" and "limit".
func (s *ExtractionService) ListJobs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobs.List(ctx, filter)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	list := make([]any, 0, len(jobs))
	for _, j := range jobs {
		m, err := jobToMap(j)
		if err != nil {
			return nil, common.InternalError(err.Error())
		}
		list = append(list, m)
	}
	out, err := structpb.NewStruct(map[string]any{"jobs": list})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

// ExportJobs returns an XLSX workbook of the jobs matching the same filter as ListJobs.
func (s *ExtractionService) ExportJobs(ctx context.Context, req *structpb.Struct) (*wrapperspb.BytesValue, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}
	b, err := s.exporter.ExportXLSX(ctx, filter)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	return wrapperspb.Bytes(b), nil
}
