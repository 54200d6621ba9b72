package server

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
	"github.com/joseph-ayodele/invoice-extractor/internal/export"
	"github.com/joseph-ayodele/invoice-extractor/internal/extract"
	"github.com/joseph-ayodele/invoice-extractor/internal/pipeline"
	"github.com/joseph-ayodele/invoice-extractor/internal/repository"
)

const sample = "Acme Widgets Inc\nINVOICE # 12345\nDue 03/15/2024\nBalance $ 1,200.00"

type noFiles struct{}

func (noFiles) Extract(context.Context, string) (extract.TextExtractionResult, error) {
	return extract.TextExtractionResult{}, common.ErrUnsupported
}

func startServer(t *testing.T) (*ExtractionClient, healthpb.HealthClient) {
	t.Helper()
	ctx := context.Background()

	db, err := ConnectDB(ctx, common.DatabaseConfig{URL: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, PingDB(ctx, db, nil, 0))

	jobs := repository.NewExtractJobRepository(db, nil)
	fe, err := extract.NewRulesExtractor(extract.RulesConfig{}, nil)
	require.NoError(t, err)
	proc := pipeline.NewProcessor(nil,
		pipeline.NewTextStage(jobs, noFiles{}, nil),
		pipeline.NewFieldsStage(jobs, fe, nil),
		nil,
	)
	svc := NewExtractionService(proc, jobs, export.NewService(jobs, nil), 1024, nil)

	srv := NewServer(nil)
	RegisterExtractionServer(srv, svc)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(func() { srv.Stop(context.Background()) })

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewExtractionClient(conn), healthpb.NewHealthClient(conn)
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestExtractAndGetJob(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	resp, err := client.Extract(ctx, mustStruct(t, map[string]any{"text": sample, "source": "inv1.txt"}))
	require.NoError(t, err)

	values := resp.GetFields()["values"].GetStructValue().AsMap()
	assert.Equal(t, map[string]any{
		"vendor_name":    "Acme Widgets Inc",
		"invoice_number": "12345",
		"due_date":       "03/15/2024",
		"balance":        "$ 1,200.00",
	}, values)
	inv := resp.GetFields()["spans"].GetStructValue().GetFields()["invoice_number"].GetStructValue().AsMap()
	assert.Equal(t, "inv_matcher", inv["source"])

	jobID := resp.GetFields()["job_id"].GetStringValue()
	job, err := client.GetJob(ctx, mustStruct(t, map[string]any{"job_id": jobID}))
	require.NoError(t, err)
	assert.Equal(t, "FIELDS_OK", job.GetFields()["status"].GetStringValue())
	assert.Equal(t, "inv1.txt", job.GetFields()["source_path"].GetStringValue())
	assert.Equal(t, float64(4), job.GetFields()["fields_found"].GetNumberValue())
}

func TestExtractWithCallerSpans(t *testing.T) {
	client, _ := startServer(t)

	resp, err := client.Extract(context.Background(), mustStruct(t, map[string]any{
		"text":  "Globex Corp INVOICE # 99",
		"spans": []any{map[string]any{"label": "ORG", "start": 0, "end": 2}},
	}))
	require.NoError(t, err)
	values := resp.GetFields()["values"].GetStructValue().AsMap()
	assert.Equal(t, "Globex Corp", values["vendor_name"])
	assert.Equal(t, "99", values["invoice_number"])

	resp, err = client.Extract(context.Background(), mustStruct(t, map[string]any{
		"text":  "Globex Corp INVOICE # 99",
		"spans": []any{},
	}))
	require.NoError(t, err)
	assert.Equal(t, "", resp.GetFields()["values"].GetStructValue().AsMap()["vendor_name"])
}

func TestExtractInvalidArguments(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  map[string]any
		want codes.Code
	}{
		{"missing text", map[string]any{}, codes.InvalidArgument},
		{"text too large", map[string]any{"text": string(bytes.Repeat([]byte("a"), 2048))}, codes.InvalidArgument},
		{"spans not a list", map[string]any{"text": "x", "spans": "ORG"}, codes.InvalidArgument},
		{"fractional offset", map[string]any{"text": "x", "spans": []any{map[string]any{"label": "ORG", "start": 0.5, "end": 1}}}, codes.InvalidArgument},
		{"span out of range", map[string]any{"text": "x", "spans": []any{map[string]any{"label": "ORG", "start": 0, "end": 9}}}, codes.InvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Extract(ctx, mustStruct(t, tt.req))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestGetJobErrors(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	_, err := client.GetJob(ctx, mustStruct(t, map[string]any{"job_id": "nope"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.GetJob(ctx, mustStruct(t, map[string]any{"job_id": "7b3f1a52-55a8-4a52-9d55-0d7c8c0d4a11"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestListAndExportJobs(t *testing.T) {
	client, _ := startServer(t)
	ctx := context.Background()

	for _, text := range []string{sample, "INVOICE # 7"} {
		_, err := client.Extract(ctx, mustStruct(t, map[string]any{"text": text}))
		require.NoError(t, err)
	}

	resp, err := client.ListJobs(ctx, mustStruct(t, map[string]any{"status": "fields_ok", "limit": 1}))
	require.NoError(t, err)
	assert.Len(t, resp.GetFields()["jobs"].GetListValue().GetValues(), 1)

	_, err = client.ListJobs(ctx, mustStruct(t, map[string]any{"status": "DONE"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	xlsx, err := client.ExportJobs(ctx, mustStruct(t, map[string]any{}))
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(xlsx.GetValue()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, constants.FieldNames(), rows[0][1:5])
}

func TestHealth(t *testing.T) {
	_, health := startServer(t)

	for _, svc := range []string{"", ExtractionServiceName} {
		resp, err := health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: svc})
		require.NoError(t, err)
		assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
	}
}
