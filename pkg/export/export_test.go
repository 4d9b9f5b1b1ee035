package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/David-Botos/olist-features/pkg/connector"
	"github.com/David-Botos/olist-features/pkg/model"
	"github.com/David-Botos/olist-features/pkg/table"
)

func features(t *testing.T) Dataset {
	t.Helper()
	meta := model.TableMetadata{
		Name: "seller_training_data",
		Columns: []model.Column{
			{Name: "seller_id", Type: model.TypeString},
			{Name: "n_orders", Type: model.TypeInt},
			{Name: "review_score", Type: model.TypeFloat, Nullable: true},
			{Name: "date_first_sale", Type: model.TypeTimestamp},
		},
	}
	first := time.Date(2018, 1, 2, 3, 4, 5, 0, time.UTC)
	tbl, err := table.New(meta, []table.Row{
		{"seller_id": "s1", "n_orders": int64(3), "review_score": 4.5, "date_first_sale": first},
		{"seller_id": "s2", "n_orders": int64(1), "review_score": nil, "date_first_sale": first},
	})
	require.NoError(t, err)
	return Dataset{Table: tbl, Key: []string{"seller_id"}}
}

type fakeSink struct {
	name string
	err  error

	mu      sync.Mutex
	written map[string]int64
}

func newFakeSink(name string, err error) *fakeSink {
	return &fakeSink{name: name, err: err, written: make(map[string]int64)}
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Write(_ context.Context, ds Dataset) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(ds.Table.Len())
	s.written[ds.Table.Name()] = n
	return n, nil
}

func (s *fakeSink) Count(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.written[name]
	if !ok {
		return 0, fmt.Errorf("table %s not written", name)
	}
	return n, nil
}

func (s *fakeSink) Close() error { return nil }

type fakeWriter struct {
	schema  string
	table   string
	defs    []string
	pks     []string
	columns []string
	rows    [][]interface{}
}

func (w *fakeWriter) EnsureSchema(_ context.Context, schema string) error {
	w.schema = schema
	return nil
}

func (w *fakeWriter) RecreateTable(_ context.Context, _, table string, defs, pks []string) error {
	w.table, w.defs, w.pks = table, defs, pks
	return nil
}

func (w *fakeWriter) BatchInsert(_ context.Context, _, _ string, columns []string, rows [][]interface{}, _ int) (int64, error) {
	w.columns, w.rows = columns, rows
	return int64(len(rows)), nil
}

func (w *fakeWriter) CountRows(_ context.Context, _, _ string) (int64, error) {
	return int64(len(w.rows)), nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPostgresSink(t *testing.T) {
	ds := features(t)
	w := &fakeWriter{}
	sink := NewPostgresSink(w, "features", 500, zap.NewNop())

	n, err := sink.Write(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.Equal(t, "features", w.schema)
	assert.Equal(t, "seller_training_data", w.table)
	assert.Equal(t, []string{
		`"seller_id" TEXT NULL`,
		`"n_orders" BIGINT NULL`,
		`"review_score" DOUBLE PRECISION NULL`,
		`"date_first_sale" TIMESTAMP WITH TIME ZONE NULL`,
	}, w.defs)
	assert.Equal(t, []string{"seller_id", "n_orders", "review_score", "date_first_sale"}, w.columns)
	assert.Equal(t, []interface{}{"s2", int64(1), nil, ds.Table.Row(1)["date_first_sale"]}, w.rows[1])

	count, err := sink.Count(context.Background(), "seller_training_data")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestDuckDBSink(t *testing.T) {
	ctx := context.Background()
	conn, err := connector.NewDuckDBConnector(ctx, "")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	dir := t.TempDir()
	sink := NewDuckDBSink(conn, "features", filepath.Join(dir, "out", "{table}.csv"), zap.NewNop())
	ds := features(t)

	// written twice to check the table is replaced, not appended to
	for i := 0; i < 2; i++ {
		n, err := sink.Write(ctx, ds)
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	}

	count, err := sink.Count(ctx, "seller_training_data")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	var score float64
	require.NoError(t, conn.DB().QueryRowContext(ctx,
		`SELECT review_score FROM features.seller_training_data WHERE seller_id = 's1'`).Scan(&score))
	assert.InDelta(t, 4.5, score, 1e-9)

	body, err := os.ReadFile(filepath.Join(dir, "out", "seller_training_data.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "seller_id,n_orders,review_score,date_first_sale", lines[0])
}

func TestCopyTarget(t *testing.T) {
	cases := []struct {
		path, wantPath, wantFormat string
	}{
		{"out/{table}.csv", "out/t.csv", "FORMAT CSV, HEADER"},
		{"out/{table}.parquet", "out/t.parquet", "FORMAT PARQUET"},
		{"out", "out/t.parquet", "FORMAT PARQUET"},
		{"out/features.CSV", "out/t_features.CSV", "FORMAT CSV, HEADER"},
	}
	for _, c := range cases {
		path, format := copyTarget(c.path, "t")
		assert.Equal(t, c.wantPath, path, c.path)
		assert.Equal(t, c.wantFormat, format, c.path)
	}
}

func TestRedisSink(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sink := NewRedisSink(client, "olist:", 1, zap.NewNop())
	t.Cleanup(func() { sink.Close() })

	ctx := context.Background()
	mr.HSet("olist:seller_training_data:stale", "n_orders", "9")
	mr.SAdd("olist:seller_training_data:keys", "olist:seller_training_data:stale")

	n, err := sink.Write(ctx, features(t))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	assert.False(t, mr.Exists("olist:seller_training_data:stale"))
	assert.Equal(t, "3", mr.HGet("olist:seller_training_data:s1", "n_orders"))
	assert.Equal(t, "4.5", mr.HGet("olist:seller_training_data:s1", "review_score"))
	assert.Equal(t, "2018-01-02T03:04:05Z", mr.HGet("olist:seller_training_data:s1", "date_first_sale"))
	assert.Equal(t, "", mr.HGet("olist:seller_training_data:s2", "review_score"))

	count, err := sink.Count(ctx, "seller_training_data")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestRedisSinkSharedKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	sink := NewRedisSink(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", 100, zap.NewNop())
	t.Cleanup(func() { sink.Close() })

	meta := model.TableMetadata{
		Name: "order_training_data",
		Columns: []model.Column{
			{Name: "order_id", Type: model.TypeString},
			{Name: "review_score", Type: model.TypeInt},
		},
	}
	ds := Dataset{
		Table: table.MustNew(meta, []table.Row{
			{"order_id": "o1", "review_score": int64(1)},
			{"order_id": "o1", "review_score": int64(3)},
		}),
		Key: []string{"order_id"},
	}

	n, err := sink.Write(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "3", mr.HGet("order_training_data:o1", "review_score"))
}

func TestRedisSinkWithoutKey(t *testing.T) {
	mr := miniredis.RunT(t)
	sink := NewRedisSink(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "", 0, zap.NewNop())
	t.Cleanup(func() { sink.Close() })

	ds := features(t)
	ds.Key = nil
	_, err := sink.Write(context.Background(), ds)
	require.Error(t, err)
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
		ok   bool
	}{
		{nil, "", false},
		{"a", "a", true},
		{int64(-4), "-4", true},
		{0.1, "0.1", true},
		{float64(2), "2", true},
		{time.Date(2020, 5, 1, 0, 0, 0, 5, time.UTC), "2020-05-01T00:00:00.000000005Z", true},
	}
	for _, c := range cases {
		got, ok := formatValue(c.in)
		assert.Equal(t, c.want, got)
		assert.Equal(t, c.ok, ok)
	}
}

func TestCategorizeError(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())
	cases := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrorCategoryNone},
		{fmt.Errorf("write: %w", context.Canceled), ErrorCategoryCritical},
		{context.DeadlineExceeded, ErrorCategoryConnectionLevel},
		{errors.New("dial tcp: connection refused"), ErrorCategoryConnectionLevel},
		{&model.SchemaError{Table: "t", Column: "c", Err: model.ErrTypeMismatch}, ErrorCategoryValidation},
		{model.MissingTable("orders"), ErrorCategoryTableLevel},
		{errors.New("boom"), ErrorCategoryRowLevel},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, eh.CategorizeError(c.err), "%v", c.err)
	}
}

func TestErrorHandlerAbort(t *testing.T) {
	eh := NewErrorHandler(zap.NewNop())
	at := time.Now()

	eh.RecordError(NewErrorRecord(errors.New("boom"), ErrorCategoryRowLevel, at).WithTable("redis", "t"))
	assert.False(t, eh.ShouldAbort())

	for i := 0; i < 3; i++ {
		eh.RecordError(NewErrorRecord(errors.New("reset"), ErrorCategoryConnectionLevel, at).WithTable("postgres", "t"))
	}
	assert.True(t, eh.ShouldAbort())
	assert.True(t, eh.IsErrorThresholdExceeded())
	assert.Equal(t, map[string]int{"redis": 1, "postgres": 3}, eh.GetSinkErrorCounts())
	assert.Equal(t, 3, eh.GetErrorSummary()[ErrorCategoryConnectionLevel])
}

func TestExporter(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	good := newFakeSink("duckdb", nil)
	bad := newFakeSink("redis", errors.New("boom"))

	ds := features(t)
	exp := NewExporter([]Sink{good, bad}, zap.NewNop(), WithWorkers(3), WithClock(clock))
	summary, err := exp.Export(context.Background(), []Dataset{ds})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Jobs)
	assert.Equal(t, 1, summary.SuccessfulJobs)
	assert.Equal(t, 1, summary.FailedJobs)
	assert.Equal(t, int64(2), summary.TotalRows)
	assert.Equal(t, 1, summary.ErrorCategories[ErrorCategoryRowLevel])
	assert.InDelta(t, 50.0, summary.SuccessRate(), 1e-9)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "duckdb", summary.Results[0].Sink)
	assert.True(t, summary.Results[0].Success)
	assert.True(t, summary.Results[0].Verified)
	assert.Equal(t, "redis", summary.Results[1].Sink)
	assert.False(t, summary.Results[1].Success)
	require.Len(t, summary.Results[1].Errors, 1)
	assert.Equal(t, "boom", summary.Results[1].Errors[0].Message)

	var buf bytes.Buffer
	summary.WriteReport(&buf)
	report := buf.String()
	assert.Contains(t, report, "seller_training_data")
	assert.Contains(t, report, "1/2 jobs succeeded")
	assert.Contains(t, report, "- RowLevel: 1")

	require.Len(t, summary.ErrorSamples[ErrorCategoryRowLevel], 1)
	assert.Contains(t, report, "[RowLevel] Sink: redis Table: seller_training_data Error: boom")
}

func TestExporterAborts(t *testing.T) {
	failing := newFakeSink("postgres", fmt.Errorf("insert: %w", context.Canceled))
	exp := NewExporter([]Sink{failing}, zap.NewNop(), WithWorkers(1), WithVerification(false))

	ds := features(t)
	other := Dataset{Table: ds.Table.WithName("other"), Key: ds.Key}
	summary, err := exp.Export(context.Background(), []Dataset{ds, other})
	require.ErrorIs(t, err, ErrAborted)
	require.NotNil(t, summary)
	assert.Zero(t, summary.SuccessfulJobs)
	assert.GreaterOrEqual(t, summary.FailedJobs, 1)
	assert.True(t, exp.Errors().ShouldAbort())
}

func TestVerifierMismatch(t *testing.T) {
	sink := newFakeSink("duckdb", nil)
	_, err := sink.Write(context.Background(), features(t))
	require.NoError(t, err)

	v := NewVerifier(zap.NewNop()).WithTimeout(time.Second)
	res, err := v.VerifyRowCount(context.Background(), sink, "seller_training_data", 5)
	require.NoError(t, err)
	assert.False(t, res.Matches)
	assert.Equal(t, int64(2), res.ActualCount)

	_, err = v.VerifyRowCount(context.Background(), sink, "missing", 0)
	require.Error(t, err)
}
