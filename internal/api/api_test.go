package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amerone/dabase-tool/internal/configstore"
	"github.com/Amerone/dabase-tool/internal/core"
	"github.com/Amerone/dabase-tool/internal/metrics"
	"github.com/Amerone/dabase-tool/internal/session"
	"github.com/Amerone/dabase-tool/internal/session/sessiontest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeConn struct {
	*sessiontest.Fake
	closed *int
}

func (c fakeConn) Close() error {
	*c.closed++
	return nil
}

type fakeConnector struct {
	fake    *sessiontest.Fake
	openErr error
	testErr error
	opened  []session.ConnectionConfig
	closed  int
}

func (f *fakeConnector) Open(_ context.Context, cfg session.ConnectionConfig) (Conn, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.opened = append(f.opened, cfg)
	return fakeConn{Fake: f.fake, closed: &f.closed}, nil
}

func (f *fakeConnector) Test(context.Context, session.ConnectionConfig) error {
	return f.testErr
}

var fixedTime = time.Date(2026, 1, 30, 12, 0, 0, 7_000_000, time.UTC)

func newTestServer(t *testing.T, opts ...Option) (*Server, *fakeConnector) {
	t.Helper()
	conn := &fakeConnector{fake: sessiontest.New()}
	opts = append([]Option{
		WithExportDir(t.TempDir()),
		WithClock(func() time.Time { return fixedTime }),
	}, opts...)
	return New(conn, opts...), conn
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func loginQuery(schema string) string {
	return "host=127.0.0.1&port=5236&username=SYSDBA&password=secret&schema=" + schema
}

func validConfig() session.ConnectionConfig {
	return session.ConnectionConfig{Host: "127.0.0.1", Port: 5236, Username: "SYSDBA", Password: "secret", Schema: "APP"}
}

func stubOrders(fake *sessiontest.Fake) {
	fake.When("FROM ALL_TAB_COLUMNS c", "'ORDERS'").Return(
		[]any{"ID", "INT", "4", "4", "10", "0", "N", nil, "B", nil},
		[]any{"NOTE", "VARCHAR", "100", "100", nil, nil, "Y", nil, "C", "free text"},
	)
	fake.When("FROM ALL_TAB_COLUMNS c").Return()
	fake.When("SELECT COMMENTS FROM ALL_TAB_COMMENTS").Return()
	fake.When("FROM SYSCOLUMNS col").Return()
	fake.When("CONSTRAINT_TYPE = 'P'", "'ORDERS'").Return([]any{"ID"})
	fake.When("CONSTRAINT_TYPE = 'P'").Return()
	fake.When("FROM ALL_INDEXES ai").Return()
	fake.When("CONSTRAINT_TYPE = 'U'").Return()
	fake.When("CONSTRAINT_TYPE = 'C'").Return()
	fake.When("CONSTRAINT_TYPE = 'R'").Return()
	fake.When("FROM ALL_TRIGGERS").Return()
	fake.When("FROM ALL_SEQUENCES").Return()
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestRequestIDHeader(t *testing.T) {
	s, _ := newTestServer(t)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/api/health", nil)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/export/ddl", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Less(t, rec.Code, 300)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestTestConnection(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		testErr  error
		wantCode int
		wantOK   bool
		wantErr  string
	}{
		{name: "ok", body: validConfig(), wantCode: http.StatusOK, wantOK: true},
		{name: "driver failure", body: validConfig(), testErr: fmt.Errorf("%w: no route to host", core.ErrConnectivity),
			wantCode: http.StatusOK, wantErr: "Connection test failed: database unavailable: no route to host"},
		{name: "invalid config", body: session.ConnectionConfig{Port: 5236}, wantCode: http.StatusOK, wantErr: "DM8 host is required"},
		{name: "malformed json", body: "{", wantCode: http.StatusBadRequest, wantErr: "invalid request body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn := newTestServer(t)
			conn.testErr = tt.testErr

			rec := do(t, s.Handler(), http.MethodPost, "/api/connection/test", tt.body)
			require.Equal(t, tt.wantCode, rec.Code)
			env := decode(t, rec)
			assert.Equal(t, tt.wantOK, env.Success)
			if tt.wantErr != "" {
				assert.Contains(t, env.Error, tt.wantErr)
				return
			}
			assert.JSONEq(t, `{"success":true,"message":"Connection successful"}`, string(env.Data))
		})
	}
}

func TestListTables(t *testing.T) {
	s, conn := newTestServer(t)
	conn.fake.When("FROM ALL_TABLES t", "t.OWNER = 'APP'").Return(
		[]any{"ORDERS", "customer orders", "12"},
		[]any{"ITEMS", nil, "3"},
	)

	rec := do(t, s.Handler(), http.MethodGet, "/api/tables?"+loginQuery("app"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.True(t, env.Success, env.Error)

	var tables []core.Table
	require.NoError(t, json.Unmarshal(env.Data, &tables))
	require.Len(t, tables, 2)
	assert.Equal(t, "ORDERS", tables[0].Name)
	assert.Equal(t, int64(12), *tables[0].RowCount)
	assert.Equal(t, 1, conn.closed)
	assert.Equal(t, "app", conn.opened[0].Schema)
}

func TestListTablesConnectionFailures(t *testing.T) {
	s, conn := newTestServer(t)
	conn.openErr = fmt.Errorf("%w: connect to DM8 at 127.0.0.1:5236 as SYSDBA: timeout", core.ErrConnectivity)

	env := decode(t, do(t, s.Handler(), http.MethodGet, "/api/tables?"+loginQuery("APP"), nil))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Failed to get connection")

	env = decode(t, do(t, s.Handler(), http.MethodGet, "/api/tables?schema=APP", nil))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "DM8 host is required")

	rec := do(t, s.Handler(), http.MethodGet, "/api/tables?port=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTableDetails(t *testing.T) {
	s, conn := newTestServer(t)
	stubOrders(conn.fake)
	h := s.Handler()

	env := decode(t, do(t, h, http.MethodGet, "/api/tables/ORDERS/details?"+loginQuery("APP"), nil))
	require.True(t, env.Success, env.Error)
	var details core.TableDetails
	require.NoError(t, json.Unmarshal(env.Data, &details))
	assert.Equal(t, "ORDERS", details.Name)
	assert.Equal(t, []string{"ID"}, details.PrimaryKeys)
	require.Len(t, details.Columns, 2)
	assert.Equal(t, "free text", details.Columns[1].Comment)

	env = decode(t, do(t, h, http.MethodGet, "/api/tables/GHOST/details?"+loginQuery("APP"), nil))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Failed to get table details")
	assert.Contains(t, env.Error, "table 'GHOST' does not exist in schema 'APP'")
}

func TestListSchemasFromQueryAndProfile(t *testing.T) {
	store, err := configstore.New(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	s, conn := newTestServer(t, WithStore(store))
	conn.fake.When("FROM ALL_USERS").Return([]any{"APP"}, []any{"SYSDBA"})
	h := s.Handler()

	env := decode(t, do(t, h, http.MethodGet, "/api/schemas?"+loginQuery("APP"), nil))
	require.True(t, env.Success, env.Error)
	assert.JSONEq(t, `["APP","SYSDBA"]`, string(env.Data))

	saved := validConfig()
	saved.Host = "10.0.0.9"
	_, err = store.Save(saved)
	require.NoError(t, err)

	env = decode(t, do(t, h, http.MethodGet, "/api/schemas", nil))
	require.True(t, env.Success, env.Error)
	assert.Equal(t, "10.0.0.9", conn.opened[1].Host)
}

func TestExportDDL(t *testing.T) {
	m := metrics.New()
	s, conn := newTestServer(t, WithMetrics(m))
	stubOrders(conn.fake)

	cfg := validConfig()
	cfg.ExportSchema = "IGNORED"
	rec := do(t, s.Handler(), http.MethodPost, "/api/export/ddl", ExportRequest{
		Config:       cfg,
		ExportSchema: " TGT ",
		Tables:       []string{"ORDERS"},
		DropExisting: true,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	require.True(t, env.Success, env.Error)

	var resp ExportResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "DDL exported successfully", resp.Message)
	assert.Equal(t, filepath.Join(s.exportDir, "APP_to_TGT_ddl_20260130_120000_007.sql"), resp.FilePath)

	content, err := os.ReadFile(resp.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `DROP TABLE IF EXISTS "TGT"."ORDERS";`)
	assert.Contains(t, string(content), `CREATE TABLE "TGT"."ORDERS"`)
}

func TestExportDDLFailures(t *testing.T) {
	s, conn := newTestServer(t)
	stubOrders(conn.fake)
	h := s.Handler()

	env := decode(t, do(t, h, http.MethodPost, "/api/export/ddl", ExportRequest{
		Config: validConfig(), Tables: []string{"GHOST"},
	}))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "Failed to export DDL: failed to fetch table metadata for 'GHOST'")

	env = decode(t, do(t, h, http.MethodPost, "/api/export/ddl", ExportRequest{
		Config: validConfig(), Tables: []string{"ORDERS"}, TriggerTerminator: "semicolon",
	}))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "unsupported trigger terminator")

	rec := do(t, h, http.MethodPost, "/api/export/ddl", `{"config": 7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportData(t *testing.T) {
	s, conn := newTestServer(t, WithBatchSize(1))
	stubOrders(conn.fake)
	conn.fake.When(`SELECT "ID", "NOTE" FROM "APP"."ORDERS"`).Return(
		[]any{"1", "first"},
		[]any{"2", nil},
	)

	env := decode(t, do(t, s.Handler(), http.MethodPost, "/api/export/data", ExportRequest{
		Config: validConfig(), Tables: []string{"ORDERS"},
	}))
	require.True(t, env.Success, env.Error)

	var resp ExportResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, filepath.Join(s.exportDir, "APP_to_APP_data_20260130_120000_007.sql"), resp.FilePath)

	content, err := os.ReadFile(resp.FilePath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(content), `INSERT INTO "APP"."ORDERS"`))
	assert.Contains(t, string(content), "(2, NULL);")
}

func TestExportDataRejectsBatchSizeOutOfRange(t *testing.T) {
	for _, size := range []int{-5, core.MaxBatchSize + 1} {
		t.Run(fmt.Sprint(size), func(t *testing.T) {
			s, conn := newTestServer(t)
			env := decode(t, do(t, s.Handler(), http.MethodPost, "/api/export/data", ExportRequest{
				Config: validConfig(), Tables: []string{"ORDERS"}, BatchSize: size,
			}))
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, "batch_size must be between 0 and 100000")
			assert.Empty(t, conn.opened)
		})
	}
}

func TestExportRejectsSchemaPaths(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		schema       string
		exportSchema string
		wantErr      string
	}{
		{name: "data export schema", target: "/api/export/data", exportSchema: "../../../pwn", wantErr: "export_schema must not contain"},
		{name: "ddl export schema", target: "/api/export/ddl", exportSchema: `..\pwn`, wantErr: "export_schema must not contain"},
		{name: "source schema", target: "/api/export/data", schema: "APP/../../pwn", wantErr: "schema name must not contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s, conn := newTestServer(t, WithExportDir(filepath.Join(root, "a", "b", "exports")))
			stubOrders(conn.fake)

			cfg := validConfig()
			if tt.schema != "" {
				cfg.Schema = tt.schema
			}
			env := decode(t, do(t, s.Handler(), http.MethodPost, tt.target, ExportRequest{
				Config: cfg, ExportSchema: tt.exportSchema, Tables: []string{"NOPE"},
			}))
			assert.False(t, env.Success)
			assert.Contains(t, env.Error, tt.wantErr)
			assert.Empty(t, conn.opened)

			entries, err := os.ReadDir(root)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestConnectionProfile(t *testing.T) {
	store, err := configstore.New(filepath.Join(t.TempDir(), "config.toml"))
	require.NoError(t, err)
	s, _ := newTestServer(t, WithStore(store))
	h := s.Handler()

	t.Setenv(configstore.EnvHost, "env-host")
	t.Setenv(configstore.EnvPort, "1234")
	t.Setenv(configstore.EnvUsername, "env-user")
	t.Setenv(configstore.EnvPassword, "env-pass")
	t.Setenv(configstore.EnvSchema, "ENV")

	env := decode(t, do(t, h, http.MethodGet, "/api/config/connection", nil))
	require.True(t, env.Success, env.Error)
	var got configstore.StoredConnection
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, configstore.SourceEnv, got.Source)
	assert.Equal(t, "env-host", got.Config.Host)
	assert.Empty(t, got.UpdatedAt)

	env = decode(t, do(t, h, http.MethodPost, "/api/config/connection", validConfig()))
	require.True(t, env.Success, env.Error)

	env = decode(t, do(t, h, http.MethodGet, "/api/config/connection", nil))
	require.True(t, env.Success, env.Error)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, configstore.SourceFile, got.Source)
	assert.Equal(t, "127.0.0.1", got.Config.Host)
	_, err = time.Parse(time.RFC3339, got.UpdatedAt)
	assert.NoError(t, err)

	bad := validConfig()
	bad.Port = 0
	env = decode(t, do(t, h, http.MethodPost, "/api/config/connection", bad))
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "DM8 port must be greater than zero")
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	s, _ := newTestServer(t, WithMetrics(m))
	h := s.Handler()

	do(t, h, http.MethodGet, "/api/health", nil)
	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dmexport_http_requests_total{endpoint="/api/health",method="GET",status="200"} 1`)
}

func TestMetricsEndpointAbsentWithoutMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s.Handler(), http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveProfileWithoutStore(t *testing.T) {
	s, _ := newTestServer(t)
	orig := lookupEnv
	t.Cleanup(func() { lookupEnv = orig })
	lookupEnv = func(string) (string, bool) { return "", false }

	_, err := s.resolveProfile()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfig))
	assert.Contains(t, err.Error(), "DATABASE_HOST not set")
}
