package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maxpert/mylite/cfg"
	"github.com/maxpert/mylite/db"
)

func newTestServer(t *testing.T) (*httptest.Server, *db.Translator) {
	t.Helper()
	conf := cfg.Default()
	conf.SQLite.Path = filepath.Join(t.TempDir(), "admin.db")
	tr, err := db.Open(context.Background(), conf)
	require.NoError(t, err)
	t.Cleanup(func() { tr.Close() })

	srv := httptest.NewServer(NewRouter(NewAdminHandlers(tr)))
	t.Cleanup(srv.Close)
	return srv, tr
}

func getJSON(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func get(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return getJSON(t, req)
}

func TestTablesEndpoints(t *testing.T) {
	srv, tr := newTestServer(t)
	_, err := tr.Query(context.Background(), "CREATE TABLE t (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR(20))")
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/admin/tables")
	require.Equal(t, http.StatusOK, status)
	tables := body["data"].([]any)
	require.Len(t, tables, 1)
	assert.Equal(t, "t", tables[0].(map[string]any)["Tables_in_wordpress"])
	assert.Equal(t, "BASE TABLE", tables[0].(map[string]any)["Table_type"])

	status, body = get(t, srv.URL+"/admin/tables/t/create")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.Equal(t, "t", data["table"])
	assert.Contains(t, data["create_table"], "CREATE TABLE `t`")

	status, body = get(t, srv.URL+"/admin/tables/t/columns")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = get(t, srv.URL+"/admin/tables/missing/create")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body["error"], "doesn't exist")
}

func TestStatsAndReconstruct(t *testing.T) {
	srv, tr := newTestServer(t)
	_, err := tr.Query(context.Background(), "CREATE TABLE a (id INT)")
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/admin/stats")
	require.Equal(t, http.StatusOK, status)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 1, data["catalog_tables"])
	assert.Equal(t, tr.SQLiteVersion(), data["sqlite_version"])

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/admin/reconstruct", nil)
	require.NoError(t, err)
	status, body = getJSON(t, req)
	require.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["data"].(map[string]any)["catalog_tables"])
}

func TestLastQueries(t *testing.T) {
	srv, tr := newTestServer(t)
	_, err := tr.Query(context.Background(), "CREATE TABLE t (a INT)")
	require.NoError(t, err)
	_, err = tr.Query(context.Background(), "SELECT a FROM t")
	require.NoError(t, err)

	status, body := get(t, srv.URL+"/admin/last-queries")
	require.Equal(t, http.StatusOK, status)
	queries := body["data"].([]any)
	var executed []string
	for _, q := range queries {
		executed = append(executed, q.(map[string]any)["sql"].(string))
	}
	assert.Contains(t, executed, "SELECT `a` FROM `t`")
}

func TestAuthMiddleware(t *testing.T) {
	prev := cfg.Config.Prometheus.AdminSecret
	cfg.Config.Prometheus.AdminSecret = "s3cret"
	t.Cleanup(func() { cfg.Config.Prometheus.AdminSecret = prev })

	srv, _ := newTestServer(t)

	tests := []struct {
		name   string
		header string
		value  string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "malformed", header: "Authorization", value: "Token s3cret", status: http.StatusUnauthorized},
		{name: "wrong", header: "X-Mylite-Secret", value: "nope", status: http.StatusUnauthorized},
		{name: "bearer", header: "Authorization", value: "Bearer s3cret", status: http.StatusOK},
		{name: "header", header: "X-Mylite-Secret", value: "s3cret", status: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/admin/stats", nil)
			require.NoError(t, err)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			status, _ := getJSON(t, req)
			assert.Equal(t, tt.status, status)
		})
	}
}
