package server

import (
	"HistoryDB/internal/application/service"
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api"
	"HistoryDB/internal/platform/config"
	"HistoryDB/internal/platform/repository"
	"HistoryDB/internal/platform/server/handler/history"
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func NewTestServer(t *testing.T, backend domain.StateHistoryBackend) *httptest.Server {
	logger := slog.Default()
	handler := history.NewHistoryHandler(
		service.NewInsertStateService(backend, logger),
		service.NewFinishBuildingService(backend, logger),
		service.NewSingularQueryService(backend),
		service.NewFullQueryService(backend),
		service.NewPartialQueryService(backend),
		service.NewBoundsService(backend),
		logger,
	)
	srv := NewServer(config.Config{ServerPort: 0}, handler, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, body any) *http.Response {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() {
		resp.Body.Close()
	})
	return resp
}

func get(t *testing.T, url string) *http.Response {
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() {
		resp.Body.Close()
	})
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, v), string(body))
}

func TestServer_Health(t *testing.T) {
	ts := NewTestServer(t, repository.CreateNullBackend("health"))
	resp := get(t, ts.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_InsertAndQuery(t *testing.T) {
	ts := NewTestServer(t, repository.CreateInMemoryBackend("http", 0))

	resp := post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 0, End: 10, Quark: 0, Value: api.StateValueDTO{Type: "string", String: "idle"}},
		{Start: 0, End: 4, Quark: 1, Value: api.StateValueDTO{Type: "integer", Long: 2}},
		{Start: 5, End: 12, Quark: 1, Value: api.StateValueDTO{Type: "null"}},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var inserted api.InsertResponse
	decode(t, resp, &inserted)
	assert.Equal(t, api.InsertResponse{Inserted: 3, EndTime: 12}, inserted)

	resp = get(t, ts.URL+"/history/1?t=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var single api.IntervalResponse
	decode(t, resp, &single)
	assert.Equal(t, api.IntervalDTO{Start: 0, End: 4, Quark: 1, Value: api.StateValueDTO{Type: "integer", Long: 2}}, single.Interval)

	resp = get(t, ts.URL+"/history?t=6&quarks=0,1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var partial api.QueryResponse
	decode(t, resp, &partial)
	require.Len(t, partial.ByQuark, 2)
	assert.Equal(t, int64(5), partial.ByQuark[1].Start)

	resp = get(t, ts.URL+"/history?t=6&nb_attributes=3")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var full api.QueryResponse
	decode(t, resp, &full)
	require.Len(t, full.Intervals, 3)
	assert.Equal(t, "idle", full.Intervals[0].Value.String)
	assert.Nil(t, full.Intervals[2])

	resp = get(t, ts.URL+"/history/bounds")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bounds api.BoundsResponse
	decode(t, resp, &bounds)
	assert.Equal(t, api.BoundsResponse{SSID: "http", StartTime: 0, EndTime: 12}, bounds)
}

func TestServer_ErrorStatuses(t *testing.T) {
	ts := NewTestServer(t, repository.CreateInMemoryBackend("http", 0))
	post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 0, End: 10, Quark: 0},
	}})

	cases := []struct {
		url    string
		status int
	}{
		{"/history/7?t=5", http.StatusNotFound},
		{"/history/0?t=11", http.StatusRequestedRangeNotSatisfiable},
		{"/history/zero?t=5", http.StatusBadRequest},
		{"/history/0", http.StatusBadRequest},
		{"/history?t=5", http.StatusBadRequest},
		{"/history?t=5&quarks=a", http.StatusBadRequest},
		{"/history?t=5&nb_attributes=-1", http.StatusBadRequest},
	}
	for _, c := range cases {
		resp := get(t, ts.URL+c.url)
		assert.Equal(t, c.status, resp.StatusCode, c.url)
		var errResp api.ErrorResponse
		decode(t, resp, &errResp)
		assert.NotEmpty(t, errResp.Error, c.url)
	}

	resp := post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 0, End: 1, Quark: 0, Value: api.StateValueDTO{Type: "uuid"}},
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 0, End: 1, Quark: 1 << 32, Value: api.StateValueDTO{Type: "null"}},
	}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_FinishBuilding(t *testing.T) {
	ts := NewTestServer(t, repository.CreateInMemoryBackend("http", 0))
	post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 0, End: 10, Quark: 0},
	}})

	resp := post(t, ts.URL+"/history/finish", api.FinishRequest{EndTime: 5})
	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, resp.StatusCode)

	resp = post(t, ts.URL+"/history/finish", api.FinishRequest{EndTime: 20})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var bounds api.BoundsResponse
	decode(t, resp, &bounds)
	assert.Equal(t, int64(20), bounds.EndTime)

	resp = post(t, ts.URL+"/history/intervals", api.InsertRequest{Intervals: []api.IntervalDTO{
		{Start: 11, End: 12, Quark: 0},
	}})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}
