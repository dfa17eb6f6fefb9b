package client

import (
	"HistoryDB/internal/application/service"
	"HistoryDB/internal/domain"
	"HistoryDB/internal/platform/api"
	"HistoryDB/internal/platform/config"
	"HistoryDB/internal/platform/repository"
	"HistoryDB/internal/platform/server"
	"HistoryDB/internal/platform/server/handler/history"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHistoryServer(t *testing.T, backend domain.StateHistoryBackend) *HistoryClient {
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
	ts := httptest.NewServer(server.NewServer(config.Config{}, handler, logger).Handler())
	t.Cleanup(ts.Close)
	return NewHistoryClient(ts.URL)
}

func TestHistoryClient(t *testing.T) {
	cli := newHistoryServer(t, repository.CreateInMemoryBackend("client", 0))

	inserted, err := cli.Insert([]domain.StateInterval{
		domain.NewStateInterval(0, 9, 0, domain.NewStringValue("idle")),
		domain.NewStateInterval(0, 19, 1, domain.NewDoubleValue(0.25)),
		domain.NewStateInterval(10, 19, 0, domain.NewStringValue("busy")),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, inserted.Inserted)

	interval, err := cli.Singular(12, 0)
	require.NoError(t, err)
	assert.Equal(t, domain.NewStateInterval(10, 19, 0, domain.NewStringValue("busy")), interval)

	partial, err := cli.Partial(5, []int{0, 1})
	require.NoError(t, err)
	assert.Equal(t, map[int]domain.StateInterval{
		0: domain.NewStateInterval(0, 9, 0, domain.NewStringValue("idle")),
		1: domain.NewStateInterval(0, 19, 1, domain.NewDoubleValue(0.25)),
	}, partial)

	full, err := cli.Full(15, 3)
	require.NoError(t, err)
	require.Len(t, full, 3)
	assert.Equal(t, int64(10), full[0].Start())
	assert.Nil(t, full[2])

	bounds, err := cli.Finish(30)
	require.NoError(t, err)
	assert.Equal(t, &api.BoundsResponse{SSID: "client", StartTime: 0, EndTime: 30}, bounds)

	bounds, err = cli.Bounds()
	require.NoError(t, err)
	assert.Equal(t, int64(30), bounds.EndTime)
}

func TestHistoryClient_Errors(t *testing.T) {
	cli := newHistoryServer(t, repository.CreateInMemoryBackend("client", 0))
	_, err := cli.Insert([]domain.StateInterval{domain.NewStateInterval(0, 9, 0, domain.NullValue())})
	require.NoError(t, err)

	_, err = cli.Singular(5, 4)
	assert.ErrorIs(t, err, domain.ErrAttributeNotFound)

	_, err = cli.Singular(50, 0)
	assert.ErrorIs(t, err, domain.ErrTimeRange)

	_, err = cli.Finish(20)
	require.NoError(t, err)
	_, err = cli.Insert([]domain.StateInterval{domain.NewStateInterval(21, 22, 0, domain.NullValue())})
	assert.ErrorIs(t, err, domain.ErrBackendFinished)
}

func TestHistoryClient_ServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history/bounds", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "disk full"})
	}))
	defer ts.Close()

	_, err := NewHistoryClient(ts.URL).Bounds()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}
