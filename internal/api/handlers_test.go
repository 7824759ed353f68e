package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/busmarket/bus-scraper/internal/database"
	"github.com/busmarket/bus-scraper/internal/models"
)

type MockBusStore struct {
	mock.Mock
}

func (m *MockBusStore) List(ctx context.Context, limit, offset int) ([]*models.Bus, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Bus), args.Error(1)
}

func (m *MockBusStore) GetByID(ctx context.Context, id int64) (*models.Bus, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bus), args.Error(1)
}

func (m *MockBusStore) Stats(ctx context.Context) (*database.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*database.Stats), args.Error(1)
}

type MockOutboxCounter struct {
	mock.Mock
}

func (m *MockOutboxCounter) CountByStatus(ctx context.Context, status string) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func newTestServer(buses *MockBusStore, outbox *MockOutboxCounter) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := NewHandlers(buses, outbox, logger)
	return httptest.NewServer(NewRouter(handlers))
}

func TestListBuses(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	stored := []*models.Bus{
		{ID: 1, Title: "1998 Blue Bird TC2000", Source: "absolutebus"},
		{ID: 2, Title: "2004 Ford E450", Source: "absolutebus", Sold: true},
	}
	buses.On("List", mock.Anything, defaultListLimit, 0).Return(stored, nil)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/buses")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got []*models.Bus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 2)
	assert.Equal(t, "1998 Blue Bird TC2000", got[0].Title)
	assert.True(t, got[1].Sold)
}

func TestListBusesClampsLimit(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	buses.On("List", mock.Anything, defaultListLimit, 0).Return([]*models.Bus{}, nil)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/buses?limit=9999")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	buses.AssertCalled(t, "List", mock.Anything, defaultListLimit, 0)
}

func TestGetBus(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	bus := &models.Bus{
		ID:        42,
		Title:     "1998 Blue Bird TC2000",
		SourceURL: "http://absolutebus.com/listings/bus1.htm",
		Images: []models.BusImage{
			{Name: "front view", URL: "http://absolutebus.com/listings/main1.jpg", ImageIndex: 1},
		},
	}
	buses.On("GetByID", mock.Anything, int64(42)).Return(bus, nil)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/buses/42")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Bus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(42), got.ID)
	require.Len(t, got.Images, 1)
	assert.Equal(t, 1, got.Images[0].ImageIndex)
}

func TestGetBusNotFound(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	buses.On("GetByID", mock.Anything, int64(7)).Return(nil, database.ErrNotFound)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/buses/7")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetBusInvalidID(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/buses/not-a-number")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	buses.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestGetStats(t *testing.T) {
	buses := new(MockBusStore)
	outbox := new(MockOutboxCounter)

	buses.On("Stats", mock.Anything).Return(&database.Stats{Total: 12, Sold: 3, Images: 88}, nil)

	server := newTestServer(buses, outbox)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got database.Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, int64(12), got.Total)
	assert.Equal(t, int64(3), got.Sold)
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		buses := new(MockBusStore)
		outbox := new(MockOutboxCounter)

		outbox.On("CountByStatus", mock.Anything, database.OutboxStatusPending).Return(int64(3), nil)
		outbox.On("CountByStatus", mock.Anything, database.OutboxStatusDeadLetter).Return(int64(0), nil)

		server := newTestServer(buses, outbox)
		defer server.Close()

		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var health map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "ok", health["status"])
	})

	t.Run("dead letters trip the health check", func(t *testing.T) {
		buses := new(MockBusStore)
		outbox := new(MockOutboxCounter)

		outbox.On("CountByStatus", mock.Anything, database.OutboxStatusPending).Return(int64(0), nil)
		outbox.On("CountByStatus", mock.Anything, database.OutboxStatusDeadLetter).Return(int64(250), nil)

		server := newTestServer(buses, outbox)
		defer server.Close()

		resp, err := http.Get(server.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

		var health map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, "error", health["status"])
	})
}
