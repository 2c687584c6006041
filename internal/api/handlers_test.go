package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seedling/internal/seed"
	"seedling/internal/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSeeding struct {
	mock.Mock
}

func (m *MockSeeding) Environment() string { return m.Called().String(0) }

func (m *MockSeeding) Run(ctx context.Context) (*seed.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*seed.Result), args.Error(1)
}

func (m *MockSeeding) Last() (services.Status, error) {
	args := m.Called()
	return args.Get(0).(services.Status), args.Error(1)
}

func (m *MockSeeding) List(ctx context.Context) ([]services.SeedInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.SeedInfo), args.Error(1)
}

func newTestEcho(seeds Seeding) *echo.Echo {
	e := echo.New()
	s := NewServer(seeds)
	e.GET("/health", s.HandleHealth)
	RegisterHandlers(e.Group("/api/v1"), s)
	return e
}

func do(e *echo.Echo, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	m := &MockSeeding{}
	m.On("Environment").Return("test")

	rec := do(newTestEcho(m), http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test", body.Environment)
}

func TestGetSeedBeforeRun(t *testing.T) {
	m := &MockSeeding{}
	m.On("Last").Return(services.Status{}, services.ErrNotRun)

	rec := do(newTestEcho(m), http.MethodGet, "/api/v1/seed")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get(echo.HeaderContentType))

	var body ProblemDetails
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "/api/v1/seed", body.Instance)
}

func TestGetSeed(t *testing.T) {
	m := &MockSeeding{}
	m.On("Last").Return(services.Status{
		Result:   &seed.Result{Environment: "test", Records: 3, Data: []seed.AssociationResult{}},
		Finished: time.Now(),
	}, nil)

	rec := do(newTestEcho(m), http.MethodGet, "/api/v1/seed")
	require.Equal(t, http.StatusOK, rec.Code)

	var body services.Status
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Result.Records)
}

func TestRunSeed(t *testing.T) {
	m := &MockSeeding{}
	m.On("Run", mock.Anything).Return(&seed.Result{Environment: "test", Records: 2, Data: []seed.AssociationResult{}}, nil)

	rec := do(newTestEcho(m), http.MethodPost, "/api/v1/seed")
	require.Equal(t, http.StatusOK, rec.Code)

	var body seed.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Records)
	m.AssertExpectations(t)
}

func TestRunSeedFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"unknown model", fmt.Errorf("seed models: %w: comment", seed.ErrModelNotFound), http.StatusUnprocessableEntity},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockSeeding{}
			m.On("Run", mock.Anything).Return(nil, tt.err)

			rec := do(newTestEcho(m), http.MethodPost, "/api/v1/seed")
			assert.Equal(t, tt.code, rec.Code)

			var body ProblemDetails
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.err.Error(), body.Detail)
		})
	}
}

func TestListSeeds(t *testing.T) {
	m := &MockSeeding{}
	infos := []services.SeedInfo{{Key: "UserSeed", Model: "user", Kind: "sequence", Records: 2}}
	m.On("List", mock.Anything).Return(infos, nil)

	rec := do(newTestEcho(m), http.MethodGet, "/api/v1/seeds")
	require.Equal(t, http.StatusOK, rec.Code)

	var body []services.SeedInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, infos, body)
}
