package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightboard/brightboard/internal/api/handlers"
	"github.com/brightboard/brightboard/internal/domain"
	"github.com/brightboard/brightboard/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, input service.AnswerInput) (*service.AnswerOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AnswerOutput), args.Error(1)
}

type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, input service.RetrieveInput) ([]*domain.RetrievedChunk, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RetrievedChunk), args.Error(1)
}

type MockGroupResolver struct {
	mock.Mock
}

func (m *MockGroupResolver) ResolveUnitIDs(ctx context.Context, boardID string, groupIDs []string) ([]string, error) {
	args := m.Called(ctx, boardID, groupIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type MockUnitIngestor struct {
	mock.Mock
}

func (m *MockUnitIngestor) UnitTextAvailable(ctx context.Context, unitID, boardID, text string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, unitID, boardID, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

func (m *MockUnitIngestor) UnitDeleted(ctx context.Context, unitID string) error {
	args := m.Called(ctx, unitID)
	return args.Error(0)
}

type MockJobGetter struct {
	mock.Mock
}

func (m *MockJobGetter) GetByID(ctx context.Context, id string) (*domain.IngestionJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestionJob), args.Error(1)
}

func setupRouter() (http.Handler, *MockAnswerer, *MockRetriever, *MockUnitIngestor, *MockJobGetter) {
	answerer := new(MockAnswerer)
	retriever := new(MockRetriever)
	resolver := new(MockGroupResolver)
	ingestor := new(MockUnitIngestor)
	jobs := new(MockJobGetter)

	cfg := RouterConfig{
		ChatHandler:      handlers.NewChatHandler(answerer, resolver),
		RetrieveHandler:  handlers.NewRetrieveHandler(retriever, resolver),
		UnitHandler:      handlers.NewUnitHandler(ingestor),
		IngestionHandler: handlers.NewIngestionHandler(jobs),
	}

	router := NewRouter(cfg)
	return router, answerer, retriever, ingestor, jobs
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
}

func TestRouter_ChatRoute(t *testing.T) {
	router, answerer, _, _, _ := setupRouter()

	answerer.On("Answer", mock.Anything, mock.Anything).Return(&service.AnswerOutput{
		Answer:  "grounded answer",
		Sources: []service.Source{},
	}, nil)

	body := `{"board_id":"board-1","query":"what changed?"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	answerer.AssertExpectations(t)
}

func TestRouter_RetrieveRoute(t *testing.T) {
	router, _, retriever, _, _ := setupRouter()

	retriever.On("Retrieve", mock.Anything, mock.Anything).Return([]*domain.RetrievedChunk{}, nil)

	body := `{"board_id":"board-1","query":"anything"}`
	req := httptest.NewRequest(http.MethodPost, "/retrieve", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	retriever.AssertExpectations(t)
}

func TestRouter_UnitRoutes(t *testing.T) {
	router, _, _, ingestor, _ := setupRouter()

	ingestor.On("UnitTextAvailable", mock.Anything, "unit-1", "board-1", "text").Return(&domain.IngestionJob{
		ID:        "job-1",
		UnitID:    "unit-1",
		BoardID:   "board-1",
		Status:    domain.IngestionJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil)
	ingestor.On("UnitDeleted", mock.Anything, "unit-1").Return(nil)

	putReq := httptest.NewRequest(http.MethodPut, "/units/unit-1/text", bytes.NewReader([]byte(`{"board_id":"board-1","text":"text"}`)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, putReq)
	assert.Equal(t, http.StatusAccepted, w.Code)

	delReq := httptest.NewRequest(http.MethodDelete, "/units/unit-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, delReq)
	assert.Equal(t, http.StatusNoContent, w.Code)

	ingestor.AssertExpectations(t)
}

func TestRouter_IngestionStatusRoute(t *testing.T) {
	router, _, _, _, jobs := setupRouter()

	jobs.On("GetByID", mock.Anything, "job-1").Return(&domain.IngestionJob{
		ID:        "job-1",
		UnitID:    "unit-1",
		BoardID:   "board-1",
		Status:    domain.IngestionJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ingestions/job-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	jobs.AssertExpectations(t)
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _, _, _, _ := setupRouter()

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
