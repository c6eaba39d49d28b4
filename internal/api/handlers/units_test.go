package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

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

func newUnitRouter(handler *UnitHandler) http.Handler {
	r := chi.NewRouter()
	r.Put("/units/{id}/text", handler.PutText)
	r.Delete("/units/{id}", handler.Delete)
	return r
}

func TestUnitHandler_PutText_Accepted(t *testing.T) {
	mockSvc := new(MockUnitIngestor)
	router := newUnitRouter(NewUnitHandler(mockSvc))

	job := &domain.IngestionJob{
		ID:        "job-1",
		UnitID:    "unit-1",
		BoardID:   "board-1",
		Status:    domain.IngestionJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	mockSvc.On("UnitTextAvailable", mock.Anything, "unit-1", "board-1", "hello world").Return(job, nil)

	body := `{"board_id":"board-1","text":"hello world"}`
	req := httptest.NewRequest(http.MethodPut, "/units/unit-1/text", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		Data PutUnitTextResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.Data.JobID)
	assert.Equal(t, "pending", resp.Data.Status)
	mockSvc.AssertExpectations(t)
}

func TestUnitHandler_PutText_BlankTextRejected(t *testing.T) {
	mockSvc := new(MockUnitIngestor)
	router := newUnitRouter(NewUnitHandler(mockSvc))

	mockSvc.On("UnitTextAvailable", mock.Anything, "unit-1", "board-1", "  ").
		Return(nil, domain.ErrEmptyText)

	body := `{"board_id":"board-1","text":"  "}`
	req := httptest.NewRequest(http.MethodPut, "/units/unit-1/text", bytes.NewReader([]byte(body)))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnitHandler_PutText_InvalidBody(t *testing.T) {
	router := newUnitRouter(NewUnitHandler(new(MockUnitIngestor)))

	req := httptest.NewRequest(http.MethodPut, "/units/unit-1/text", bytes.NewReader([]byte("{oops")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnitHandler_Delete_NoContent(t *testing.T) {
	mockSvc := new(MockUnitIngestor)
	router := newUnitRouter(NewUnitHandler(mockSvc))

	mockSvc.On("UnitDeleted", mock.Anything, "unit-1").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/units/unit-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestUnitHandler_Delete_IdempotentForUnknownUnit(t *testing.T) {
	mockSvc := new(MockUnitIngestor)
	router := newUnitRouter(NewUnitHandler(mockSvc))

	// Service treats unknown units as already deleted.
	mockSvc.On("UnitDeleted", mock.Anything, "never-seen").Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/units/never-seen", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}
