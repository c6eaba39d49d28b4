package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/brightboard/brightboard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbeddingAPI mocks the provider embedding surface
type MockEmbeddingAPI struct {
	mock.Mock
}

func (m *MockEmbeddingAPI) CreateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([][]float32), args.Error(1)
}

// MockGenerationAPI mocks the provider chat surface
type MockGenerationAPI struct {
	mock.Mock
}

func (m *MockGenerationAPI) CreateChatCompletion(ctx context.Context, system, user string) (string, error) {
	args := m.Called(ctx, system, user)
	return args.String(0), args.Error(1)
}

func newTestClient(embeddings EmbeddingAPI, generation GenerationAPI, dimensions int) *Client {
	return newClient(embeddings, generation, Config{EmbeddingDimensions: dimensions})
}

func TestClient_GenerateEmbedding_Success(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 3)

	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"hello"}).
		Return([][]float32{{0.1, 0.2, 0.3}}, nil)

	vector, err := client.GenerateEmbedding(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vector)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateEmbedding_EmptyText(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 3)

	_, err := client.GenerateEmbedding(context.Background(), "")

	assert.ErrorIs(t, err, domain.ErrEmptyText)
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, mock.Anything)
}

func TestClient_GenerateEmbedding_DimensionMismatch(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 1536)

	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"hello"}).
		Return([][]float32{{0.1, 0.2}}, nil)

	_, err := client.GenerateEmbedding(context.Background(), "hello")

	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestClient_GenerateEmbedding_ProviderUnavailable(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 3)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := client.GenerateEmbedding(context.Background(), "hello")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProviderUnavailable, domainErr.Code)
}

func TestClient_GenerateEmbedding_TimeoutMapsToProviderTimeout(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 3)

	mockAPI.On("CreateEmbeddings", mock.Anything, mock.Anything).
		Return(nil, context.DeadlineExceeded)

	_, err := client.GenerateEmbedding(context.Background(), "hello")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProviderTimeout, domainErr.Code)
}

func TestClient_GenerateEmbeddings_BatchInOrder(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 2)

	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"one"}).Return([][]float32{{0.1, 0.1}}, nil)
	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"two"}).Return([][]float32{{0.2, 0.2}}, nil)

	vectors, err := client.GenerateEmbeddings(context.Background(), []string{"one", "two"})

	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{0.1, 0.1}, vectors[0])
	assert.Equal(t, []float32{0.2, 0.2}, vectors[1])
}

func TestClient_GenerateEmbeddings_FailureReturnsCompletedPrefix(t *testing.T) {
	mockAPI := new(MockEmbeddingAPI)
	client := newTestClient(mockAPI, nil, 2)

	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"one"}).Return([][]float32{{0.1, 0.1}}, nil)
	mockAPI.On("CreateEmbeddings", mock.Anything, []string{"two"}).Return(nil, errors.New("rate limited"))

	vectors, err := client.GenerateEmbeddings(context.Background(), []string{"one", "two", "three"})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "embedding 2 of 3")
	require.Len(t, vectors, 1)
	assert.Equal(t, []float32{0.1, 0.1}, vectors[0])
	mockAPI.AssertNotCalled(t, "CreateEmbeddings", mock.Anything, []string{"three"})
}

func TestClient_GenerateAnswer_Success(t *testing.T) {
	mockAPI := new(MockGenerationAPI)
	client := newTestClient(nil, mockAPI, 3)

	mockAPI.On("CreateChatCompletion", mock.Anything, "system prompt", "user prompt").
		Return("the answer", nil)

	answer, err := client.GenerateAnswer(context.Background(), "system prompt", "user prompt")

	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	mockAPI.AssertExpectations(t)
}

func TestClient_GenerateAnswer_ProviderError(t *testing.T) {
	mockAPI := new(MockGenerationAPI)
	client := newTestClient(nil, mockAPI, 3)

	mockAPI.On("CreateChatCompletion", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("503"))

	_, err := client.GenerateAnswer(context.Background(), "s", "u")

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeProviderUnavailable, domainErr.Code)
}

func TestNewClientFromEnv_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClientFromEnv()

	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestClient_Dimensions_Default(t *testing.T) {
	client := newTestClient(new(MockEmbeddingAPI), nil, 0)

	assert.Equal(t, DefaultEmbeddingDimensions, client.Dimensions())
}
