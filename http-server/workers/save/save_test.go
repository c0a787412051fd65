package save

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopfloor/internal/storage"
)

type MockCreator struct {
	mock.Mock
}

func (m *MockCreator) CreateWorker(ctx context.Context, w storage.Worker) (int64, error) {
	args := m.Called(ctx, w)
	return args.Get(0).(int64), args.Error(1)
}

func TestSaveWorker(t *testing.T) {
	m := new(MockCreator)
	m.On("CreateWorker", mock.Anything, storage.Worker{Name: "Сидоров", Role: "OPERATOR", IsActive: true}).Return(int64(12), nil)

	body := []byte(`{"name":" Сидоров ","role":"operator"}`)
	rr := httptest.NewRecorder()
	SaveWorker(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/workers", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), `"id":12`)
	m.AssertExpectations(t)
}

func TestSaveWorker_Inactive(t *testing.T) {
	m := new(MockCreator)
	m.On("CreateWorker", mock.Anything, storage.Worker{Name: "Ким", Role: "MASTER", IsActive: false}).Return(int64(3), nil)

	body := []byte(`{"name":"Ким","role":"MASTER","is_active":false}`)
	rr := httptest.NewRecorder()
	SaveWorker(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/workers", bytes.NewReader(body)))

	assert.Equal(t, http.StatusCreated, rr.Code)
	m.AssertExpectations(t)
}

func TestSaveWorker_BadRequest(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{"name":`,
		"no role":      `{"name":"Ким"}`,
		"blank name":   `{"name":"  ","role":"OPERATOR"}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			m := new(MockCreator)
			rr := httptest.NewRecorder()
			SaveWorker(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/workers", bytes.NewReader([]byte(body))))

			assert.Equal(t, http.StatusBadRequest, rr.Code)
			m.AssertNotCalled(t, "CreateWorker", mock.Anything, mock.Anything)
		})
	}
}

func TestSaveWorker_StorageError(t *testing.T) {
	m := new(MockCreator)
	m.On("CreateWorker", mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	rr := httptest.NewRecorder()
	SaveWorker(slog.Default(), m).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/admin/workers", bytes.NewReader([]byte(`{"name":"Ким","role":"MASTER"}`))))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}
