package end

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor/internal/service/session"
	"shopfloor/internal/storage"
)

type MockEnder struct {
	mock.Mock
}

func (m *MockEnder) EndSession(ctx context.Context, sessionID int64, qty, defects int) (*session.EndResult, error) {
	args := m.Called(ctx, sessionID, qty, defects)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.EndResult), args.Error(1)
}

func serve(ender SessionEnder, path, body string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Post("/api/sessions/{id}/end", EndSession(slog.Default(), ender))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
	return rr
}

func TestEndSession_Success(t *testing.T) {
	ender := new(MockEnder)
	ender.On("EndSession", mock.Anything, int64(11), 10, 1).Return(&session.EndResult{
		Session:         &storage.WorkLog{ID: 11, QuantityProduced: 10, DefectQuantity: 1},
		Task:            &storage.Task{ID: 3, Status: storage.TaskCompleted},
		OrderStatus:     storage.OrderReady,
		MaterialWarning: "insufficient material stock: Стекло",
	}, nil)

	rr := serve(ender, "/api/sessions/11/end", `{"quantity_produced":10,"defect_quantity":1}`)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		OrderStatus     string `json:"order_status"`
		MaterialWarning string `json:"material_warning"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "READY", resp.OrderStatus)
	assert.Contains(t, resp.MaterialWarning, "Стекло")

	ender.AssertExpectations(t)
}

func TestEndSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"не найдена", storage.ErrSessionNotFound, http.StatusNotFound},
		{"уже завершена", storage.ErrSessionAlreadyEnded, http.StatusConflict},
		{"отрицательное количество", storage.ErrValidation, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ender := new(MockEnder)
			ender.On("EndSession", mock.Anything, int64(11), mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := serve(ender, "/api/sessions/11/end", `{"quantity_produced":-1}`)
			assert.Equal(t, tt.code, rr.Code)
		})
	}
}

func TestEndSession_InvalidID(t *testing.T) {
	ender := new(MockEnder)

	rr := serve(ender, "/api/sessions/abc/end", `{}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	ender.AssertNotCalled(t, "EndSession", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
