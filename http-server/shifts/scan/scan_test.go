package scan

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"shopfloor/internal/service/timekeeping"
	"shopfloor/internal/storage"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) ScanClock(ctx context.Context, userID int64, pointHash string) (*timekeeping.ScanResult, error) {
	args := m.Called(ctx, userID, pointHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*timekeeping.ScanResult), args.Error(1)
}

func TestScanClock(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		result   *timekeeping.ScanResult
		err      error
		wantCode int
		wantBody string
	}{
		{
			name:     "приход",
			body:     `{"user_id":7,"qr_point_hash":" gate-main "}`,
			result:   &timekeeping.ScanResult{Event: timekeeping.EventClockIn, Shift: &storage.Shift{UserID: 7}},
			wantCode: http.StatusOK,
			wantBody: `"event":"clock_in"`,
		},
		{
			name:     "чужая точка",
			body:     `{"user_id":7,"qr_point_hash":"gate-main"}`,
			err:      storage.ErrInvalidClockPoint,
			wantCode: http.StatusBadRequest,
			wantBody: "invalid_clock_point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := new(MockScanner)
			if tt.err != nil {
				scanner.On("ScanClock", mock.Anything, int64(7), "gate-main").Return(nil, tt.err)
			} else {
				scanner.On("ScanClock", mock.Anything, int64(7), "gate-main").Return(tt.result, nil)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/shifts/scan", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			ScanClock(slog.Default(), scanner).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			scanner.AssertExpectations(t)
		})
	}
}

func TestScanClock_MissingHash(t *testing.T) {
	scanner := new(MockScanner)

	req := httptest.NewRequest(http.MethodPost, "/api/shifts/scan", strings.NewReader(`{"user_id":7,"qr_point_hash":"  "}`))
	rr := httptest.NewRecorder()
	ScanClock(slog.Default(), scanner).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	scanner.AssertNotCalled(t, "ScanClock", mock.Anything, mock.Anything, mock.Anything)
}
