package scan

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/service/timekeeping"
)

type Request struct {
	UserID      int64  `json:"user_id"`
	QRPointHash string `json:"qr_point_hash"`
}

type ClockScanner interface {
	ScanClock(ctx context.Context, userID int64, pointHash string) (*timekeeping.ScanResult, error)
}

func ScanClock(log *slog.Logger, scanner ClockScanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.shifts.scan.ScanClock"

		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, r, log, op, "Некорректный JSON")
			return
		}

		req.QRPointHash = strings.TrimSpace(req.QRPointHash)
		if req.UserID <= 0 || req.QRPointHash == "" {
			respond.BadRequest(w, r, log, op, "user_id и qr_point_hash обязательны")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		res, err := scanner.ScanClock(ctx, req.UserID, req.QRPointHash)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, res)
	}
}
