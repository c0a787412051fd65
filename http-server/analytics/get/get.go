package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"shopfloor/http-server/respond"
	"shopfloor/internal/service/workload"
	"shopfloor/internal/storage"
)

type WindowParser interface {
	Window(from, to string) (storage.Window, error)
}

type WorkloadProvider interface {
	ProductionWorkload(ctx context.Context) (*workload.Snapshot, error)
}

type StatisticsProvider interface {
	WindowParser
	ProductionStatistics(ctx context.Context, window storage.Window) (*workload.Statistics, error)
}

type EfficiencyProvider interface {
	WindowParser
	EmployeeEfficiency(ctx context.Context, userID int64, window storage.Window) (*workload.Efficiency, error)
}

func GetWorkload(log *slog.Logger, provider WorkloadProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.analytics.get.GetWorkload"

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		snap, err := provider.ProductionWorkload(ctx)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, snap)
	}
}

func GetStatistics(log *slog.Logger, provider StatisticsProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.analytics.get.GetStatistics"

		window, err := provider.Window(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		stats, err := provider.ProductionStatistics(ctx, window)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, stats)
	}
}

func GetEfficiency(log *slog.Logger, provider EfficiencyProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.analytics.get.GetEfficiency"

		userID, err := respond.IDParam(r, "userID")
		if err != nil {
			respond.BadRequest(w, r, log, op, err.Error())
			return
		}

		window, err := provider.Window(r.URL.Query().Get("from"), r.URL.Query().Get("to"))
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		eff, err := provider.EmployeeEfficiency(ctx, userID, window)
		if err != nil {
			respond.Error(w, r, log, op, err)
			return
		}

		render.JSON(w, r, eff)
	}
}
