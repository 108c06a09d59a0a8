// Package handler はダッシュボードを HTTP で公開します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"habit_backend/internal/api"
	"habit_backend/internal/feature/dashboard/usecase"
	statshandler "habit_backend/internal/feature/stats/transport/handler"
	jwtmw "habit_backend/internal/platform/jwt"
)

type DashboardUsecase interface {
	Day(ctx context.Context, owner uint, date time.Time) (*usecase.Dashboard, error)
	Today() time.Time
}

type DashboardHandler struct {
	dashboard DashboardUsecase
}

// NewDashboardHandler は DashboardHandler を生成します。
func NewDashboardHandler(dashboard DashboardUsecase) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get は GET /dashboard?date=YYYY-MM-DD を処理します。日付省略時は今日。
func (h *DashboardHandler) Get(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	q, err := api.DateQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	date := h.dashboard.Today()
	if q != nil {
		date = q.Time
	}

	d, err := h.dashboard.Day(c.Request.Context(), p.UserID, date)
	if err != nil {
		slog.Error("failed to build dashboard", "user_id", p.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	res := api.DashboardResponse{
		Date:   openapi_types.Date{Time: d.Date},
		Habits: make([]api.DashboardHabit, 0, len(d.Habits)),
		Counts: statshandler.ToResponse(d.Counts),
	}
	for _, hs := range d.Habits {
		res.Habits = append(res.Habits, api.DashboardHabit{ID: hs.ID, Name: hs.Name, Completed: hs.Completed})
	}
	c.JSON(http.StatusOK, res)
}
