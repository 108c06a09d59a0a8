// Package handler は達成集計を HTTP で公開します。
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit_backend/internal/api"
	"habit_backend/internal/feature/stats/domain/entity"
	jwtmw "habit_backend/internal/platform/jwt"
)

type StatsUsecase interface {
	CompletionCounts(ctx context.Context, owner uint) ([]entity.HabitCount, error)
}

type StatsHandler struct {
	stats StatsUsecase
}

// NewStatsHandler は StatsHandler を生成します。
func NewStatsHandler(stats StatsUsecase) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// ToResponse は集計結果をレスポンス形式に変換します。
func ToResponse(counts []entity.HabitCount) []api.HabitCountResponse {
	res := make([]api.HabitCountResponse, 0, len(counts))
	for _, hc := range counts {
		res = append(res, api.HabitCountResponse{Habit: hc.HabitName, Count: hc.Count})
	}
	return res
}

// CompletionCounts は GET /stats/completions を処理します。
func (h *StatsHandler) CompletionCounts(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	counts, err := h.stats.CompletionCounts(c.Request.Context(), p.UserID)
	if err != nil {
		slog.Error("failed to load completion counts", "user_id", p.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, ToResponse(counts))
}
