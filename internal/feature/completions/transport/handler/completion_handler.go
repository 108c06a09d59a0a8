// Package handler は達成記録を HTTP で公開します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"habit_backend/internal/api"
	"habit_backend/internal/feature/completions/usecase"
	jwtmw "habit_backend/internal/platform/jwt"
)

type CompletionUsecase interface {
	SetCompletion(ctx context.Context, owner, habitID uint, date time.Time, completed bool) error
	IsCompleted(ctx context.Context, owner, habitID uint, date time.Time) (bool, error)
	Today() time.Time
}

type CompletionHandler struct {
	completions CompletionUsecase
}

// NewCompletionHandler は CompletionHandler を生成します。
func NewCompletionHandler(completions CompletionUsecase) *CompletionHandler {
	return &CompletionHandler{completions: completions}
}

// dateOrToday は日付未指定のとき設定タイムゾーンの今日を返す
func (h *CompletionHandler) dateOrToday(d *openapi_types.Date) openapi_types.Date {
	if d != nil {
		return *d
	}
	return openapi_types.Date{Time: h.completions.Today()}
}

// Get は GET /habits/:id/completions?date=YYYY-MM-DD を処理します。
func (h *CompletionHandler) Get(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	habitID, err := api.HabitIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	q, err := api.DateQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	date := h.dateOrToday(q)

	done, err := h.completions.IsCompleted(c.Request.Context(), p.UserID, habitID, date.Time)
	if err != nil {
		h.fail(c, err, p.UserID, habitID)
		return
	}
	c.JSON(http.StatusOK, api.CompletionResponse{HabitID: habitID, Date: date, Completed: done})
}

// Put は PUT /habits/:id/completions を処理します。
// completed=true で記録、false で取り消し。どちらも冪等。
func (h *CompletionHandler) Put(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	habitID, err := api.HabitIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}
	var req api.SetCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}
	date := h.dateOrToday(req.Date)

	if err := h.completions.SetCompletion(c.Request.Context(), p.UserID, habitID, date.Time, *req.Completed); err != nil {
		h.fail(c, err, p.UserID, habitID)
		return
	}
	slog.Info("completion updated", "user_id", p.UserID, "habit_id", habitID, "date", date.String(), "completed", *req.Completed)
	c.JSON(http.StatusOK, api.CompletionResponse{HabitID: habitID, Date: date, Completed: *req.Completed})
}

func (h *CompletionHandler) fail(c *gin.Context, err error, owner, habitID uint) {
	if errors.Is(err, usecase.ErrHabitNotFound) {
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "habit not found"})
		return
	}
	slog.Error("completion request failed", "user_id", owner, "habit_id", habitID, "error", err)
	c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
}
