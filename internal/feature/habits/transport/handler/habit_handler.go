// Package handler は習慣管理を HTTP で公開します。
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit_backend/internal/api"
	"habit_backend/internal/feature/habits/domain/entity"
	"habit_backend/internal/feature/habits/usecase"
	jwtmw "habit_backend/internal/platform/jwt"
)

type HabitUsecase interface {
	AddHabit(ctx context.Context, owner uint, name string) (*entity.Habit, error)
	ListHabits(ctx context.Context, owner uint) ([]entity.Habit, error)
	DeleteHabit(ctx context.Context, owner, habitID uint) error
}

type HabitHandler struct {
	habits HabitUsecase
}

// NewHabitHandler は HabitHandler を生成します。
func NewHabitHandler(habits HabitUsecase) *HabitHandler {
	return &HabitHandler{habits: habits}
}

func toResponse(h entity.Habit) api.HabitResponse {
	return api.HabitResponse{ID: h.ID, Name: h.Name, CreatedAt: h.CreatedAt}
}

// List は GET /habits を処理します。
func (h *HabitHandler) List(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	habits, err := h.habits.ListHabits(c.Request.Context(), p.UserID)
	if err != nil {
		slog.Error("failed to list habits", "user_id", p.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
		return
	}

	res := make([]api.HabitResponse, 0, len(habits))
	for _, hb := range habits {
		res = append(res, toResponse(hb))
	}
	c.JSON(http.StatusOK, res)
}

// Create は POST /habits を処理します。
func (h *HabitHandler) Create(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}

	var req api.CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid request"})
		return
	}

	habit, err := h.habits.AddHabit(c.Request.Context(), p.UserID, req.Name)
	switch {
	case err == nil:
		slog.Info("habit created", "user_id", p.UserID, "habit_id", habit.ID)
		c.JSON(http.StatusCreated, toResponse(*habit))
	case errors.Is(err, usecase.ErrValidation):
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("failed to create habit", "user_id", p.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}

// Delete は DELETE /habits/:id を処理します。他ユーザーのhabitは404。
func (h *HabitHandler) Delete(c *gin.Context) {
	p, ok := jwtmw.PrincipalFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized"})
		return
	}
	id, err := api.HabitIDParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	err = h.habits.DeleteHabit(c.Request.Context(), p.UserID, id)
	switch {
	case err == nil:
		slog.Info("habit deleted", "user_id", p.UserID, "habit_id", id)
		c.Status(http.StatusNoContent)
	case errors.Is(err, usecase.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "habit not found"})
	default:
		slog.Error("failed to delete habit", "user_id", p.UserID, "habit_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "internal server error"})
	}
}
