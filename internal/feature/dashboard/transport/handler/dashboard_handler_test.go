package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"habit_backend/internal/feature/dashboard/usecase"
	statsentity "habit_backend/internal/feature/stats/domain/entity"
	jwtmw "habit_backend/internal/platform/jwt"
)

type stubDashboard struct {
	today time.Time
	err   error
	asked time.Time
}

func (s *stubDashboard) Today() time.Time { return s.today }

func (s *stubDashboard) Day(_ context.Context, _ uint, date time.Time) (*usecase.Dashboard, error) {
	s.asked = date
	if s.err != nil {
		return nil, s.err
	}
	return &usecase.Dashboard{
		Date:   date,
		Habits: []usecase.HabitStatus{{ID: 1, Name: "Read", Completed: true}, {ID: 2, Name: "Walk"}},
		Counts: []statsentity.HabitCount{{HabitName: "Read", Count: 5}},
	}, nil
}

func serve(uc DashboardUsecase, target string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(jwtmw.ContextUserID, uint(1)) })
	r.GET("/dashboard", NewDashboardHandler(uc).Get)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDashboardHandler_Get(t *testing.T) {
	today := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("defaults to today", func(t *testing.T) {
		uc := &stubDashboard{today: today}

		w := serve(uc, "/dashboard")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, today, uc.asked)
		assert.JSONEq(t, `{
			"date": "2026-03-01",
			"habits": [{"id":1,"name":"Read","completed":true},{"id":2,"name":"Walk","completed":false}],
			"counts": [{"habit":"Read","count":5}]
		}`, w.Body.String())
	})

	t.Run("explicit date", func(t *testing.T) {
		uc := &stubDashboard{today: today}

		w := serve(uc, "/dashboard?date=2025-12-31")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2025-12-31", uc.asked.Format("2006-01-02"))
	})

	t.Run("bad date", func(t *testing.T) {
		w := serve(&stubDashboard{today: today}, "/dashboard?date=tomorrow")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("failure", func(t *testing.T) {
		w := serve(&stubDashboard{today: today, err: errors.New("db down")}, "/dashboard")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}
