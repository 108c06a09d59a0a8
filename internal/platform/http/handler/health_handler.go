// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
)

const checkTimeout = 2 * time.Second

// Checker は依存先（DB, Redis など）の疎通確認を行います。
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc は関数を Checker として扱うためのアダプターです。
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthHandler はサービスヘルスチェック用の /healthz エンドポイントを処理します。
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler は名前付きチェックを持つHealthHandlerを生成します。nil のチェックは無視します。
func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	h := &HealthHandler{checks: make(map[string]Checker, len(checks))}
	for name, c := range checks {
		if c != nil {
			h.checks[name] = c
		}
	}
	return h
}

// HealthResponse は /healthz のレスポンスボディです。
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) run(ctx context.Context) (HealthResponse, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok"}
	healthy := true
	for _, name := range names {
		if resp.Checks == nil {
			resp.Checks = make(map[string]string, len(names))
		}
		if err := h.checks[name].Check(ctx); err != nil {
			slog.Error("health check failed", "check", name, "error", err)
			resp.Checks[name] = "unavailable"
			healthy = false
			continue
		}
		resp.Checks[name] = "ok"
	}
	if !healthy {
		resp.Status = "degraded"
	}
	return resp, healthy
}

// Handle はHTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
// 依存先のいずれかが落ちていれば 503。
func (h *HealthHandler) Handle(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	if c.Request.Method == http.MethodOptions {
		c.Status(http.StatusNoContent)
		return
	}

	resp, healthy := h.run(c.Request.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	if c.Request.Method == http.MethodHead {
		c.Status(status)
		return
	}
	c.JSON(status, resp)
}
