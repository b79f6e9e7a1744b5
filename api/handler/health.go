package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/fyerfyer/tex-preview/api/model"
	"github.com/fyerfyer/tex-preview/internal/cache"
)

// itemCounter 能报告条目数的缓存，如内存缓存
type itemCounter interface {
	ItemCount() int
}

// HealthHandler 健康检查
type HealthHandler struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewHealthHandler 创建健康检查处理器，db 与 cache 均可为nil
func NewHealthHandler(db *gorm.DB, c cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

// Health 检查数据库和缓存状态
// GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := model.HealthResponse{
		Status:   "ok",
		Database: h.checkDatabase(ctx),
		Cache:    h.checkCache(ctx),
	}
	if counter, ok := h.cache.(itemCounter); ok && resp.Cache == "up" {
		n := counter.ItemCount()
		resp.CacheItems = &n
	}

	status := http.StatusOK
	if resp.Database == "down" || resp.Cache == "down" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, model.NewSuccessResponse(resp))
}

func (h *HealthHandler) checkDatabase(ctx context.Context) string {
	if h.db == nil {
		return "disabled"
	}
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(ctx) != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) checkCache(ctx context.Context) string {
	if h.cache == nil {
		return "disabled"
	}
	key := cache.GenerateCacheKey("health", "probe")
	if err := h.cache.Set(ctx, key, "ok", time.Second*10); err != nil {
		return "down"
	}
	if _, found, err := h.cache.Get(ctx, key); err != nil || !found {
		return "down"
	}
	return "up"
}
