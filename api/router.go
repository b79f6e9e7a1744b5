package api

import (
	"bytes"
	_ "embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fyerfyer/tex-preview/api/handler"
	"github.com/fyerfyer/tex-preview/api/middleware"
)

//go:embed web/index.html.tmpl
var indexTemplateText string

var indexTemplate = template.Must(template.New("index").Parse(indexTemplateText))

// UIConfig 前端页面配置
type UIConfig struct {
	Title          string
	KatexVersion   string
	APIBase        string
	DebounceMillis int
}

// DefaultUIConfig 默认前端页面配置
func DefaultUIConfig() UIConfig {
	return UIConfig{
		Title:          "TeX Preview",
		KatexVersion:   "0.16.11",
		APIBase:        "/api",
		DebounceMillis: 150,
	}
}

// routerOptions 路由选项
type routerOptions struct {
	cors bool
}

// RouterOption 路由配置函数
type RouterOption func(*routerOptions)

// WithCORS 允许跨域调用API，用于页面与服务分开部署的情况
func WithCORS() RouterOption {
	return func(o *routerOptions) {
		o.cors = true
	}
}

// SetupRouter 设置API路由
func SetupRouter(
	previewHandler *handler.PreviewHandler,
	draftHandler *handler.DraftHandler,
	healthHandler *handler.HealthHandler,
	opts ...RouterOption,
) *gin.Engine {
	var options routerOptions
	for _, opt := range opts {
		opt(&options)
	}

	router := gin.New()

	// 必须在注册路由前添加，预检请求没有对应路由，由全局中间件直接应答
	if options.cors {
		router.Use(Cors())
	}
	router.Use(middleware.SetTraceID())
	router.Use(middleware.Logger())
	router.Use(middleware.ErrorHandler())
	if gin.Mode() == gin.DebugMode {
		router.Use(middleware.RequestLogger())
	}

	api := router.Group("/api")
	{
		// 预览 - POST /api/preview
		api.POST("/preview", previewHandler.Preview)
		// 分段调试 - POST /api/segments
		api.POST("/segments", previewHandler.Segments)
		// 规范化调试 - POST /api/normalize
		api.POST("/normalize", previewHandler.Normalize)

		if draftHandler != nil {
			drafts := api.Group("/drafts")
			{
				drafts.POST("", draftHandler.CreateDraft)
				drafts.GET("", draftHandler.ListDrafts)
				drafts.GET("/:id", draftHandler.GetDraft)
				drafts.PUT("/:id", draftHandler.UpdateDraft)
				drafts.DELETE("/:id", draftHandler.DeleteDraft)
				drafts.GET("/:id/preview", draftHandler.PreviewDraft)
			}
		}

		api.GET("/health", healthHandler.Health)
	}

	return router
}

// RegisterWebUI 注册预览页面
func RegisterWebUI(router *gin.Engine, cfg UIConfig) error {
	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, cfg); err != nil {
		return err
	}
	page := buf.Bytes()

	router.GET("/", func(c *gin.Context) {
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
	})
	return nil
}

// Cors 跨域资源共享中间件
func Cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Cache-Control, X-Requested-With, X-Trace-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Trace-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
