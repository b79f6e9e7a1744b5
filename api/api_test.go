package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fyerfyer/tex-preview/api/handler"
	"github.com/fyerfyer/tex-preview/api/middleware"
	"github.com/fyerfyer/tex-preview/api/model"
	"github.com/fyerfyer/tex-preview/internal/cache"
	"github.com/fyerfyer/tex-preview/internal/database"
	"github.com/fyerfyer/tex-preview/internal/repository"
	"github.com/fyerfyer/tex-preview/internal/services"
)

// 测试环境
type testEnv struct {
	Router *gin.Engine
	Cache  cache.Cache
	DB     *gorm.DB
}

func setupTestEnv(t *testing.T, opts ...services.PreviewOption) *testEnv {
	gin.SetMode(gin.TestMode)
	require.NoError(t, RegisterValidators())
	middleware.GetLogger().SetLevel(logrus.PanicLevel)

	dsn := fmt.Sprintf("file:api_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	memCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	logger := middleware.GetLogger()
	opts = append([]services.PreviewOption{
		services.WithCache(memCache),
		services.WithPreviewLogger(logger),
	}, opts...)
	preview := services.NewPreviewService(nil, opts...)
	drafts := services.NewDraftService(repository.NewDraftRepositoryWithDB(db), preview, services.WithDraftLogger(logger))

	router := SetupRouter(
		handler.NewPreviewHandler(preview),
		handler.NewDraftHandler(drafts),
		handler.NewHealthHandler(db, memCache),
	)
	require.NoError(t, RegisterWebUI(router, DefaultUIConfig()))

	return &testEnv{Router: router, Cache: memCache, DB: db}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, model.Response) {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)

	var resp model.Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

// decodeData 把响应中的data重新解码为目标类型
func decodeData(t *testing.T, resp model.Response, out interface{}) {
	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestPreviewAPI(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "$$a+b$$ and $c$"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.TraceIDHeader))

	var preview model.PreviewResponse
	decodeData(t, resp, &preview)
	require.NotNil(t, preview.HTML)
	assert.Nil(t, preview.Error)
	assert.Equal(t, "math", string(preview.Backend))
	assert.False(t, preview.Cached)
	assert.Contains(t, *preview.HTML, `<span class="tex tex-display" data-display="true" data-raw="$$a+b$$">a+b</span> and `)

	// 相同内容命中缓存
	_, resp = env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "$$a+b$$ and $c$"})
	decodeData(t, resp, &preview)
	assert.True(t, preview.Cached)
}

func TestPreviewAPI_JSONShape(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "plain"})
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	data := raw.Data
	assert.Contains(t, data, "html")
	assert.Contains(t, data, "error")
	assert.Nil(t, data["error"])
	assert.Equal(t, "plain", data["html"])
}

func TestPreviewAPI_Diagram(t *testing.T) {
	env := setupTestEnv(t)

	doc := "\\begin{tikzpicture}\n\\node {$x,y$};\n\\end{tikzpicture}"
	w, resp := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": doc})
	require.Equal(t, http.StatusOK, w.Code)

	var preview model.PreviewResponse
	decodeData(t, resp, &preview)
	assert.Equal(t, "diagram", string(preview.Backend))
	require.NotNil(t, preview.HTML)
	assert.Contains(t, *preview.HTML, `sandbox="allow-scripts"`)
	assert.Contains(t, *preview.HTML, `$x\text{,}y$`)
}

func TestPreviewAPI_Validation(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/api/preview", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TraceIDHeader, "trace-123")
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "trace-123", resp.TraceID)

	// NUL 字符被拒绝
	w, resp = env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "a\x00b"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestPreviewAPI_TooLarge(t *testing.T) {
	env := setupTestEnv(t, services.WithMaxSourceBytes(4))

	w, resp := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "12345"})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.Code)
	assert.NotEmpty(t, resp.TraceID)
}

func TestSegmentsAPI(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/segments", gin.H{"source": "\\[ x^2 \\]\n$unterminated"})
	require.Equal(t, http.StatusOK, w.Code)

	var out struct {
		Backend string `json:"backend"`
		Lines   []struct {
			Line     int `json:"line"`
			Segments []struct {
				Kind        string `json:"kind"`
				Content     string `json:"content"`
				DisplayMode bool   `json:"display_mode"`
				Raw         string `json:"raw"`
			} `json:"segments"`
		} `json:"lines"`
	}
	decodeData(t, resp, &out)

	assert.Equal(t, "math", out.Backend)
	require.Len(t, out.Lines, 2)
	require.Len(t, out.Lines[0].Segments, 1)
	assert.Equal(t, "math", out.Lines[0].Segments[0].Kind)
	assert.Equal(t, "x^2", out.Lines[0].Segments[0].Content)
	assert.True(t, out.Lines[0].Segments[0].DisplayMode)
	require.Len(t, out.Lines[1].Segments, 1)
	assert.Equal(t, "text", out.Lines[1].Segments[0].Kind)
	assert.Equal(t, "$unterminated", out.Lines[1].Segments[0].Raw)
}

func TestNormalizeAPI(t *testing.T) {
	env := setupTestEnv(t)

	w, resp := env.do(t, http.MethodPost, "/api/normalize", gin.H{"source": "α ≥ β"})
	require.Equal(t, http.StatusOK, w.Code)

	var out services.NormalizeResult
	decodeData(t, resp, &out)
	assert.Equal(t, `\alpha \geq \beta`, out.Normalized)
	assert.Equal(t, `\alpha \geq \beta`, out.CommaFixed)
}

func TestDraftAPI_CRUD(t *testing.T) {
	env := setupTestEnv(t)

	// 创建
	w, resp := env.do(t, http.MethodPost, "/api/drafts", gin.H{"title": "pythagoras", "source": "$a^2+b^2=c^2$"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created model.DraftInfo
	decodeData(t, resp, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "pythagoras", created.Title)
	assert.Equal(t, 1, created.Stats.MathSegments)

	// 查询
	w, resp = env.do(t, http.MethodGet, "/api/drafts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got model.DraftInfo
	decodeData(t, resp, &got)
	assert.Equal(t, "$a^2+b^2=c^2$", got.Source)

	// 更新
	w, resp = env.do(t, http.MethodPut, "/api/drafts/"+created.ID, gin.H{"title": "fig", "source": "\\begin{tikzpicture}\\end{tikzpicture}"})
	require.Equal(t, http.StatusOK, w.Code)
	decodeData(t, resp, &got)
	assert.Equal(t, "diagram", got.Backend)

	// 列表
	w, resp = env.do(t, http.MethodGet, "/api/drafts?page=1&page_size=10&backend=diagram", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list model.DraftListResponse
	decodeData(t, resp, &list)
	assert.Equal(t, int64(1), list.Total)
	require.Len(t, list.Drafts, 1)
	assert.Empty(t, list.Drafts[0].Source)

	// 预览
	w, resp = env.do(t, http.MethodGet, "/api/drafts/"+created.ID+"/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var preview model.PreviewResponse
	decodeData(t, resp, &preview)
	assert.Equal(t, "diagram", string(preview.Backend))

	// 删除
	w, _ = env.do(t, http.MethodDelete, "/api/drafts/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, resp = env.do(t, http.MethodGet, "/api/drafts/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestDraftAPI_Validation(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/drafts", gin.H{"title": "empty"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodPost, "/api/drafts", gin.H{"source": "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/drafts/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/drafts?backend=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = env.do(t, http.MethodDelete, "/api/drafts/6f1c1f5e-4b8e-4c57-9d43-2a8c1b7f0e11", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebUI(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	body := w.Body.String()
	assert.Contains(t, body, `<textarea id="source"`)
	assert.Contains(t, body, "katex@0.16.11/dist/katex.min.js")
	assert.Contains(t, body, "navigator.clipboard.readText()")
	assert.Contains(t, body, "if (text === lastSent) return;")
	assert.Contains(t, body, "el.getAttribute('data-raw')")
}

func TestHealthAPI(t *testing.T) {
	env := setupTestEnv(t)

	w, _ := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "$x$"})
	require.Equal(t, http.StatusOK, w.Code)

	w, resp := env.do(t, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var health model.HealthResponse
	decodeData(t, resp, &health)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "up", health.Database)
	assert.Equal(t, "up", health.Cache)
	// 一条预览结果加一条探测键
	require.NotNil(t, health.CacheItems)
	assert.Equal(t, 2, *health.CacheItems)
}

// mockCache 用于模拟缓存故障
type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, key string) (string, bool, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockCache) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockCache) Close() error {
	return m.Called().Error(0)
}

func TestHealthAPI_CacheDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := new(mockCache)
	c.On("Set", mock.Anything, "health:probe", "ok", mock.Anything).Return(errors.New("connection refused"))

	router := gin.New()
	router.GET("/api/health", handler.NewHealthHandler(nil, c).Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"cache":"down"`)
	assert.Contains(t, w.Body.String(), `"database":"disabled"`)
	c.AssertExpectations(t)
}

func TestPreviewAPI_CacheFailureStillRenders(t *testing.T) {
	c := new(mockCache)
	c.On("Get", mock.Anything, mock.Anything).Return("", false, errors.New("timeout"))
	c.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("timeout"))

	env := setupTestEnv(t, services.WithCache(c))
	w, resp := env.do(t, http.MethodPost, "/api/preview", gin.H{"source": "$x$"})
	require.Equal(t, http.StatusOK, w.Code)

	var preview model.PreviewResponse
	decodeData(t, resp, &preview)
	require.NotNil(t, preview.HTML)
	assert.False(t, preview.Cached)
	c.AssertExpectations(t)
}

func TestErrorHandler_Panic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	middleware.GetLogger().SetLevel(logrus.PanicLevel)

	router := gin.New()
	router.Use(middleware.SetTraceID(), middleware.ErrorHandler())
	router.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp model.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.NotEmpty(t, resp.TraceID)
}

func TestRouter_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	preview := handler.NewPreviewHandler(services.NewPreviewService(nil))
	health := handler.NewHealthHandler(nil, nil)

	router := SetupRouter(preview, nil, health, WithCORS())

	// 预检请求直接返回
	req := httptest.NewRequest(http.MethodOptions, "/api/preview", nil)
	req.Header.Set("Origin", "https://ui.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Trace-ID", w.Header().Get("Access-Control-Expose-Headers"))

	// 默认不开启
	router = SetupRouter(preview, nil, health)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
