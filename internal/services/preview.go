package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/internal/cache"
	"github.com/fyerfyer/tex-preview/internal/latex"
	"github.com/fyerfyer/tex-preview/internal/render"
)

// ErrSourceTooLarge 文档超过允许的最大长度
var ErrSourceTooLarge = errors.New("source too large")

// cacheVersion 渲染输出格式变化时递增，使旧缓存失效
const cacheVersion = "v1"

// PreviewService 预览服务
// 在渲染调度器外层提供按内容哈希的结果缓存
type PreviewService struct {
	dispatcher     *render.Dispatcher
	segmenter      *latex.Segmenter
	cache          cache.Cache
	cacheTTL       time.Duration
	maxSourceBytes int
	logger         *logrus.Logger
}

// PreviewOption 预览服务配置选项
type PreviewOption func(*PreviewService)

// WithCache 设置结果缓存，为nil时不缓存
func WithCache(c cache.Cache) PreviewOption {
	return func(s *PreviewService) {
		s.cache = c
	}
}

// WithCacheTTL 设置缓存时间
func WithCacheTTL(ttl time.Duration) PreviewOption {
	return func(s *PreviewService) {
		s.cacheTTL = ttl
	}
}

// WithMaxSourceBytes 设置文档最大字节数，0表示不限制
func WithMaxSourceBytes(n int) PreviewOption {
	return func(s *PreviewService) {
		s.maxSourceBytes = n
	}
}

// WithPreviewLogger 设置日志记录器
func WithPreviewLogger(logger *logrus.Logger) PreviewOption {
	return func(s *PreviewService) {
		s.logger = logger
	}
}

// NewPreviewService 创建预览服务
func NewPreviewService(dispatcher *render.Dispatcher, opts ...PreviewOption) *PreviewService {
	if dispatcher == nil {
		dispatcher = render.NewDispatcher()
	}
	s := &PreviewService{
		dispatcher:     dispatcher,
		segmenter:      latex.NewSegmenter(),
		cacheTTL:       time.Hour,
		maxSourceBytes: 256 * 1024,
		logger:         logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render 渲染文档，返回结果以及是否命中缓存
// 渲染失败包含在结果中，返回的error只表示请求本身不合法
func (s *PreviewService) Render(ctx context.Context, source string) (*render.RenderResult, bool, error) {
	if err := s.checkSize(source); err != nil {
		return nil, false, err
	}

	key := PreviewCacheKey(source)
	if s.cache != nil {
		if cached, found, err := s.cache.Get(ctx, key); err != nil {
			s.logger.WithError(err).Warn("Failed to read preview cache")
		} else if found {
			var result render.RenderResult
			if err := json.Unmarshal([]byte(cached), &result); err == nil {
				return &result, true, nil
			}
			s.logger.WithField("key", key).Warn("Discarding malformed cached preview")
		}
	}

	start := time.Now()
	result := s.dispatcher.Render(source)
	entry := s.logger.WithFields(logrus.Fields{
		"backend":  result.Backend,
		"bytes":    len(source),
		"duration": time.Since(start).String(),
	})
	if !result.OK() {
		entry.WithField("error", result.ErrorString()).Warn("Document render failed")
	} else {
		entry.Debug("Document rendered")
	}

	if s.cache != nil {
		data, err := json.Marshal(result)
		if err == nil {
			err = s.cache.Set(ctx, key, string(data), s.cacheTTL)
		}
		if err != nil {
			s.logger.WithError(err).Warn("Failed to write preview cache")
		}
	}
	return &result, false, nil
}

// LineSegments 一行文本的分段结果
type LineSegments struct {
	Line     int             `json:"line"`
	Segments []latex.Segment `json:"segments"`
}

// Segments 按行返回分段结果，行号从1开始
func (s *PreviewService) Segments(source string) ([]LineSegments, error) {
	if err := s.checkSize(source); err != nil {
		return nil, err
	}

	lines := strings.Split(source, "\n")
	out := make([]LineSegments, 0, len(lines))
	for i, line := range lines {
		segs := s.segmenter.Split(strings.TrimSuffix(line, "\r"))
		if segs == nil {
			segs = []latex.Segment{}
		}
		out = append(out, LineSegments{Line: i + 1, Segments: segs})
	}
	return out, nil
}

// NormalizeResult 规范化结果
type NormalizeResult struct {
	Normalized string         `json:"normalized"`
	CommaFixed string         `json:"comma_fixed"`
	Backend    render.Backend `json:"backend"`
}

// Normalize 返回规范化以及逗号转义后的文本
func (s *PreviewService) Normalize(source string) (*NormalizeResult, error) {
	if err := s.checkSize(source); err != nil {
		return nil, err
	}
	normalized := latex.Normalize(source)
	return &NormalizeResult{
		Normalized: normalized,
		CommaFixed: latex.FixInlineCommas(normalized),
		Backend:    render.SelectBackend(source),
	}, nil
}

// Invalidate 删除某个文档的缓存结果
func (s *PreviewService) Invalidate(ctx context.Context, source string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, PreviewCacheKey(source))
}

func (s *PreviewService) checkSize(source string) error {
	if s.maxSourceBytes > 0 && len(source) > s.maxSourceBytes {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrSourceTooLarge, len(source), s.maxSourceBytes)
	}
	return nil
}

// PreviewCacheKey 根据文档内容生成缓存键
func PreviewCacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return cache.GenerateCacheKey("preview", cacheVersion, hex.EncodeToString(sum[:]))
}

// ComputeStats 统计文档的行数和公式数量
func ComputeStats(source string) (lines, mathSegments int) {
	for _, line := range strings.Split(source, "\n") {
		lines++
		for _, seg := range latex.Split(strings.TrimSuffix(line, "\r")) {
			if seg.IsMath() {
				mathSegments++
			}
		}
	}
	return lines, mathSegments
}
