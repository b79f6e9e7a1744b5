package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fyerfyer/tex-preview/internal/models"
	"github.com/fyerfyer/tex-preview/internal/render"
	"github.com/fyerfyer/tex-preview/internal/repository"
)

// DraftService 草稿服务
// 负责草稿的保存与查询，预览时复用 PreviewService 的缓存
type DraftService struct {
	repo    repository.DraftRepository
	preview *PreviewService
	logger  *logrus.Logger
}

// DraftOption 草稿服务配置选项
type DraftOption func(*DraftService)

// WithDraftLogger 设置日志记录器
func WithDraftLogger(logger *logrus.Logger) DraftOption {
	return func(s *DraftService) {
		s.logger = logger
	}
}

// NewDraftService 创建草稿服务
func NewDraftService(repo repository.DraftRepository, preview *PreviewService, opts ...DraftOption) *DraftService {
	s := &DraftService{
		repo:    repo,
		preview: preview,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save 保存新草稿
func (s *DraftService) Save(ctx context.Context, title, source string) (*models.Draft, error) {
	draft := &models.Draft{}
	if err := s.fill(draft, title, source); err != nil {
		return nil, err
	}

	if err := s.repo.WithContext(ctx).Create(draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"draft_id": draft.ID,
		"backend":  draft.Backend,
	}).Info("Draft saved")
	return draft, nil
}

// Update 更新草稿内容
func (s *DraftService) Update(ctx context.Context, id, title, source string) (*models.Draft, error) {
	repo := s.repo.WithContext(ctx)
	draft, err := repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.fill(draft, title, source); err != nil {
		return nil, err
	}
	if err := repo.Update(draft); err != nil {
		return nil, fmt.Errorf("failed to update draft: %w", err)
	}
	return draft, nil
}

// Get 获取草稿
func (s *DraftService) Get(ctx context.Context, id string) (*models.Draft, error) {
	return s.repo.WithContext(ctx).GetByID(id)
}

// List 分页列出草稿，page 从1开始
func (s *DraftService) List(ctx context.Context, page, pageSize int, backend string) ([]*models.Draft, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return s.repo.WithContext(ctx).List((page-1)*pageSize, pageSize, backend)
}

// Delete 删除草稿
func (s *DraftService) Delete(ctx context.Context, id string) error {
	repo := s.repo.WithContext(ctx)
	draft, err := repo.GetByID(id)
	if err != nil {
		return err
	}
	if err := repo.Delete(id); err != nil {
		return err
	}
	if err := s.preview.Invalidate(ctx, draft.Source); err != nil {
		s.logger.WithError(err).WithField("draft_id", id).Warn("Failed to invalidate draft preview")
	}
	return nil
}

// Preview 渲染已保存的草稿
func (s *DraftService) Preview(ctx context.Context, id string) (*render.RenderResult, bool, error) {
	draft, err := s.repo.WithContext(ctx).GetByID(id)
	if err != nil {
		return nil, false, err
	}
	return s.preview.Render(ctx, draft.Source)
}

// fill 校验并填充草稿内容，同时计算统计信息
func (s *DraftService) fill(draft *models.Draft, title, source string) error {
	if strings.TrimSpace(source) == "" {
		return models.ErrEmptySource
	}
	if err := s.preview.checkSize(source); err != nil {
		return err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle(source)
	}

	lines, math := ComputeStats(source)
	draft.Title = title
	draft.Source = source
	draft.Backend = string(render.SelectBackend(source))
	return draft.SetStats(models.DraftStats{
		Lines:        lines,
		MathSegments: math,
		Bytes:        len(source),
	})
}

// defaultTitle 取第一行非空文本作为标题
func defaultTitle(source string) string {
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		if len(runes) > 60 {
			return string(runes[:60]) + "..."
		}
		return line
	}
	return "untitled"
}
