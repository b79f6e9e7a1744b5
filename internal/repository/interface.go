package repository

import (
	"context"

	"github.com/fyerfyer/tex-preview/internal/models"
)

// DraftRepository 草稿仓储接口
type DraftRepository interface {
	// Create 创建草稿，ID为空时自动生成
	Create(draft *models.Draft) error

	// Update 更新草稿
	Update(draft *models.Draft) error

	// GetByID 根据ID获取草稿
	GetByID(id string) (*models.Draft, error)

	// List 分页列出草稿，backend 为空时不过滤
	List(offset, limit int, backend string) ([]*models.Draft, int64, error)

	// Delete 删除草稿
	Delete(id string) error

	// WithContext 创建带有上下文的仓储
	WithContext(ctx context.Context) DraftRepository
}
