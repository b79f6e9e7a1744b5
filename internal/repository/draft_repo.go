package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fyerfyer/tex-preview/internal/database"
	"github.com/fyerfyer/tex-preview/internal/models"
)

// draftRepository 草稿仓储实现
type draftRepository struct {
	db *gorm.DB
}

// NewDraftRepository 使用全局数据库连接创建草稿仓储
func NewDraftRepository() DraftRepository {
	return &draftRepository{db: database.MustDB()}
}

// NewDraftRepositoryWithDB 使用指定的数据库连接创建草稿仓储
func NewDraftRepositoryWithDB(db *gorm.DB) DraftRepository {
	if db == nil {
		db = database.MustDB()
	}
	return &draftRepository{db: db}
}

// Create 创建草稿
func (r *draftRepository) Create(draft *models.Draft) error {
	if draft.ID == "" {
		draft.ID = uuid.New().String()
	}
	return r.db.Create(draft).Error
}

// Update 更新草稿
func (r *draftRepository) Update(draft *models.Draft) error {
	if draft.ID == "" {
		return errors.New("draft ID cannot be empty")
	}

	draft.UpdatedAt = time.Now()
	result := r.db.Model(&models.Draft{}).
		Where("id = ?", draft.ID).
		Select("title", "source", "backend", "metadata", "updated_at").
		Updates(draft)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDraftNotFound, draft.ID)
	}
	return nil
}

// GetByID 根据ID获取草稿
func (r *draftRepository) GetByID(id string) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.Where("id = ?", id).First(&draft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", models.ErrDraftNotFound, id)
		}
		return nil, err
	}
	return &draft, nil
}

// List 按更新时间倒序分页列出草稿
func (r *draftRepository) List(offset, limit int, backend string) ([]*models.Draft, int64, error) {
	var drafts []*models.Draft
	var total int64

	query := r.db.Model(&models.Draft{})
	if backend != "" {
		query = query.Where("backend = ?", backend)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("updated_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&drafts).Error
	if err != nil {
		return nil, 0, err
	}
	return drafts, total, nil
}

// Delete 删除草稿
func (r *draftRepository) Delete(id string) error {
	result := r.db.Where("id = ?", id).Delete(&models.Draft{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", models.ErrDraftNotFound, id)
	}
	return nil
}

// WithContext 创建带有上下文的仓储
func (r *draftRepository) WithContext(ctx context.Context) DraftRepository {
	return &draftRepository{db: r.db.WithContext(ctx)}
}
