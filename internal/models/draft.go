package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Draft 用户保存的LaTeX草稿
type Draft struct {
	ID        string         `gorm:"primaryKey;size:36"`     // 草稿ID (uuid)
	Title     string         `gorm:"size:255;not null"`      // 标题
	Source    string         `gorm:"type:text;not null"`     // 原始文本
	Backend   string         `gorm:"size:20;not null;index"` // 渲染后端: math / diagram
	Metadata  datatypes.JSON `gorm:"type:json"`              // 统计信息，见 DraftStats
	CreatedAt time.Time      `gorm:"not null;index"`         // 创建时间
	UpdatedAt time.Time      `gorm:"not null;index"`         // 更新时间
}

// DraftStats 草稿的内容统计
type DraftStats struct {
	Lines        int `json:"lines"`
	MathSegments int `json:"math_segments"`
	Bytes        int `json:"bytes"`
}

// BeforeCreate 创建前设置时间
func (d *Draft) BeforeCreate(tx *gorm.DB) (err error) {
	now := time.Now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	return nil
}

// BeforeUpdate 更新前刷新更新时间
func (d *Draft) BeforeUpdate(tx *gorm.DB) (err error) {
	d.UpdatedAt = time.Now()
	return nil
}

// TableName 明确指定表名
func (Draft) TableName() string {
	return "drafts"
}

// SetStats 写入统计信息
func (d *Draft) SetStats(stats DraftStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	d.Metadata = datatypes.JSON(data)
	return nil
}

// Stats 读取统计信息，没有记录时返回零值
func (d *Draft) Stats() (DraftStats, error) {
	var stats DraftStats
	if len(d.Metadata) == 0 {
		return stats, nil
	}
	err := json.Unmarshal(d.Metadata, &stats)
	return stats, err
}
