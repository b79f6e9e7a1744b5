package models

import "errors"

var (
	// ErrDraftNotFound 草稿不存在
	ErrDraftNotFound = errors.New("draft not found")

	// ErrEmptySource 草稿内容为空
	ErrEmptySource = errors.New("draft source is empty")
)
