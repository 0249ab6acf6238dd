package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ArticleStatus represents the editorial state of an article.
type ArticleStatus string

const (
	ArticleStatusDraft     ArticleStatus = "DRAFT"
	ArticleStatusPublished ArticleStatus = "PUBLISHED"
	ArticleStatusArchived  ArticleStatus = "ARCHIVED"
)

// ArticleStatuses lists every valid status.
var ArticleStatuses = []ArticleStatus{ArticleStatusDraft, ArticleStatusPublished, ArticleStatusArchived}

// Valid reports whether s belongs to the closed status set.
func (s ArticleStatus) Valid() bool {
	for _, v := range ArticleStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Article is a piece of content written by a user.
type Article struct {
	ID              string         `json:"id" gorm:"type:char(36);primaryKey"`
	Slug            string         `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Title           string         `json:"title" gorm:"size:255;not null"`
	Content         string         `json:"content" gorm:"type:text;not null"`
	CategoryID      *string        `json:"category_id,omitempty" gorm:"type:char(36);index"`
	AuthorID        string         `json:"author_id" gorm:"type:char(36);not null;index"`
	Status          ArticleStatus  `json:"status" gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	CoverImage      *string        `json:"cover_image,omitempty" gorm:"size:1024"`
	MetaTitle       string         `json:"meta_title" gorm:"size:60"`
	MetaDescription string         `json:"meta_description" gorm:"size:160"`
	CreatedAt       time.Time      `json:"created_at" gorm:"index"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"index"`
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	Author   *User     `json:"author,omitempty" gorm:"foreignKey:AuthorID"`
	Category *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
}

// IsDeleted reports whether the article is soft deleted.
func (a *Article) IsDeleted() bool {
	return a.DeletedAt.Valid
}

// BeforeCreate sets UUID before creating the record.
func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
