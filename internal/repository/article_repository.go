package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/model"
)

// DeletedScope selects how soft deleted rows take part in a listing.
type DeletedScope int

const (
	ExcludeDeleted DeletedScope = iota
	IncludeDeleted
	OnlyDeleted
)

// ArticleFilter narrows an article listing. Zero values do not filter.
type ArticleFilter struct {
	Page
	Search    string
	Category  string
	Author    string
	AuthorID  string
	Status    model.ArticleStatus
	StartDate *time.Time
	EndDate   *time.Time
	Deleted   DeletedScope
}

// ArticleRepository defines article persistence operations.
type ArticleRepository interface {
	Create(ctx context.Context, article *model.Article) error
	Update(ctx context.Context, article *model.Article) error
	FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Article, error)
	FindBySlug(ctx context.Context, slug string, includeDeleted bool) (*model.Article, error)
	List(ctx context.Context, filter ArticleFilter) ([]model.Article, int64, error)
	CountUpdatedSince(ctx context.Context, since time.Time, author string) (int64, error)
	CountByStatus(ctx context.Context, status model.ArticleStatus, author string) (int64, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	SoftDelete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	HardDelete(ctx context.Context, id string) error
	ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]model.Article, error)
}

type articleRepository struct {
	db *gorm.DB
}

// NewArticleRepository builds a GORM-backed repository.
func NewArticleRepository(db *gorm.DB) ArticleRepository {
	return &articleRepository{db: db}
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) error {
	return translate(r.db.WithContext(ctx).Omit("Author", "Category").Create(article).Error,
		apperrors.ErrArticleNotFound, apperrors.ErrConflict)
}

// Update writes every column of a live article.
func (r *articleRepository) Update(ctx context.Context, article *model.Article) error {
	return translate(r.db.WithContext(ctx).Omit("Author", "Category").Save(article).Error,
		apperrors.ErrArticleNotFound, apperrors.ErrConflict)
}

func (r *articleRepository) scoped(ctx context.Context, includeDeleted bool) *gorm.DB {
	q := r.db.WithContext(ctx)
	if includeDeleted {
		q = q.Unscoped()
	}
	return q.Preload("Author").Preload("Category")
}

func (r *articleRepository) FindByID(ctx context.Context, id string, includeDeleted bool) (*model.Article, error) {
	var article model.Article
	if err := r.scoped(ctx, includeDeleted).Where("id = ?", id).First(&article).Error; err != nil {
		return nil, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}
	return &article, nil
}

func (r *articleRepository) FindBySlug(ctx context.Context, slug string, includeDeleted bool) (*model.Article, error) {
	var article model.Article
	if err := r.scoped(ctx, includeDeleted).Where("slug = ?", slug).First(&article).Error; err != nil {
		return nil, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}
	return &article, nil
}

func (r *articleRepository) filtered(ctx context.Context, f ArticleFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Article{})
	switch f.Deleted {
	case IncludeDeleted:
		q = q.Unscoped()
	case OnlyDeleted:
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.AuthorID != "" {
		q = q.Where("author_id = ?", f.AuthorID)
	}
	if f.Category != "" {
		q = q.Where("category_id IN (?)",
			r.db.Model(&model.Category{}).Select("id").Where("name LIKE ?", likePattern(f.Category)))
	}
	if f.Author != "" {
		q = q.Where("author_id IN (?)", authorsNamed(r.db, f.Author))
	}
	if f.Search != "" {
		pattern := likePattern(f.Search)
		q = q.Where(
			r.db.Where("title LIKE ?", pattern).
				Or("content LIKE ?", pattern).
				Or("meta_title LIKE ?", pattern).
				Or("meta_description LIKE ?", pattern).
				Or("category_id IN (?)", r.db.Model(&model.Category{}).Select("id").Where("name LIKE ?", pattern)).
				Or("author_id IN (?)", authorsNamed(r.db, f.Search)),
		)
	}
	if f.StartDate != nil && f.EndDate != nil {
		q = q.Where("created_at BETWEEN ? AND ?", *f.StartDate, *f.EndDate)
	}
	return q
}

func authorsNamed(db *gorm.DB, name string) *gorm.DB {
	return db.Model(&model.User{}).Select("id").Where("name LIKE ?", likePattern(name))
}

// List returns one page ordered by creation time, newest first, and the
// unpaged total.
func (r *articleRepository) List(ctx context.Context, f ArticleFilter) ([]model.Article, int64, error) {
	page := f.Page.Normalize()

	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}

	var articles []model.Article
	err := r.filtered(ctx, f).
		Preload("Author").
		Preload("Category").
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&articles).Error
	if err != nil {
		return nil, 0, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}
	return articles, total, nil
}

// CountUpdatedSince counts published articles touched at or after since.
func (r *articleRepository) CountUpdatedSince(ctx context.Context, since time.Time, author string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Article{}).
		Where("status = ? AND updated_at >= ?", model.ArticleStatusPublished, since)
	if author != "" {
		q = q.Where("author_id IN (?)", authorsNamed(r.db, author))
	}
	var n int64
	return n, translate(q.Count(&n).Error, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
}

func (r *articleRepository) CountByStatus(ctx context.Context, status model.ArticleStatus, author string) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Article{}).Where("status = ?", status)
	if author != "" {
		q = q.Where("author_id IN (?)", authorsNamed(r.db, author))
	}
	var n int64
	return n, translate(q.Count(&n).Error, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
}

// SlugExists checks live and soft deleted articles alike, ignoring excludeID.
func (r *articleRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	q := r.db.WithContext(ctx).Unscoped().Model(&model.Article{}).Where("slug = ?", slug)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}
	return n > 0, nil
}

func (r *articleRepository) SoftDelete(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Article{})
	return requireAffected(tx, apperrors.ErrArticleNotFound)
}

func (r *articleRepository) Restore(ctx context.Context, id string) error {
	tx := r.db.WithContext(ctx).Unscoped().Model(&model.Article{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil)
	return requireAffected(tx, apperrors.ErrArticleNotDeleted)
}

// HardDelete removes the row whether or not it is soft deleted. Removing a
// row that is already gone is not an error.
func (r *articleRepository) HardDelete(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).Unscoped().Where("id = ?", id).Delete(&model.Article{}).Error
	return translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
}

// ListPurgeable returns up to limit articles soft deleted before cutoff,
// oldest deletion first.
func (r *articleRepository) ListPurgeable(ctx context.Context, cutoff time.Time, limit int) ([]model.Article, error) {
	var articles []model.Article
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("deleted_at ASC").
		Limit(limit).
		Find(&articles).Error
	if err != nil {
		return nil, translate(err, apperrors.ErrArticleNotFound, apperrors.ErrConflict)
	}
	return articles, nil
}
