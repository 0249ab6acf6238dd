package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/events"
	"newsdesk/internal/model"
	"newsdesk/internal/policy"
	"newsdesk/internal/repository"
)

const (
	metaTitleMax       = 60
	metaDescriptionMax = 160
	articleSlugDefault = "article"
)

var blankTitle = apperrors.Validation("validation failed", map[string]string{"title": "must not be blank"})

// ArticleQuery is a public article listing request.
type ArticleQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	Author    string
	AuthorID  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
}

// AdminArticleQuery is an admin listing request. Deleted is "all" (the
// default), "only" or "none".
type AdminArticleQuery struct {
	Page    int
	Limit   int
	Search  string
	Deleted string
}

// ArticleList is one page of articles. The counters are only filled for staff.
type ArticleList struct {
	Articles          []model.Article
	Total             int64
	Page              int
	Limit             int
	UpdatedTodayCount *int64
	DraftCount        *int64
}

// CreateArticleInput holds the fields a writer may set on a new article.
type CreateArticleInput struct {
	Title           string
	Content         string
	CategoryID      *string
	CoverImage      *string
	MetaTitle       *string
	MetaDescription *string
}

// UpdateArticleInput holds a partial update. Nil fields are left unchanged.
type UpdateArticleInput struct {
	Title           *string
	Content         *string
	CategoryID      *string
	CoverImage      *string
	MetaTitle       *string
	MetaDescription *string
	Status          *model.ArticleStatus
}

// ArticleService exposes article operations. A nil identity is an anonymous caller.
type ArticleService interface {
	List(ctx context.Context, id *auth.Identity, q ArticleQuery) (*ArticleList, error)
	Get(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error)
	Create(ctx context.Context, id *auth.Identity, in CreateArticleInput) (*model.Article, error)
	Update(ctx context.Context, id *auth.Identity, slugOrID string, in UpdateArticleInput) (*model.Article, error)
	Delete(ctx context.Context, id *auth.Identity, slugOrID string, force bool) (*model.Article, error)
	Restore(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error)
	ChangeStatus(ctx context.Context, id *auth.Identity, articleID string, status model.ArticleStatus) (*model.Article, error)
	AdminList(ctx context.Context, id *auth.Identity, q AdminArticleQuery) (*ArticleList, error)
}

// ArticleOptions tunes ArticleService.
type ArticleOptions struct {
	// AuthorFilterWidensVisibility lets any caller filtering by author see
	// every status of that author's articles.
	AuthorFilterWidensVisibility bool
	Now                          func() time.Time
}

type articleService struct {
	articles   repository.ArticleRepository
	categories repository.CategoryRepository
	events     emitter
	logger     *zap.Logger
	widen      bool
	now        func() time.Time
}

// NewArticleService creates a new article service.
func NewArticleService(
	articles repository.ArticleRepository,
	categories repository.CategoryRepository,
	publisher events.Publisher,
	logger *zap.Logger,
	opts ArticleOptions,
) ArticleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &articleService{
		articles:   articles,
		categories: categories,
		events:     emitter{publisher: publisher, logger: logger, now: now},
		logger:     logger,
		widen:      opts.AuthorFilterWidensVisibility,
		now:        now,
	}
}

func (s *articleService) List(ctx context.Context, id *auth.Identity, q ArticleQuery) (*ArticleList, error) {
	filter := repository.ArticleFilter{
		Page:      repository.Page{Page: q.Page, Limit: q.Limit}.Normalize(),
		Search:    strings.TrimSpace(q.Search),
		Category:  strings.TrimSpace(q.Category),
		Author:    strings.TrimSpace(q.Author),
		AuthorID:  strings.TrimSpace(q.AuthorID),
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}

	if q.Status != "" {
		status := model.ArticleStatus(strings.ToUpper(q.Status))
		if err := policy.ValidateStatus(status); err != nil {
			return nil, err
		}
		filter.Status = status
	}

	list := &ArticleList{Page: filter.Page.Page, Limit: filter.Page.Limit}

	if forced, restricted := policy.ListVisibility(id, filter.AuthorID, s.widen); restricted {
		if filter.Status != "" && filter.Status != forced {
			list.Articles = []model.Article{}
			return list, nil
		}
		filter.Status = forced
	}

	articles, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	list.Articles = articles
	list.Total = total

	if id != nil && id.Role.IsStaff() {
		updated, err := s.articles.CountUpdatedSince(ctx, startOfDay(s.now()), filter.Author)
		if err != nil {
			return nil, err
		}
		drafts, err := s.articles.CountByStatus(ctx, model.ArticleStatusDraft, filter.Author)
		if err != nil {
			return nil, err
		}
		list.UpdatedTodayCount = &updated
		list.DraftCount = &drafts
	}
	return list, nil
}

// find resolves an id or a slug.
func (s *articleService) find(ctx context.Context, slugOrID string, includeDeleted bool) (*model.Article, error) {
	if isUUID(slugOrID) {
		article, err := s.articles.FindByID(ctx, slugOrID, includeDeleted)
		if !errors.Is(err, apperrors.ErrArticleNotFound) {
			return article, err
		}
	}
	return s.articles.FindBySlug(ctx, slugOrID, includeDeleted)
}

func (s *articleService) Get(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error) {
	article, err := s.find(ctx, slugOrID, false)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewArticle(id, article) {
		return nil, apperrors.ErrArticleNotFound
	}
	return article, nil
}

// checkCategory requires categoryID, when set, to name an active category.
func (s *articleService) checkCategory(ctx context.Context, categoryID *string) error {
	if categoryID == nil || *categoryID == "" {
		return nil
	}
	category, err := s.categories.FindByID(ctx, *categoryID)
	if errors.Is(err, apperrors.ErrCategoryNotFound) || (err == nil && !category.IsActive) {
		return apperrors.Validation("validation failed", map[string]string{
			"categoryId": "category not found or inactive",
		})
	}
	return err
}

func (s *articleService) Create(ctx context.Context, id *auth.Identity, in CreateArticleInput) (*model.Article, error) {
	if err := policy.CanCreateArticle(id); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, blankTitle
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	slug, err := policy.UniqueSlug(ctx, in.Title, articleSlugDefault, "", s.articles.SlugExists, s.now)
	if err != nil {
		return nil, err
	}

	article := &model.Article{
		Slug:            slug,
		Title:           in.Title,
		Content:         in.Content,
		CategoryID:      emptyToNil(in.CategoryID),
		AuthorID:        id.UserID,
		Status:          model.ArticleStatusDraft,
		CoverImage:      emptyToNil(in.CoverImage),
		MetaTitle:       truncate(in.Title, metaTitleMax),
		MetaDescription: truncate(in.Content, metaDescriptionMax),
	}
	if in.MetaTitle != nil {
		article.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		article.MetaDescription = *in.MetaDescription
	}

	if err := s.articles.Create(ctx, article); err != nil {
		return nil, err
	}

	s.logger.Info("article created", zap.String("article_id", article.ID), zap.String("slug", slug), zap.String("author_id", id.UserID))
	s.events.emit(ctx, events.Event{Type: events.ArticleCreated, ArticleID: article.ID, Slug: slug, Status: string(article.Status), ActorID: id.UserID})
	return article, nil
}

func (s *articleService) Update(ctx context.Context, id *auth.Identity, slugOrID string, in UpdateArticleInput) (*model.Article, error) {
	article, err := s.find(ctx, slugOrID, true)
	if err != nil {
		return nil, err
	}
	if err := policy.CanUpdateArticle(id, article); err != nil {
		return nil, err
	}
	if article.IsDeleted() {
		return nil, apperrors.ErrArticleDeleted
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, blankTitle
	}
	if in.Status != nil {
		if err := policy.CanChangeStatus(id, *in.Status); err != nil {
			return nil, err
		}
		article.Status = *in.Status
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	if in.Title != nil {
		slug, err := policy.UniqueSlug(ctx, *in.Title, articleSlugDefault, article.ID, s.articles.SlugExists, s.now)
		if err != nil {
			return nil, err
		}
		article.Title = *in.Title
		article.Slug = slug
	}
	if in.Content != nil {
		article.Content = *in.Content
	}
	if in.CategoryID != nil {
		article.CategoryID = emptyToNil(in.CategoryID)
		article.Category = nil
	}
	if in.CoverImage != nil {
		article.CoverImage = emptyToNil(in.CoverImage)
	}
	if in.MetaTitle != nil {
		article.MetaTitle = *in.MetaTitle
	}
	if in.MetaDescription != nil {
		article.MetaDescription = *in.MetaDescription
	}

	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	s.events.emit(ctx, events.Event{Type: events.ArticleUpdated, ArticleID: article.ID, Slug: article.Slug, Status: string(article.Status), ActorID: id.UserID})
	return article, nil
}

// Delete soft deletes an article, or removes it for good when force is set.
// The returned article is nil after a hard delete.
func (s *articleService) Delete(ctx context.Context, id *auth.Identity, slugOrID string, force bool) (*model.Article, error) {
	article, err := s.find(ctx, slugOrID, true)
	if err != nil {
		return nil, err
	}
	if err := policy.CanDeleteArticle(id, article, force); err != nil {
		return nil, err
	}

	evt := events.Event{Type: events.ArticleDeleted, ArticleID: article.ID, Slug: article.Slug, ActorID: id.UserID, Force: force}
	if force {
		if err := s.articles.HardDelete(ctx, article.ID); err != nil {
			return nil, err
		}
		s.logger.Info("article force deleted", zap.String("article_id", article.ID), zap.String("actor_id", id.UserID))
		s.events.emit(ctx, evt)
		return nil, nil
	}

	if err := s.articles.SoftDelete(ctx, article.ID); err != nil {
		return nil, err
	}
	article.DeletedAt.Time = s.now()
	article.DeletedAt.Valid = true
	s.events.emit(ctx, evt)
	return article, nil
}

func (s *articleService) Restore(ctx context.Context, id *auth.Identity, slugOrID string) (*model.Article, error) {
	article, err := s.find(ctx, slugOrID, true)
	if err != nil && !errors.Is(err, apperrors.ErrArticleNotFound) {
		return nil, err
	}
	if err := policy.CanRestoreArticle(id, article); err != nil {
		return nil, err
	}

	if err := s.articles.Restore(ctx, article.ID); err != nil {
		return nil, err
	}
	article.DeletedAt.Valid = false
	article.DeletedAt.Time = time.Time{}

	s.events.emit(ctx, events.Event{Type: events.ArticleRestored, ArticleID: article.ID, Slug: article.Slug, ActorID: id.UserID})
	return article, nil
}

func (s *articleService) ChangeStatus(ctx context.Context, id *auth.Identity, articleID string, status model.ArticleStatus) (*model.Article, error) {
	if err := policy.CanChangeStatus(id, status); err != nil {
		return nil, err
	}
	if !isUUID(articleID) {
		return nil, apperrors.Validation("invalid article id", map[string]string{"id": "must be a uuid"})
	}

	article, err := s.articles.FindByID(ctx, articleID, false)
	if err != nil {
		return nil, err
	}
	article.Status = status
	if err := s.articles.Update(ctx, article); err != nil {
		return nil, err
	}

	s.events.emit(ctx, events.Event{Type: events.ArticleStatusChanged, ArticleID: article.ID, Slug: article.Slug, Status: string(status), ActorID: id.UserID})
	return article, nil
}

func (s *articleService) AdminList(ctx context.Context, id *auth.Identity, q AdminArticleQuery) (*ArticleList, error) {
	if err := policy.CanAdminister(id); err != nil {
		return nil, err
	}

	var deleted repository.DeletedScope
	switch strings.ToLower(q.Deleted) {
	case "", "all":
		deleted = repository.IncludeDeleted
	case "only":
		deleted = repository.OnlyDeleted
	case "none":
		deleted = repository.ExcludeDeleted
	default:
		return nil, apperrors.Validation("validation failed", map[string]string{"deleted": "must be one of all, only, none"})
	}
	filter := repository.ArticleFilter{
		Page:    repository.Page{Page: q.Page, Limit: q.Limit}.Normalize(),
		Search:  strings.TrimSpace(q.Search),
		Deleted: deleted,
	}

	articles, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	updated, err := s.articles.CountUpdatedSince(ctx, startOfDay(s.now()), "")
	if err != nil {
		return nil, err
	}
	drafts, err := s.articles.CountByStatus(ctx, model.ArticleStatusDraft, "")
	if err != nil {
		return nil, err
	}

	return &ArticleList{
		Articles:          articles,
		Total:             total,
		Page:              filter.Page.Page,
		Limit:             filter.Page.Limit,
		UpdatedTodayCount: &updated,
		DraftCount:        &drafts,
	}, nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
