package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"newsdesk/internal/auth"
	apperrors "newsdesk/internal/errors"
	"newsdesk/internal/events"
	"newsdesk/internal/model"
	"newsdesk/internal/repository"
)

const (
	articleUUID  = "0d6f8a4e-3b1c-4d2e-9f0a-1b2c3d4e5f60"
	categoryUUID = "7c9e6679-7425-40de-944b-e07fc1f90ae7"
)

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

type articleFixture struct {
	articles   *MockArticleRepository
	categories *MockCategoryRepository
	publisher  *MockPublisher
	svc        ArticleService
}

func newArticleFixture(widen bool) *articleFixture {
	f := &articleFixture{
		articles:   new(MockArticleRepository),
		categories: new(MockCategoryRepository),
		publisher:  new(MockPublisher),
	}
	f.svc = NewArticleService(f.articles, f.categories, f.publisher, nil, ArticleOptions{
		AuthorFilterWidensVisibility: widen,
		Now:                          func() time.Time { return fixedNow },
	})
	return f
}

func (f *articleFixture) expectEvent(eventType string) {
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
		return e.Type == eventType && e.OccurredAt.Equal(fixedNow)
	})).Return(nil).Once()
}

func who(userID string, role auth.Role) *auth.Identity {
	return &auth.Identity{UserID: userID, Role: role}
}

func TestArticleService_ListVisibility(t *testing.T) {
	tests := []struct {
		name       string
		id         *auth.Identity
		query      ArticleQuery
		widen      bool
		wantStatus model.ArticleStatus
		wantCounts bool
	}{
		{"guest sees published", nil, ArticleQuery{}, false, model.ArticleStatusPublished, false},
		{"user role sees published", who("u-1", auth.RoleUser), ArticleQuery{}, false, model.ArticleStatusPublished, false},
		{"reporter sees all", who("r-1", auth.RoleReporter), ArticleQuery{}, false, "", true},
		{"editor status filter", who("e-1", auth.RoleEditor), ArticleQuery{Status: "draft"}, false, model.ArticleStatusDraft, true},
		{"guest author filter", nil, ArticleQuery{AuthorID: "r-1"}, false, model.ArticleStatusPublished, false},
		{"guest author filter widened", nil, ArticleQuery{AuthorID: "r-1"}, true, "", false},
		{"guest explicit published", nil, ArticleQuery{Status: "PUBLISHED"}, false, model.ArticleStatusPublished, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newArticleFixture(tt.widen)
			f.articles.On("List", mock.Anything, mock.MatchedBy(func(filter repository.ArticleFilter) bool {
				return filter.Status == tt.wantStatus && filter.Deleted == repository.ExcludeDeleted
			})).Return([]model.Article{{ID: articleUUID}}, int64(1), nil)
			if tt.wantCounts {
				f.articles.On("CountUpdatedSince", mock.Anything, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), "").Return(int64(2), nil)
				f.articles.On("CountByStatus", mock.Anything, model.ArticleStatusDraft, "").Return(int64(3), nil)
			}

			list, err := f.svc.List(context.Background(), tt.id, tt.query)
			require.NoError(t, err)
			assert.Len(t, list.Articles, 1)
			assert.Equal(t, 1, list.Page)
			assert.Equal(t, 10, list.Limit)
			if tt.wantCounts {
				require.NotNil(t, list.UpdatedTodayCount)
				assert.Equal(t, int64(2), *list.UpdatedTodayCount)
				assert.Equal(t, int64(3), *list.DraftCount)
			} else {
				assert.Nil(t, list.UpdatedTodayCount)
				assert.Nil(t, list.DraftCount)
			}
			f.articles.AssertExpectations(t)
		})
	}
}

func TestArticleService_ListGuestCannotWidenWithStatus(t *testing.T) {
	f := newArticleFixture(false)

	list, err := f.svc.List(context.Background(), nil, ArticleQuery{Status: "DRAFT"})
	require.NoError(t, err)
	assert.Empty(t, list.Articles)
	assert.Zero(t, list.Total)
	f.articles.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestArticleService_ListRejectsUnknownStatus(t *testing.T) {
	f := newArticleFixture(false)

	_, err := f.svc.List(context.Background(), who("e-1", auth.RoleEditor), ArticleQuery{Status: "deleted"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
}

func TestArticleService_Get(t *testing.T) {
	draft := &model.Article{ID: articleUUID, Slug: "draft-news", Status: model.ArticleStatusDraft}

	t.Run("by slug for staff", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "draft-news", false).Return(draft, nil)

		got, err := f.svc.Get(context.Background(), who("r-2", auth.RoleReporter), "draft-news")
		require.NoError(t, err)
		assert.Equal(t, articleUUID, got.ID)
	})

	t.Run("draft hidden from guest by id", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindByID", mock.Anything, articleUUID, false).Return(draft, nil)

		_, err := f.svc.Get(context.Background(), nil, articleUUID)
		assert.ErrorIs(t, err, apperrors.ErrArticleNotFound)
	})

	t.Run("hex slug is looked up as a slug", func(t *testing.T) {
		hex := &model.Article{ID: articleUUID, Slug: "0123456789abcdef0123456789abcdef", Status: model.ArticleStatusPublished}
		for _, ref := range []string{"0123456789abcdef0123456789abcdef", "{" + articleUUID + "}", "urn:uuid:" + articleUUID} {
			f := newArticleFixture(false)
			f.articles.On("FindBySlug", mock.Anything, ref, false).Return(hex, nil)

			got, err := f.svc.Get(context.Background(), who("a-1", auth.RoleAdmin), ref)
			require.NoError(t, err, ref)
			assert.Equal(t, articleUUID, got.ID)
			f.articles.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("uuid shaped slug falls back to slug lookup", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindByID", mock.Anything, categoryUUID, false).Return(nil, apperrors.ErrArticleNotFound)
		f.articles.On("FindBySlug", mock.Anything, categoryUUID, false).Return(&model.Article{ID: articleUUID, Slug: categoryUUID, Status: model.ArticleStatusPublished}, nil)

		got, err := f.svc.Get(context.Background(), nil, categoryUUID)
		require.NoError(t, err)
		assert.Equal(t, articleUUID, got.ID)
	})

	t.Run("missing", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "nope", false).Return(nil, apperrors.ErrArticleNotFound)

		_, err := f.svc.Get(context.Background(), nil, "nope")
		assert.ErrorIs(t, err, apperrors.ErrArticleNotFound)
	})
}

func TestArticleService_Create(t *testing.T) {
	longContent := strings.Repeat("é", 200)

	t.Run("defaults", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("SlugExists", mock.Anything, "breaking-news", "").Return(true, nil)
		f.articles.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Article) bool {
			return a.Slug == "breaking-news-1710513000000" &&
				a.Status == model.ArticleStatusDraft &&
				a.AuthorID == "r-1" &&
				a.MetaTitle == "Breaking News" &&
				a.MetaDescription == strings.Repeat("é", 160) &&
				a.CategoryID == nil
		})).Return(nil)
		f.expectEvent(events.ArticleCreated)

		a, err := f.svc.Create(context.Background(), who("r-1", auth.RoleReporter), CreateArticleInput{
			Title:   "Breaking News",
			Content: longContent,
		})
		require.NoError(t, err)
		assert.Equal(t, "breaking-news-1710513000000", a.Slug)
		f.articles.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("long colliding title fits the slug column", func(t *testing.T) {
		f := newArticleFixture(false)
		title := strings.Repeat("a", 255)
		f.articles.On("SlugExists", mock.Anything, title, "").Return(true, nil)
		f.articles.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Article) bool {
			return len(a.Slug) == 255 && strings.HasSuffix(a.Slug, "-1710513000000")
		})).Return(nil)
		f.expectEvent(events.ArticleCreated)

		_, err := f.svc.Create(context.Background(), who("r-1", auth.RoleReporter), CreateArticleInput{Title: title, Content: "Body"})
		require.NoError(t, err)
		f.articles.AssertExpectations(t)
	})

	t.Run("explicit meta and active category", func(t *testing.T) {
		f := newArticleFixture(false)
		cat := categoryUUID
		meta := "Custom"
		f.categories.On("FindByID", mock.Anything, categoryUUID).Return(&model.Category{ID: categoryUUID, IsActive: true}, nil)
		f.articles.On("SlugExists", mock.Anything, "title", "").Return(false, nil)
		f.articles.On("Create", mock.Anything, mock.MatchedBy(func(a *model.Article) bool {
			return a.MetaTitle == "Custom" && a.CategoryID != nil && *a.CategoryID == categoryUUID
		})).Return(nil)
		f.expectEvent(events.ArticleCreated)

		_, err := f.svc.Create(context.Background(), who("e-1", auth.RoleEditor), CreateArticleInput{
			Title: "Title", Content: "Body", CategoryID: &cat, MetaTitle: &meta,
		})
		require.NoError(t, err)
	})

	t.Run("inactive category", func(t *testing.T) {
		f := newArticleFixture(false)
		cat := categoryUUID
		f.categories.On("FindByID", mock.Anything, categoryUUID).Return(&model.Category{ID: categoryUUID}, nil)

		_, err := f.svc.Create(context.Background(), who("e-1", auth.RoleEditor), CreateArticleInput{
			Title: "Title", Content: "Body", CategoryID: &cat,
		})
		require.Error(t, err)
		assert.Equal(t, apperrors.KindValidationFailed, apperrors.KindOf(err))
		assert.Contains(t, err.(*apperrors.AppError).Fields, "categoryId")
	})

	t.Run("blank title", func(t *testing.T) {
		f := newArticleFixture(false)
		_, err := f.svc.Create(context.Background(), who("r-1", auth.RoleReporter), CreateArticleInput{Title: "   ", Content: "B"})
		assert.ErrorIs(t, err, blankTitle)
		f.articles.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("user role forbidden", func(t *testing.T) {
		f := newArticleFixture(false)
		_, err := f.svc.Create(context.Background(), who("u-1", auth.RoleUser), CreateArticleInput{Title: "T", Content: "B"})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestArticleService_Update(t *testing.T) {
	existing := func() *model.Article {
		return &model.Article{ID: articleUUID, Slug: "old", Title: "Old", AuthorID: "r-1", Status: model.ArticleStatusDraft}
	}

	t.Run("owner retitles", func(t *testing.T) {
		f := newArticleFixture(false)
		title := "New Title"
		f.articles.On("FindBySlug", mock.Anything, "old", true).Return(existing(), nil)
		f.articles.On("SlugExists", mock.Anything, "new-title", articleUUID).Return(false, nil)
		f.articles.On("Update", mock.Anything, mock.MatchedBy(func(a *model.Article) bool {
			return a.Slug == "new-title" && a.Title == "New Title"
		})).Return(nil)
		f.expectEvent(events.ArticleUpdated)

		a, err := f.svc.Update(context.Background(), who("r-1", auth.RoleReporter), "old", UpdateArticleInput{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "new-title", a.Slug)
	})

	t.Run("blank title", func(t *testing.T) {
		f := newArticleFixture(false)
		title := "  "
		f.articles.On("FindBySlug", mock.Anything, "old", true).Return(existing(), nil)

		_, err := f.svc.Update(context.Background(), who("r-1", auth.RoleReporter), "old", UpdateArticleInput{Title: &title})
		assert.ErrorIs(t, err, blankTitle)
		f.articles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("other reporter", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "old", true).Return(existing(), nil)

		_, err := f.svc.Update(context.Background(), who("r-2", auth.RoleReporter), "old", UpdateArticleInput{})
		assert.ErrorIs(t, err, apperrors.ErrNotOwner)
	})

	t.Run("reporter cannot publish", func(t *testing.T) {
		f := newArticleFixture(false)
		status := model.ArticleStatusPublished
		f.articles.On("FindBySlug", mock.Anything, "old", true).Return(existing(), nil)

		_, err := f.svc.Update(context.Background(), who("r-1", auth.RoleReporter), "old", UpdateArticleInput{Status: &status})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.articles.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("soft deleted", func(t *testing.T) {
		f := newArticleFixture(false)
		gone := existing()
		gone.DeletedAt = gorm.DeletedAt{Time: fixedNow, Valid: true}
		f.articles.On("FindBySlug", mock.Anything, "old", true).Return(gone, nil)

		_, err := f.svc.Update(context.Background(), who("e-1", auth.RoleEditor), "old", UpdateArticleInput{})
		assert.ErrorIs(t, err, apperrors.ErrArticleDeleted)
	})
}

func TestArticleService_Delete(t *testing.T) {
	live := func() *model.Article {
		return &model.Article{ID: articleUUID, Slug: "story", AuthorID: "r-1", Status: model.ArticleStatusPublished}
	}

	t.Run("soft delete", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "story", true).Return(live(), nil)
		f.articles.On("SoftDelete", mock.Anything, articleUUID).Return(nil)
		f.expectEvent(events.ArticleDeleted)

		a, err := f.svc.Delete(context.Background(), who("r-1", auth.RoleReporter), "story", false)
		require.NoError(t, err)
		assert.True(t, a.IsDeleted())
	})

	t.Run("force by admin", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "story", true).Return(live(), nil)
		f.articles.On("HardDelete", mock.Anything, articleUUID).Return(nil)
		f.expectEvent(events.ArticleDeleted)

		a, err := f.svc.Delete(context.Background(), who("a-1", auth.RoleAdmin), "story", true)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("force by editor", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "story", true).Return(live(), nil)

		_, err := f.svc.Delete(context.Background(), who("e-1", auth.RoleEditor), "story", true)
		assert.ErrorIs(t, err, apperrors.ErrForceDeleteForbidden)
		f.articles.AssertNotCalled(t, "HardDelete", mock.Anything, mock.Anything)
	})

	t.Run("publish failure does not fail delete", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "story", true).Return(live(), nil)
		f.articles.On("SoftDelete", mock.Anything, articleUUID).Return(nil)
		f.publisher.On("Publish", mock.Anything, mock.Anything).Return(assert.AnError)

		_, err := f.svc.Delete(context.Background(), who("e-1", auth.RoleEditor), "story", false)
		assert.NoError(t, err)
	})
}

func TestArticleService_Restore(t *testing.T) {
	t.Run("admin restores", func(t *testing.T) {
		f := newArticleFixture(false)
		gone := &model.Article{ID: articleUUID, Slug: "story", DeletedAt: gorm.DeletedAt{Time: fixedNow, Valid: true}}
		f.articles.On("FindBySlug", mock.Anything, "story", true).Return(gone, nil)
		f.articles.On("Restore", mock.Anything, articleUUID).Return(nil)
		f.expectEvent(events.ArticleRestored)

		a, err := f.svc.Restore(context.Background(), who("a-1", auth.RoleAdmin), "story")
		require.NoError(t, err)
		assert.False(t, a.IsDeleted())
	})

	t.Run("missing article", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "nope", true).Return(nil, apperrors.ErrArticleNotFound)

		_, err := f.svc.Restore(context.Background(), who("a-1", auth.RoleAdmin), "nope")
		assert.ErrorIs(t, err, apperrors.ErrArticleNotDeleted)
	})

	t.Run("editor forbidden even when missing", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindBySlug", mock.Anything, "nope", true).Return(nil, apperrors.ErrArticleNotFound)

		_, err := f.svc.Restore(context.Background(), who("e-1", auth.RoleEditor), "nope")
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestArticleService_ChangeStatus(t *testing.T) {
	t.Run("editor publishes", func(t *testing.T) {
		f := newArticleFixture(false)
		f.articles.On("FindByID", mock.Anything, articleUUID, false).Return(&model.Article{ID: articleUUID, Status: model.ArticleStatusDraft}, nil)
		f.articles.On("Update", mock.Anything, mock.MatchedBy(func(a *model.Article) bool {
			return a.Status == model.ArticleStatusPublished
		})).Return(nil)
		f.expectEvent(events.ArticleStatusChanged)

		a, err := f.svc.ChangeStatus(context.Background(), who("e-1", auth.RoleEditor), articleUUID, model.ArticleStatusPublished)
		require.NoError(t, err)
		assert.Equal(t, model.ArticleStatusPublished, a.Status)
	})

	t.Run("invalid status", func(t *testing.T) {
		f := newArticleFixture(false)
		_, err := f.svc.ChangeStatus(context.Background(), who("e-1", auth.RoleEditor), articleUUID, "LIVE")
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
	})

	t.Run("slug is not accepted", func(t *testing.T) {
		f := newArticleFixture(false)
		_, err := f.svc.ChangeStatus(context.Background(), who("e-1", auth.RoleEditor), "story", model.ArticleStatusArchived)
		assert.Equal(t, apperrors.KindValidationFailed, apperrors.KindOf(err))
	})
}

func TestArticleService_AdminList(t *testing.T) {
	tests := []struct {
		deleted string
		scope   repository.DeletedScope
	}{
		{"", repository.IncludeDeleted},
		{"all", repository.IncludeDeleted},
		{"only", repository.OnlyDeleted},
		{"NONE", repository.ExcludeDeleted},
	}
	for _, tt := range tests {
		t.Run("deleted="+tt.deleted, func(t *testing.T) {
			f := newArticleFixture(false)
			f.articles.On("List", mock.Anything, mock.MatchedBy(func(filter repository.ArticleFilter) bool {
				return filter.Deleted == tt.scope
			})).Return([]model.Article{}, int64(0), nil)
			f.articles.On("CountUpdatedSince", mock.Anything, mock.Anything, "").Return(int64(0), nil)
			f.articles.On("CountByStatus", mock.Anything, model.ArticleStatusDraft, "").Return(int64(0), nil)

			list, err := f.svc.AdminList(context.Background(), who("a-1", auth.RoleAdmin), AdminArticleQuery{Deleted: tt.deleted})
			require.NoError(t, err)
			assert.NotNil(t, list.DraftCount)
		})
	}

	f := newArticleFixture(false)
	_, err := f.svc.AdminList(context.Background(), who("a-1", auth.RoleAdmin), AdminArticleQuery{Deleted: "maybe"})
	assert.Equal(t, apperrors.KindValidationFailed, apperrors.KindOf(err))

	_, err = f.svc.AdminList(context.Background(), who("e-1", auth.RoleEditor), AdminArticleQuery{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}
