package folio

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a requested article does not exist.
	ErrNotFound = errors.New("article not found")

	// ErrInvalidDate is returned when a minDate filter cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// ContentService is the persistence collaborator behind every handler.
// Store is the bundled implementation; any other backend can be plugged in
// with WithContentService.
type ContentService interface {
	PublishedArticles(ctx context.Context) ([]Article, error)
	Categories(ctx context.Context) ([]Category, error)
	Posts(ctx context.Context) ([]Article, error)
	PostsByCategory(ctx context.Context, category string) ([]Article, error)
	PostsByMinDate(ctx context.Context, minDate string) ([]Article, error)
	PostByID(ctx context.Context, id string) (Article, error)
	AddArticle(ctx context.Context, in ArticleInput) (Article, error)
	UpdateArticle(ctx context.Context, id string, in ArticleInput) (Article, error)
	DeleteArticle(ctx context.Context, id string) error
}
