package folio

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/metrics"
)

const (
	msgNoArticles   = "No articles available or error fetching."
	msgNoCategories = "No categories available or error fetching."
)

func (a *App) handleAbout(c echo.Context) error {
	return renderView(c, http.StatusOK, a.Views.About, a.page(c, "About Us"))
}

func (a *App) handleHome(c echo.Context) error {
	articles, err := a.Content.PublishedArticles(c.Request().Context())
	if err != nil {
		a.contentError(c, "PublishedArticles", err)
		articles = []Article{}
	}
	vm := a.page(c, "Home")
	vm.Articles = articles
	return renderView(c, http.StatusOK, a.Views.Home, vm)
}

func (a *App) handleArticles(c echo.Context) error {
	articles, err := a.Content.PublishedArticles(c.Request().Context())
	vm := a.page(c, "Articles")
	if err != nil {
		a.contentError(c, "PublishedArticles", err)
		vm.Articles = []Article{}
		vm.Message = msgNoArticles
	} else {
		vm.Articles = articles
	}
	return renderView(c, http.StatusOK, a.Views.Articles, vm)
}

func (a *App) handleCategories(c echo.Context) error {
	categories, err := a.Content.Categories(c.Request().Context())
	vm := a.page(c, "Categories")
	if err != nil {
		a.contentError(c, "Categories", err)
		vm.Categories = []Category{}
		vm.Message = msgNoCategories
	} else {
		vm.Categories = categories
	}
	return renderView(c, http.StatusOK, a.Views.Categories, vm)
}

func (a *App) handleAddArticleForm(c echo.Context) error {
	categories, err := a.Content.Categories(c.Request().Context())
	if err != nil {
		a.contentError(c, "Categories", err)
		categories = []Category{}
	}
	vm := a.page(c, "Add Article")
	vm.Categories = categories
	return renderView(c, http.StatusOK, a.Views.AddArticle, vm)
}

// handlePosts lists articles filtered by ?category= or, failing that,
// ?minDate=. Without either it lists every article.
func (a *App) handlePosts(c echo.Context) error {
	ctx := c.Request().Context()
	category := c.QueryParam("category")
	minDate := c.QueryParam("minDate")

	var (
		posts []Article
		err   error
		op    string
	)
	switch {
	case category != "":
		op = "PostsByCategory"
		posts, err = a.Content.PostsByCategory(ctx, category)
	case minDate != "":
		op = "PostsByMinDate"
		posts, err = a.Content.PostsByMinDate(ctx, minDate)
	default:
		op = "Posts"
		posts, err = a.Content.Posts(ctx)
	}
	if err != nil {
		a.contentError(c, op, err)
		return c.JSON(http.StatusBadRequest, map[string]string{"message": err.Error()})
	}

	vm := a.page(c, "Articles")
	vm.Articles = posts
	return renderView(c, http.StatusOK, a.Views.Articles, vm)
}

func (a *App) handlePost(c echo.Context) error {
	post, err := a.Content.PostByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		a.contentError(c, "PostByID", err)
		return a.renderNotFound(c, "Post not found")
	}
	vm := a.page(c, post.Title)
	vm.Article = post
	return renderView(c, http.StatusOK, a.Views.Article, vm)
}

func (a *App) handleModifyForm(c echo.Context) error {
	ctx := c.Request().Context()
	article, err := a.Content.PostByID(ctx, c.Param("id"))
	if err != nil {
		a.contentError(c, "PostByID", err)
		return a.renderNotFound(c, "Article not found")
	}
	categories, err := a.Content.Categories(ctx)
	if err != nil {
		a.contentError(c, "Categories", err)
		return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	vm := a.page(c, "Modify Article")
	vm.Article = article
	vm.Categories = categories
	return renderView(c, http.StatusOK, a.Views.Modify, vm)
}

func handleFavicon(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (a *App) handleHealth(c echo.Context) error {
	if p, ok := a.Content.(pinger); ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			a.requestLogger(c).Error("health check failed", slog.Any("error", err))
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) handleFeed(c echo.Context) error {
	articles, err := a.Content.PublishedArticles(c.Request().Context())
	if err != nil {
		a.contentError(c, "PublishedArticles", err)
		return err
	}
	return a.renderRSS(c, articles)
}

func (a *App) handleSitemap(c echo.Context) error {
	articles, err := a.Content.PublishedArticles(c.Request().Context())
	if err != nil {
		a.contentError(c, "PublishedArticles", err)
		return err
	}
	return a.renderSitemap(c, articles)
}

func (a *App) renderNotFound(c echo.Context, msg string) error {
	vm := a.page(c, "Not Found")
	vm.Message = msg
	return renderView(c, http.StatusNotFound, a.Views.NotFound, vm)
}

// contentError logs a failed content service call and counts it.
// A missing article is expected traffic and logs at warn.
func (a *App) contentError(c echo.Context, op string, err error) {
	metrics.ContentError(op)
	level := slog.LevelError
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidDate) {
		level = slog.LevelWarn
	}
	a.requestLogger(c).Log(c.Request().Context(), level, "content service call failed",
		slog.String("operation", op),
		slog.Any("error", err),
	)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = a.renderNotFound(c, "Page not found")
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= http.StatusInternalServerError {
		a.requestLogger(c).Error("server error", slog.Any("error", err))
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.String(code, http.StatusText(code))
}
