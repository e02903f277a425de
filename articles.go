package folio

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/labstack/echo/v4"

	"github.com/eringen/folio/media"
	"github.com/eringen/folio/metrics"
)

const msgMissingFields = "Missing required fields"

// handleAddArticle runs the create pipeline: upload the feature image,
// validate the form, then write. A failed upload never blocks the write.
func (a *App) handleAddArticle(c echo.Context) error {
	ctx := c.Request().Context()
	log := a.requestLogger(c)

	imageURL := a.resolveFeatureImage(c)

	in := articleInputFromForm(c)
	in.FeatureImage = imageURL
	if err := validateArticle(&in); err != nil {
		log.Warn("article rejected", slog.Any("error", err))
		return c.String(http.StatusBadRequest, msgMissingFields)
	}

	article, err := a.Content.AddArticle(ctx, in)
	if err != nil {
		a.contentError(c, "AddArticle", err)
		return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	metrics.ArticleWritten("create")
	log.Info("article created", slog.String("id", article.ID), slog.Bool("published", article.Published))

	a.flash(c, "Article created.")
	return c.Redirect(http.StatusSeeOther, "/articles")
}

// handleUpdateArticle replaces every editable field. The feature image is
// taken verbatim from the form; no file is re-uploaded.
func (a *App) handleUpdateArticle(c echo.Context) error {
	id := c.Param("id")
	in := articleInputFromForm(c)
	in.FeatureImage = c.FormValue("featureImage")

	article, err := a.Content.UpdateArticle(c.Request().Context(), id, in)
	if err != nil {
		a.contentError(c, "UpdateArticle", err)
		return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	if article.ID == "" {
		article.ID = id
	}
	metrics.ArticleWritten("update")
	a.requestLogger(c).Info("article updated", slog.String("id", article.ID))

	a.flash(c, "Article updated.")
	return c.Redirect(http.StatusSeeOther, article.Link())
}

func (a *App) handleDeleteArticle(c echo.Context) error {
	id := c.Param("id")
	if err := a.Content.DeleteArticle(c.Request().Context(), id); err != nil {
		a.contentError(c, "DeleteArticle", err)
		return c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
	metrics.ArticleWritten("delete")
	a.requestLogger(c).Info("article deleted", slog.String("id", id))

	a.flash(c, "Article deleted.")
	return c.Redirect(http.StatusSeeOther, "/articles")
}

// resolveFeatureImage uploads the optional featureImage file and returns its
// public URL. Every failure is logged and yields "".
func (a *App) resolveFeatureImage(c echo.Context) string {
	log := a.requestLogger(c)

	fh, err := c.FormFile("featureImage")
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart) {
			log.Debug("feature image unreadable", slog.Any("error", err))
		}
		metrics.ObserveUpload(metrics.UploadSkipped, 0)
		return ""
	}
	if fh.Size == 0 {
		metrics.ObserveUpload(metrics.UploadSkipped, 0)
		return ""
	}

	obj, err := media.ReadFile(fh, a.Config.MaxUploadSize)
	if err != nil {
		log.Warn("feature image rejected", slog.String("file", fh.Filename), slog.Any("error", err))
		metrics.ObserveUpload(metrics.UploadFailure, 0)
		return ""
	}
	obj, err = media.Normalize(obj)
	if err != nil {
		log.Warn("feature image rejected", slog.String("file", fh.Filename), slog.Any("error", err))
		metrics.ObserveUpload(metrics.UploadFailure, 0)
		return ""
	}

	url, err := a.Media.Upload(c.Request().Context(), obj)
	if err != nil {
		log.Warn("feature image upload failed; continuing without image",
			slog.String("file", fh.Filename),
			slog.Any("error", err),
		)
		metrics.ObserveUpload(metrics.UploadFailure, len(obj.Data))
		return ""
	}
	metrics.ObserveUpload(metrics.UploadSuccess, len(obj.Data))
	log.Info("feature image uploaded", slog.String("url", url), slog.Int("bytes", len(obj.Data)))
	return url
}

func articleInputFromForm(c echo.Context) ArticleInput {
	return ArticleInput{
		Title:     c.FormValue("title"),
		Content:   c.FormValue("content"),
		Category:  c.FormValue("category"),
		Published: c.FormValue("published") == "on",
	}
}

var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

func validateArticle(in *ArticleInput) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Title, validation.Required, notBlank),
		validation.Field(&in.Content, validation.Required, notBlank),
		validation.Field(&in.Category, validation.Required, notBlank),
	)
}

// flash records a message for the next page. The write already happened,
// so a session failure is only logged.
func (a *App) flash(c echo.Context, msg string) {
	if err := setFlash(c, msg); err != nil {
		a.requestLogger(c).Warn("flash not saved", slog.Any("error", err))
	}
}
