package folio

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/media"
)

func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, target string, fields map[string]string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != nil {
		part, err := w.CreateFormFile("featureImage", "photo.png")
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{"title": "T", "content": "C", "category": "Cat1", "published": "on"}
}

func TestCreateWithoutImage(t *testing.T) {
	cs := new(mockContent)
	want := ArticleInput{Title: "T", Content: "C", Category: "Cat1", Published: true}
	cs.On("AddArticle", mock.Anything, want).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.jpg"}
	app := newTestApp(t, cs, ms)

	rec := serve(app, formRequest("/articles/add", url.Values{
		"title": {"T"}, "content": {"C"}, "category": {"Cat1"}, "published": {"on"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestCreateMultipartWithoutFile(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
		return in.FeatureImage == ""
	})).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.jpg"}
	app := newTestApp(t, cs, ms)

	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestCreateWithImage(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, ArticleInput{
		Title:        "T",
		Content:      "C",
		Category:     "Cat1",
		FeatureImage: "https://cdn.example.com/x.png",
		Published:    true,
	}).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.png"}
	app := newTestApp(t, cs, ms)

	data := pngBytes(t)
	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), data))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, ms.uploads, 1)
	assert.Equal(t, "photo.png", ms.uploads[0].Name)
	assert.Equal(t, "image/png", ms.uploads[0].ContentType)
	assert.Equal(t, data, ms.uploads[0].Data)
	cs.AssertExpectations(t)
}

func TestCreateUploadFailureStillCreates(t *testing.T) {
	stores := map[string]media.Store{
		"transport":    &stubMedia{err: errors.New("connection reset")},
		"unconfigured": media.Unconfigured{},
	}
	for name, ms := range stores {
		t.Run(name, func(t *testing.T) {
			cs := new(mockContent)
			cs.On("AddArticle", mock.Anything, ArticleInput{
				Title: "T", Content: "C", Category: "Cat1", Published: true,
			}).Return(Article{ID: "1"}, nil).Once()
			app := newTestApp(t, cs, ms)

			rec := serve(app, multipartRequest(t, "/articles/add", validFields(), pngBytes(t)))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/articles", rec.Header().Get("Location"))
			cs.AssertExpectations(t)
		})
	}
}

func TestCreateOversizeImageStillCreates(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
		return in.FeatureImage == ""
	})).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.png"}
	app := newTestAppWithConfig(t, func(cfg *SiteConfig) {
		cfg.MaxUploadSize = 16
	}, cs, ms)

	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), pngBytes(t)))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestCreateBodyAboveRequestLimitStillCreates(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
		return in.FeatureImage == "" && in.Title == "T"
	})).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.png"}
	app := newTestAppWithConfig(t, func(cfg *SiteConfig) {
		cfg.MaxUploadSize = 1024
	}, cs, ms)

	// Larger than MaxUploadSize and the 1 MiB allowance other routes get.
	file := bytes.Repeat([]byte{0x89}, 2<<20)
	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), file))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestCreateLargeImageWithDefaultLimits(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
		return in.FeatureImage == ""
	})).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.png"}
	app := newTestApp(t, cs, ms)

	file := bytes.Repeat([]byte{0x89}, 12<<20)
	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), file))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestCreateOversizedDimensionsStillCreates(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
		return in.FeatureImage == ""
	})).Return(Article{ID: "1"}, nil).Once()
	ms := &stubMedia{url: "https://cdn.example.com/x.gif"}
	app := newTestApp(t, cs, ms)

	// A GIF screen descriptor claiming 65535x65535 pixels.
	header := []byte{'G', 'I', 'F', '8', '9', 'a', 0xFF, 0xFF, 0xFF, 0xFF, 0, 0, 0}
	rec := serve(app, multipartRequest(t, "/articles/add", validFields(), header))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Empty(t, ms.uploads)
	cs.AssertExpectations(t)
}

func TestUpdateBodyLimit(t *testing.T) {
	cs := new(mockContent)
	app := newTestAppWithConfig(t, func(cfg *SiteConfig) {
		cfg.MaxUploadSize = 1024
	}, cs, &stubMedia{})

	rec := serve(app, formRequest("/article/1/update", url.Values{
		"title": {"T"}, "content": {strings.Repeat("x", 2<<20)}, "category": {"1"},
	}))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	cs.AssertNotCalled(t, "UpdateArticle", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateMissingFields(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
	}{
		{"no title", url.Values{"content": {"C"}, "category": {"1"}}},
		{"no content", url.Values{"title": {"T"}, "category": {"1"}}},
		{"no category", url.Values{"title": {"T"}, "content": {"C"}}},
		{"blank title", url.Values{"title": {"   "}, "content": {"C"}, "category": {"1"}}},
		{"empty form", url.Values{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := new(mockContent)
			app := newTestApp(t, cs, &stubMedia{})

			rec := serve(app, formRequest("/articles/add", tt.form))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing required fields", rec.Body.String())
			cs.AssertNotCalled(t, "AddArticle", mock.Anything, mock.Anything)
		})
	}
}

func TestCreateUploadsBeforeValidation(t *testing.T) {
	cs := new(mockContent)
	ms := &stubMedia{url: "https://cdn.example.com/x.png"}
	app := newTestApp(t, cs, ms)

	rec := serve(app, multipartRequest(t, "/articles/add", map[string]string{"title": "T"}, pngBytes(t)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, ms.uploads, 1)
	cs.AssertNotCalled(t, "AddArticle", mock.Anything, mock.Anything)
}

func TestCreateWriteFailure(t *testing.T) {
	cs := new(mockContent)
	cs.On("AddArticle", mock.Anything, mock.Anything).Return(Article{}, errors.New("db down")).Once()
	app := newTestApp(t, cs, &stubMedia{})

	rec := serve(app, formRequest("/articles/add", url.Values{
		"title": {"T"}, "content": {"C"}, "category": {"1"},
	}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
}

func TestCreatePublishedOnlyWhenOn(t *testing.T) {
	for value, want := range map[string]bool{"on": true, "": false, "true": false, "off": false} {
		cs := new(mockContent)
		cs.On("AddArticle", mock.Anything, mock.MatchedBy(func(in ArticleInput) bool {
			return in.Published == want
		})).Return(Article{ID: "1"}, nil).Once()
		app := newTestApp(t, cs, &stubMedia{})

		rec := serve(app, formRequest("/articles/add", url.Values{
			"title": {"T"}, "content": {"C"}, "category": {"1"}, "published": {value},
		}))
		assert.Equal(t, http.StatusSeeOther, rec.Code, "published=%q", value)
		cs.AssertExpectations(t)
	}
}

func TestUpdateArticle(t *testing.T) {
	cs := new(mockContent)
	in := ArticleInput{Title: "T2", Content: "C2", Category: "2", FeatureImage: "https://cdn.example.com/a.jpg", Published: true}
	cs.On("UpdateArticle", mock.Anything, "7", in).Return(Article{ID: "7"}, nil).Once()
	app := newTestApp(t, cs, nil)

	rec := serve(app, formRequest("/article/7/update", url.Values{
		"title":        {"T2"},
		"content":      {"C2"},
		"category":     {"2"},
		"featureImage": {"https://cdn.example.com/a.jpg"},
		"published":    {"on"},
	}))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/post/7", rec.Header().Get("Location"))
	cs.AssertExpectations(t)
}

func TestUpdateArticleFailure(t *testing.T) {
	cs := new(mockContent)
	cs.On("UpdateArticle", mock.Anything, "404", mock.Anything).Return(Article{}, ErrNotFound).Once()
	app := newTestApp(t, cs, nil)

	rec := serve(app, formRequest("/article/404/update", url.Values{"title": {"T"}}))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
}

func TestDeleteArticle(t *testing.T) {
	cs := new(mockContent)
	cs.On("DeleteArticle", mock.Anything, "5").Return(nil).Once()
	app := newTestApp(t, cs, nil)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/article/5/delete", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/articles", rec.Header().Get("Location"))
	cs.AssertExpectations(t)
}

func TestDeleteArticleFailure(t *testing.T) {
	cs := new(mockContent)
	cs.On("DeleteArticle", mock.Anything, "5").Return(errors.New("db down")).Once()
	app := newTestApp(t, cs, nil)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/article/5/delete", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", rec.Body.String())
}

func TestFlashShownOnce(t *testing.T) {
	cs := new(mockContent)
	cs.On("DeleteArticle", mock.Anything, "5").Return(nil).Once()
	cs.On("PublishedArticles", mock.Anything).Return([]Article{}, nil)
	app := newTestApp(t, cs, nil)

	rec := serve(app, httptest.NewRequest(http.MethodPost, "/article/5/delete", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/articles", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = serve(app, req)
	assert.Contains(t, rec.Body.String(), "flash=Article deleted.|")

	// The cookie returned with the flash page no longer carries the message.
	req = httptest.NewRequest(http.MethodGet, "/articles", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = serve(app, req)
	assert.Contains(t, rec.Body.String(), "flash=|")
}

func TestArticleRoundTrip(t *testing.T) {
	app := newTestApp(t, nil, &stubMedia{})
	ctx := context.Background()

	rec := serve(app, formRequest("/articles/add", url.Values{
		"title": {"T"}, "content": {"C"}, "category": {"Cat1"}, "published": {"on"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	posts, err := app.Content.Posts(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	id := posts[0].ID

	rec = get(app, "/post/"+id)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "article="+id+":T:true:")

	rec = get(app, "/posts?category=Cat1")
	assert.Contains(t, rec.Body.String(), "articles="+id+"|")
	rec = get(app, "/posts?category=Other")
	assert.Contains(t, rec.Body.String(), "articles=|")

	rec = serve(app, formRequest("/article/"+id+"/update", url.Values{
		"title": {"T2"}, "content": {"C"}, "category": {"Cat1"},
	}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/post/"+id, rec.Header().Get("Location"))

	rec = get(app, "/post/"+id)
	assert.Contains(t, rec.Body.String(), "article="+id+":T2:false:")

	rec = serve(app, httptest.NewRequest(http.MethodPost, "/article/"+id+"/delete", nil))
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = get(app, "/post/"+id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateArticle(t *testing.T) {
	ok := ArticleInput{Title: "T", Content: "C", Category: "1"}
	assert.NoError(t, validateArticle(&ok))

	bad := ArticleInput{Title: "T", Content: "\n\t", Category: "1"}
	assert.Error(t, validateArticle(&bad))
}
