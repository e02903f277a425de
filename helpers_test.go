package folio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/eringen/folio/media"
)

type mockContent struct {
	mock.Mock
}

var _ ContentService = (*mockContent)(nil)

func articlesArg(args mock.Arguments) []Article {
	if v := args.Get(0); v != nil {
		return v.([]Article)
	}
	return nil
}

func (m *mockContent) PublishedArticles(ctx context.Context) ([]Article, error) {
	args := m.Called(ctx)
	return articlesArg(args), args.Error(1)
}

func (m *mockContent) Categories(ctx context.Context) ([]Category, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]Category), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockContent) Posts(ctx context.Context) ([]Article, error) {
	args := m.Called(ctx)
	return articlesArg(args), args.Error(1)
}

func (m *mockContent) PostsByCategory(ctx context.Context, category string) ([]Article, error) {
	args := m.Called(ctx, category)
	return articlesArg(args), args.Error(1)
}

func (m *mockContent) PostsByMinDate(ctx context.Context, minDate string) ([]Article, error) {
	args := m.Called(ctx, minDate)
	return articlesArg(args), args.Error(1)
}

func (m *mockContent) PostByID(ctx context.Context, id string) (Article, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Article), args.Error(1)
}

func (m *mockContent) AddArticle(ctx context.Context, in ArticleInput) (Article, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(Article), args.Error(1)
}

func (m *mockContent) UpdateArticle(ctx context.Context, id string, in ArticleInput) (Article, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(Article), args.Error(1)
}

func (m *mockContent) DeleteArticle(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type stubMedia struct {
	url     string
	err     error
	uploads []media.Object
}

func (s *stubMedia) Upload(_ context.Context, obj media.Object) (string, error) {
	s.uploads = append(s.uploads, obj)
	return s.url, s.err
}

// stubView renders a one-line summary of the view model so tests can
// assert on which page was rendered and with what data.
func stubView(name string) func(ViewModel) templ.Component {
	return func(vm ViewModel) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			ids := make([]string, 0, len(vm.Articles))
			for _, a := range vm.Articles {
				ids = append(ids, a.ID)
			}
			cats := make([]string, 0, len(vm.Categories))
			for _, c := range vm.Categories {
				cats = append(cats, c.ID)
			}
			_, err := fmt.Fprintf(w, "%s|%s|message=%s|flash=%s|articles=%s|categories=%s|article=%s:%s:%t:%s",
				name, vm.Title, vm.Message, vm.Flash,
				strings.Join(ids, ","), strings.Join(cats, ","),
				vm.Article.ID, vm.Article.Title, vm.Article.Published, vm.Article.FeatureImage,
			)
			return err
		})
	}
}

func stubViews() ViewFuncs {
	return ViewFuncs{
		About:      stubView("about"),
		Home:       stubView("home"),
		Articles:   stubView("articles"),
		Categories: stubView("categories"),
		AddArticle: stubView("addArticle"),
		Article:    stubView("article"),
		Modify:     stubView("modify"),
		NotFound:   stubView("notFound"),
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, cs ContentService, ms media.Store) *App {
	t.Helper()
	return newTestAppWithConfig(t, nil, cs, ms)
}

// newTestAppWithConfig lets a test adjust the site config before Setup
// builds middleware from it.
func newTestAppWithConfig(t *testing.T, configure func(*SiteConfig), cs ContentService, ms media.Store) *App {
	t.Helper()
	cfg := SiteConfig{
		StaticDir:     t.TempDir(),
		SessionSecret: "test-session-secret",
	}
	if configure != nil {
		configure(&cfg)
	}
	opts := []Option{WithLogger(discardLogger())}
	if cs != nil {
		opts = append(opts, WithContentService(cs))
	} else {
		cfg.DatabasePath = t.TempDir() + "/folio.db"
	}
	if ms != nil {
		opts = append(opts, WithMediaStore(ms))
	}
	app := New(cfg, stubViews(), opts...)
	require.NoError(t, app.Setup(context.Background()))
	t.Cleanup(func() { app.Close() })
	return app
}

func serve(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func get(app *App, target string) *httptest.ResponseRecorder {
	return serve(app, httptest.NewRequest(http.MethodGet, target, nil))
}
