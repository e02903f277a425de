// Package folio is a server-rendered content site built with Go, Echo, and templ.
// Visitors browse published articles and categories; an editor creates,
// updates, and deletes articles with an optional feature image.
//
// Users provide their own templ components via the ViewFuncs struct, and
// folio handles routing, middleware, persistence, and image uploads.
package folio

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/a-h/templ"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/folio/media"
)

// ViewFuncs holds the components rendered for each page. Every page
// receives the same ViewModel; handlers fill only the fields it uses.
type ViewFuncs struct {
	About      func(vm ViewModel) templ.Component
	Home       func(vm ViewModel) templ.Component
	Articles   func(vm ViewModel) templ.Component
	Categories func(vm ViewModel) templ.Component
	AddArticle func(vm ViewModel) templ.Component
	Article    func(vm ViewModel) templ.Component
	Modify     func(vm ViewModel) templ.Component
	NotFound   func(vm ViewModel) templ.Component
}

// App is the content gateway. It wires together the content service,
// object store, handlers, middleware, and user-provided views.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Content ContentService
	Media   media.Store
	Views   ViewFuncs
	Logger  *slog.Logger

	store        *Store
	registry     *prometheus.Registry
	customRoutes []func(*App)
	ready        bool
}

// New creates an App with the given configuration and views.
func New(cfg SiteConfig, views ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:   cfg,
		Echo:     echo.New(),
		Views:    views,
		registry: prometheus.NewRegistry(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true

	for _, opt := range opts {
		opt(a)
	}
	if a.Logger == nil {
		a.Logger = slog.Default()
	}
	return a
}

// Setup opens the content store and object store (unless supplied through
// options) and registers middleware and routes. Start calls it; tests call
// it directly and drive a.Echo with httptest.
func (a *App) Setup(ctx context.Context) error {
	if a.ready {
		return nil
	}
	if err := a.Config.validate(); err != nil {
		return err
	}

	if a.Content == nil {
		store, err := OpenStore(a.Config)
		if err != nil {
			return err
		}
		a.store = store
		a.Content = store
	}

	if a.Media == nil {
		mcfg := a.Config.Media
		if mcfg.LocalDir == "" {
			mcfg.LocalDir = filepath.Join(a.Config.StaticDir, "uploads")
		}
		if mcfg.LocalURLPrefix == "" {
			mcfg.LocalURLPrefix = "/public/uploads"
		}
		ms, err := media.New(ctx, mcfg)
		if err != nil {
			return err
		}
		a.Media = ms
	}
	if _, ok := a.Media.(media.Unconfigured); ok {
		a.Logger.Warn("object store credentials missing; feature image uploads are disabled")
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.ready = true
	return nil
}

// Start sets the app up and serves HTTP until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(context.Background()); err != nil {
		return err
	}
	srv := a.Echo.Server
	srv.ReadTimeout = a.Config.ReadTimeout
	srv.WriteTimeout = a.Config.WriteTimeout
	srv.IdleTimeout = a.Config.IdleTimeout

	a.Logger.Info("http server listening", slog.String("addr", a.Config.Addr))
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones to finish.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

// Close releases the store opened by Setup. A content service supplied
// through WithContentService is left to its owner.
func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.GET("/", a.handleAbout)
	e.GET("/about", a.handleAbout)
	e.GET("/home", a.handleHome)
	e.GET("/articles", a.handleArticles)
	e.GET("/categories", a.handleCategories)
	e.GET("/articles/add", a.handleAddArticleForm)
	e.POST("/articles/add", a.handleAddArticle)
	e.GET("/posts", a.handlePosts)
	e.GET("/post/:id", a.handlePost)
	e.GET("/article/:id/modify", a.handleModifyForm)
	e.POST("/article/:id/update", a.handleUpdateArticle)
	e.POST("/article/:id/delete", a.handleDeleteArticle)
	e.GET("/favicon.ico", handleFavicon)

	// Embedded default stylesheet; everything else under /public comes
	// from the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/site.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.Static("/public", a.Config.StaticDir)

	e.GET("/healthz", a.handleHealth)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: prometheus.Gatherers{a.registry, prometheus.DefaultGatherer},
	}))
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
}
