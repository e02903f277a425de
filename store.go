package folio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// timeLayout is fixed-width UTC so text comparison orders chronologically
// in both dialects.
const timeLayout = "2006-01-02T15:04:05Z"

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// Store wraps a SQL database and implements ContentService for articles and
// categories. SQLite is the default; Postgres is used through pgx.
type Store struct {
	db      *sql.DB
	dialect dialect
	now     func() time.Time
}

var _ ContentService = (*Store)(nil)

// OpenStore opens the store selected by cfg.DatabaseDriver.
func OpenStore(cfg SiteConfig) (*Store, error) {
	if cfg.DatabaseDriver == DriverPostgres {
		return NewPostgresStore(cfg.DatabaseURL)
	}
	return NewStore(cfg.DatabasePath)
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed during writes; busy_timeout makes writers
	// wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := newStoreFromDB(db, dialectSQLite)
	if err := s.ensureSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore connects to Postgres using the pgx database/sql driver
// and creates the schema.
func NewPostgresStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := newStoreFromDB(db, dialectPostgres)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func newStoreFromDB(db *sql.DB, d dialect) *Store {
	return &Store{db: db, dialect: d, now: time.Now}
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    feature_image TEXT NOT NULL DEFAULT '',
    published INTEGER NOT NULL DEFAULT 0,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category)`,
	}
	if s.dialect == dialectPostgres {
		stmts[0] = `CREATE TABLE IF NOT EXISTS categories (
    id BIGINT PRIMARY KEY,
    name TEXT NOT NULL
)`
		stmts[1] = `CREATE TABLE IF NOT EXISTS articles (
    id BIGSERIAL PRIMARY KEY,
    title TEXT NOT NULL,
    content TEXT NOT NULL,
    category TEXT NOT NULL,
    feature_image TEXT NOT NULL DEFAULT '',
    published BOOLEAN NOT NULL DEFAULT FALSE,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
)`
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensureSchema: %w", err)
		}
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const articleColumns = `a.id, a.title, a.content, a.category, COALESCE(c.name, ''), a.feature_image, a.published, a.created_at, a.updated_at`

const articleFrom = `FROM articles a LEFT JOIN categories c ON CAST(c.id AS TEXT) = a.category`

const articleOrder = `ORDER BY a.created_at DESC, a.id DESC`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (Article, error) {
	var (
		id               int64
		a                Article
		created, updated string
	)
	if err := row.Scan(&id, &a.Title, &a.Content, &a.Category, &a.CategoryName,
		&a.FeatureImage, &a.Published, &created, &updated); err != nil {
		return Article{}, err
	}
	a.ID = strconv.FormatInt(id, 10)
	a.CreatedAt, _ = time.Parse(timeLayout, created)
	a.UpdatedAt, _ = time.Parse(timeLayout, updated)
	return a, nil
}

func (s *Store) queryArticles(ctx context.Context, op, where string, args ...any) ([]Article, error) {
	query := "SELECT " + articleColumns + " " + articleFrom
	if where != "" {
		query += " WHERE " + where
	}
	query += " " + articleOrder
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	articles := make([]Article, 0)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return articles, nil
}

// PublishedArticles returns published articles, newest first.
func (s *Store) PublishedArticles(ctx context.Context) ([]Article, error) {
	return s.queryArticles(ctx, "PublishedArticles", "a.published = ?", true)
}

// Posts returns every article, drafts included, newest first.
func (s *Store) Posts(ctx context.Context) ([]Article, error) {
	return s.queryArticles(ctx, "Posts", "")
}

// PostsByCategory returns every article whose category reference equals category.
func (s *Store) PostsByCategory(ctx context.Context, category string) ([]Article, error) {
	return s.queryArticles(ctx, "PostsByCategory", "a.category = ?", strings.TrimSpace(category))
}

// PostsByMinDate returns articles created on or after minDate
// (YYYY-MM-DD or RFC3339).
func (s *Store) PostsByMinDate(ctx context.Context, minDate string) ([]Article, error) {
	t, err := parseMinDate(minDate)
	if err != nil {
		return nil, err
	}
	return s.queryArticles(ctx, "PostsByMinDate", "a.created_at >= ?", t.UTC().Format(timeLayout))
}

// PostByID returns one article regardless of its published flag.
func (s *Store) PostByID(ctx context.Context, id string) (Article, error) {
	n, err := parseID(id)
	if err != nil {
		return Article{}, err
	}
	query := "SELECT " + articleColumns + " " + articleFrom + " WHERE a.id = ?"
	a, err := scanArticle(s.db.QueryRowContext(ctx, s.rebind(query), n))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Article{}, fmt.Errorf("PostByID %s: %w", id, ErrNotFound)
		}
		return Article{}, fmt.Errorf("PostByID: %w", err)
	}
	return a, nil
}

// AddArticle inserts a new article and returns it with its assigned ID.
func (s *Store) AddArticle(ctx context.Context, in ArticleInput) (Article, error) {
	return s.insertArticle(ctx, "AddArticle", in, s.now())
}

func (s *Store) insertArticle(ctx context.Context, op string, in ArticleInput, created time.Time) (Article, error) {
	ts := created.UTC().Truncate(time.Second)
	stamp := ts.Format(timeLayout)
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`INSERT INTO articles (title, content, category, feature_image, published, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		in.Title, in.Content, in.Category, in.FeatureImage, in.Published, stamp, stamp).Scan(&id)
	if err != nil {
		return Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return Article{
		ID:           strconv.FormatInt(id, 10),
		Title:        in.Title,
		Content:      in.Content,
		Category:     in.Category,
		FeatureImage: in.FeatureImage,
		Published:    in.Published,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}, nil
}

// UpdateArticle overwrites the editable fields of an existing article.
func (s *Store) UpdateArticle(ctx context.Context, id string, in ArticleInput) (Article, error) {
	n, err := parseID(id)
	if err != nil {
		return Article{}, err
	}
	stamp := s.now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE articles
SET title = ?, content = ?, category = ?, feature_image = ?, published = ?, updated_at = ?
WHERE id = ?`),
		in.Title, in.Content, in.Category, in.FeatureImage, in.Published, stamp, n)
	if err != nil {
		return Article{}, fmt.Errorf("UpdateArticle: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return Article{}, fmt.Errorf("UpdateArticle %s: %w", id, ErrNotFound)
	}
	return s.PostByID(ctx, id)
}

// DeleteArticle removes an article. Deleting an unknown ID fails with ErrNotFound.
func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM articles WHERE id = ?`), n)
	if err != nil {
		return fmt.Errorf("DeleteArticle: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("DeleteArticle %s: %w", id, ErrNotFound)
	}
	return nil
}

// Categories returns all categories ordered by ID.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("Categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var (
			id   int64
			name string
		)
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("Categories: scan: %w", err)
		}
		categories = append(categories, Category{ID: strconv.FormatInt(id, 10), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("Categories: %w", err)
	}
	return categories, nil
}

// SaveCategories upserts categories by ID.
func (s *Store) SaveCategories(ctx context.Context, categories []Category) error {
	for _, c := range categories {
		id, err := strconv.ParseInt(strings.TrimSpace(c.ID), 10, 64)
		if err != nil {
			return fmt.Errorf("SaveCategories: category id %q: %w", c.ID, err)
		}
		if _, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO categories (id, name) VALUES (?, ?)
ON CONFLICT (id) DO UPDATE SET name = excluded.name`), id, c.Name); err != nil {
			return fmt.Errorf("SaveCategories: %w", err)
		}
	}
	return nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("article id %q: %w", id, ErrNotFound)
	}
	return n, nil
}

func parseMinDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q (use YYYY-MM-DD)", ErrInvalidDate, v)
}
