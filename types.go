package folio

import "time"

// Article is the core content type stored by the content service and rendered by views.
type Article struct {
	ID           string
	Title        string
	Content      string
	Category     string // category reference (the category ID)
	CategoryName string // resolved by the store for display; empty when the category is unknown
	FeatureImage string
	Published    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Link returns the public path of the article page.
func (a Article) Link() string {
	return "/post/" + a.ID
}

// ArticleInput is the write payload for creating or updating an article.
type ArticleInput struct {
	Title        string
	Content      string
	Category     string
	FeatureImage string
	Published    bool
}

// Category groups articles. The gateway only reads categories.
type Category struct {
	ID   string
	Name string
}

// ViewModel is the per-request data handed to a view. Handlers fill only
// the fields the page needs.
type ViewModel struct {
	Title      string
	Articles   []Article
	Categories []Category
	Article    Article
	Message    string
	Flash      string
	Site       SiteInfo
}

// SiteInfo carries the site-wide branding every page needs.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
}
