package folio

import (
	"encoding/xml"
	"net/http"

	"github.com/labstack/echo/v4"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

func (a *App) renderSitemap(c echo.Context, articles []Article) error {
	base := a.Config.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base, "about")},
		{Loc: BuildURL(base, "articles")},
		{Loc: BuildURL(base, "categories")},
	}
	for _, art := range articles {
		lastMod := art.UpdatedAt
		if lastMod.IsZero() {
			lastMod = art.CreatedAt
		}
		u := sitemapURL{Loc: BuildURL(base, "post", art.ID)}
		if !lastMod.IsZero() {
			u.LastMod = lastMod.UTC().Format("2006-01-02")
		}
		urls = append(urls, u)
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(sitemap)
}
