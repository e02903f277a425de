package folio

import (
	"encoding/xml"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string        `xml:"title"`
	Link        string        `xml:"link"`
	Description string        `xml:"description"`
	Category    string        `xml:"category,omitempty"`
	Enclosure   *rssEnclosure `xml:"enclosure,omitempty"`
	PubDate     string        `xml:"pubDate"`
	GUID        string        `xml:"guid"`
}

type rssEnclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// featureEnclosure describes a feature image as an RSS enclosure. The media
// type comes from the link's extension; links without a known image
// extension get no enclosure. The byte size is not stored, so length is 0.
func featureEnclosure(base, link string) *rssEnclosure {
	abs := absoluteURL(base, link)
	p := abs
	if u, err := url.Parse(abs); err == nil {
		p = u.Path
	}
	typ := mime.TypeByExtension(strings.ToLower(path.Ext(p)))
	if typ == "" || !strings.HasPrefix(typ, "image/") {
		return nil
	}
	return &rssEnclosure{URL: abs, Length: "0", Type: typ}
}

const rssSummaryLen = 280

func (a *App) renderRSS(c echo.Context, articles []Article) error {
	base := a.Config.URL
	items := make([]rssItem, 0, len(articles))
	for _, art := range articles {
		link := BuildURL(base, "post", art.ID)
		item := rssItem{
			Title:       art.Title,
			Link:        link,
			Description: Excerpt(art.Content, rssSummaryLen),
			Category:    art.CategoryName,
			PubDate:     art.CreatedAt.UTC().Format(time.RFC1123Z),
			GUID:        link,
		}
		if art.FeatureImage != "" {
			item.Enclosure = featureEnclosure(base, art.FeatureImage)
		}
		items = append(items, item)
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        base,
			Description: a.Config.Description,
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	if _, err := c.Response().Write([]byte(xml.Header)); err != nil {
		return err
	}
	return xml.NewEncoder(c.Response()).Encode(feed)
}
