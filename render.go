package folio

import (
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}

// renderView renders the page produced by view. A page the user left unset
// in ViewFuncs falls back to its title as plain text.
func renderView(c echo.Context, code int, view func(ViewModel) templ.Component, vm ViewModel) error {
	if view == nil {
		return c.String(code, vm.Title)
	}
	return RenderStatus(c, code, view(vm))
}

// page starts a view model with site branding and any pending flash message.
func (a *App) page(c echo.Context, title string) ViewModel {
	return ViewModel{
		Title: title,
		Flash: popFlash(c),
		Site: SiteInfo{
			Name:        a.Config.Name,
			URL:         a.Config.URL,
			Description: a.Config.Description,
		},
	}
}
