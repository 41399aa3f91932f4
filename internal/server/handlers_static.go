package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/craftpulse/craftpulse/internal/domain"
	apperrors "github.com/craftpulse/craftpulse/internal/errors"
)

func (s *Server) handleRobots(c echo.Context) error {
	body := fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", s.getBaseURL(c))
	return c.String(http.StatusOK, body)
}

// handleSitemap lists the listing pages. Individual server pages are
// rendered client-side and are not enumerated here.
func (s *Server) handleSitemap(c echo.Context) error {
	count, err := s.repos.Servers.Count(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to count servers", err)
	}

	base := s.getBaseURL(c)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	fmt.Fprintf(&b, "  <url><loc>%s/servers</loc></url>\n", base)
	for page := 2; page <= domain.LastPage(count); page++ {
		fmt.Fprintf(&b, "  <url><loc>%s/servers/%d</loc></url>\n", base, page)
	}
	b.WriteString("</urlset>\n")

	return c.Blob(http.StatusOK, "application/xml", []byte(b.String()))
}
