package handlers

import (
	"net/http"

	"downsub/internal/version"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

// Home reports that the service is up
func Home(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "subtitle extractor service running",
	})
}

// Health reports the service status and build version
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.Version,
	})
}

func render(c echo.Context, component templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	return component.Render(c.Request().Context(), c.Response())
}
