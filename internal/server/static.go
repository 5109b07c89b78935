package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// setupStatic serves the built frontend from StaticDir. Unknown non-API paths
// fall back to index.html so client-side routes resolve.
func (s *Server) setupStatic(app *fiber.App) {
	dir := s.config.StaticDir
	if dir == "" {
		dir = "dist/public"
	}
	index := filepath.Join(dir, "index.html")

	app.Static("/", dir, fiber.Static{Compress: true})
	app.Get("/*", func(c *fiber.Ctx) error {
		if strings.HasPrefix(c.Path(), "/api/") {
			return c.Next()
		}
		if _, err := os.Stat(index); err != nil {
			return c.Status(fiber.StatusNotFound).SendString("Not found")
		}
		return c.SendFile(index)
	})
}
