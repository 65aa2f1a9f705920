package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"vibewall/internal/models"

	"github.com/gofiber/fiber/v2"
)

//go:embed templates/*.html templates/style.css
var templateFS embed.FS

// pageData is what every page template receives.
type pageData struct {
	Title  string
	User   *models.UserProfile
	UserID uint
	Flash  string
	Error  string
	Flags  map[string]bool
	Body   any
}

type renderer struct {
	pages map[string]*template.Template
	css   []byte
}

var templateFuncs = template.FuncMap{
	"avatarURL": func(userID uint) string {
		return fmt.Sprintf("/avatar/%d", userID)
	},
	"when": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("2 Jan 2006 15:04")
	},
	"inc": func(n int) int { return n + 1 },
}

func newRenderer() (*renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		if name == "templates/layout.html" {
			continue
		}
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		page := name[len("templates/") : len(name)-len(".html")]
		r.pages[page] = t
	}
	r.css, err = templateFS.ReadFile("templates/style.css")
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *renderer) execute(page string, data pageData) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) render(c *fiber.Ctx, status int, page string, data pageData) error {
	if data.Flags == nil {
		data.Flags = s.featureFlags.For(data.UserID)
	}
	out, err := s.pages.execute(page, data)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", page, err)
	}
	c.Type("html", "utf-8")
	return c.Status(status).Send(out)
}

// Stylesheet serves the embedded CSS.
func (s *Server) Stylesheet(c *fiber.Ctx) error {
	c.Type("css", "utf-8")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(s.pages.css)
}
