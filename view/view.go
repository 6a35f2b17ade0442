// Package view renders the html/template pages with the shared layout.
package view

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/diewo77/go-school/auth"
	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/i18n"
)

var (
	baseDir  string
	once     sync.Once
	devMode  bool
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	langResolver  = func(_ *http.Request) string { return i18n.Default }
	themeResolver = func(_ *http.Request) string { return "system" }
	// canResolver can be set by the host app to let templates check table permissions.
	canResolver func(*http.Request, string, string) bool
)

// partials are parsed with every page that uses the layout, when present.
var partials = []string{
	"header.html",
	"flash.html",
	"errors-alert.html",
	"pagination.html",
}

// SetDev toggles template reloading on every render.
func SetDev(dev bool) { devMode = dev }

// SetLangResolver allows the host app to provide a custom language resolver (e.g., reading from context).
func SetLangResolver(f func(*http.Request) string) {
	if f != nil {
		langResolver = f
	}
}

// SetThemeResolver allows the host app to provide a custom theme resolver.
func SetThemeResolver(f func(*http.Request) string) {
	if f != nil {
		themeResolver = f
	}
}

// SetCanResolver sets a callback used by templates to check (resource, action) permissions.
func SetCanResolver(f func(*http.Request, string, string) bool) {
	if f != nil {
		canResolver = f
	}
}

// layoutBase walks upward from a template path to find the directory that contains layout.html.
// If none is found, it returns the template's own directory.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		lp := filepath.Join(d, "layout.html")
		if fi, err := os.Stat(lp); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d { // reached filesystem root
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates", "../../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Join(c, "layout.html")); err == nil && !fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// profileOf returns the settled profile of the request, if any.
func profileOf(r *http.Request) *gate.Profile {
	p, _ := auth.ProfileFromContext(r.Context())
	return p
}

// Funcs returns the standard func map including i18n and simple helpers.
// A nil request yields placeholders, used when parsing.
func Funcs(r *http.Request) template.FuncMap {
	lang, theme := i18n.Default, "system"
	var prof *gate.Profile
	if r != nil {
		lang = langResolver(r)
		theme = themeResolver(r)
		prof = profileOf(r)
	}
	return template.FuncMap{
		"t":     func(code string) string { return i18n.T(lang, code) },
		"lang":  func() string { return lang },
		"theme": func() string { return theme },
		// can checks the grant table for (resource, action) -> bool
		"can": func(resource string, action string) bool {
			if canResolver == nil || r == nil {
				return false
			}
			return canResolver(r, resource, action)
		},
		"role": func() string {
			if prof == nil {
				return ""
			}
			return string(prof.Role)
		},
		"isStaff":   func() bool { return prof != nil && prof.Role.IsStaff() },
		"dashboard": func() string {
			if prof == nil {
				return gate.DefaultDashboard
			}
			return gate.DashboardPath(prof.Role)
		},
		"tables": func() []string { return gate.Tables },
		"year":   func() int { return time.Now().Year() },
		"asset":  func(path string) string { return assetURL(path) },
		"money":  formatCents,
		"date":   formatDate,
		"add":    func(a, b int) int { return a + b },
		// dict creates a map from key-value pairs for passing to sub-templates.
		// Usage: {{ template "partial" (dict "Key1" val1 "Key2" val2) }}
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// formatCents renders an amount in cents with two decimals, e.g. 1234.50.
func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	default:
		return ""
	}
}

var assetVersions = struct {
	sync.Mutex
	m map[string]string
}{m: map[string]string{}}

// assetURL returns /static/<rel>?v=<hash> for cache busting. Hashes are
// cached outside dev mode; a missing file yields the bare path.
func assetURL(rel string) string {
	if strings.HasPrefix(rel, "http://") || strings.HasPrefix(rel, "https://") || strings.HasPrefix(rel, "//") {
		return rel
	}
	if !devMode {
		assetVersions.Lock()
		u, ok := assetVersions.m[rel]
		assetVersions.Unlock()
		if ok {
			return u
		}
	}
	u := "/static/" + rel
	if b, err := os.ReadFile(filepath.Join("static", rel)); err == nil {
		h := sha1.Sum(b)
		u += "?v=" + hex.EncodeToString(h[:8])
	}
	if !devMode {
		assetVersions.Lock()
		assetVersions.m[rel] = u
		assetVersions.Unlock()
	}
	return u
}

// parse loads name with the layout and partials. Template funcs are bound to
// placeholders; Render rebinds them per request.
func parse(name string) (*template.Template, error) {
	if baseDir == "" {
		once.Do(detectBase)
	}
	mainPath := filepath.Join(baseDir, name)
	contentBytes, err := os.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	root := layoutBase(mainPath)
	layoutPath := filepath.Join(root, "layout.html")
	if bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype")) {
		// Full document provided; skip layout wrapping.
		return template.New(filepath.Base(name)).Funcs(Funcs(nil)).ParseFiles(mainPath)
	}
	if fi, err := os.Stat(layoutPath); err != nil || fi.IsDir() {
		return template.New(filepath.Base(name)).Funcs(Funcs(nil)).ParseFiles(mainPath)
	}
	files := []string{layoutPath, mainPath}
	for _, p := range partials {
		pp := filepath.Join(root, "partials", p)
		if fi, err := os.Stat(pp); err == nil && !fi.IsDir() {
			files = append(files, pp)
		}
	}
	return template.New("layout.html").Funcs(Funcs(nil)).ParseFiles(files...)
}

func lookup(name string) (*template.Template, error) {
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[name]
		tplCache.RUnlock()
		if ok {
			return t, nil
		}
	}
	t, err := parse(name)
	if err != nil {
		return nil, err
	}
	if !devMode {
		tplCache.Lock()
		tplCache.m[name] = t
		tplCache.Unlock()
	}
	return t, nil
}

// Render parses and executes a template file with shared funcs and status 200.
// name is relative to the templates root (e.g., "dashboard.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	return RenderStatus(w, r, http.StatusOK, name, data)
}

// RenderStatus is Render with an explicit status code. The page is rendered
// to a buffer first so a template error never leaves a half-written response.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error {
	// Ensure data map exists and inject common defaults to avoid template errors.
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["Year"]; !exists {
		data["Year"] = time.Now().Year()
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		_, loggedIn := auth.UserIDFromContext(r.Context())
		data["IsLoggedIn"] = loggedIn
	}

	base, err := lookup(name)
	if err != nil {
		return err
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := t.Funcs(Funcs(r)).Execute(&buf, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	return err
}

// Error renders error.html with the translated message for code. It falls
// back to a plain-text answer when the template cannot be rendered.
func Error(w http.ResponseWriter, r *http.Request, status int, code string) {
	data := map[string]any{
		"Title":   http.StatusText(status),
		"Status":  status,
		"Message": i18n.T(langResolver(r), code),
	}
	if err := RenderStatus(w, r, status, "error.html", data); err != nil {
		http.Error(w, http.StatusText(status), status)
	}
}
