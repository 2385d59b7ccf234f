package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"

	"github.com/npezzotti/polyglot-chat/internal/types"
)

//go:embed templates
var templateFS embed.FS

var pageTemplates = mustTemplateCache()

type languageOption struct {
	Tag  string
	Name string
}

var languageOptions = []languageOption{
	{Tag: "en", Name: "English"},
	{Tag: "fr", Name: "French"},
	{Tag: "es", Name: "Spanish"},
	{Tag: "de", Name: "German"},
	{Tag: "it", Name: "Italian"},
	{Tag: "pt", Name: "Portuguese"},
	{Tag: "ru", Name: "Russian"},
	{Tag: "ar", Name: "Arabic"},
	{Tag: "hi", Name: "Hindi"},
	{Tag: "ja", Name: "Japanese"},
	{Tag: "ko", Name: "Korean"},
	{Tag: "zh-CN", Name: "Chinese (Simplified)"},
}

type homePage struct {
	Error     string
	Name      string
	Code      string
	Language  string
	Languages []languageOption
}

type roomPage struct {
	Code     string
	Name     string
	Language string
	Messages []types.Message
}

func newTemplateCache(fsys fs.FS) (map[string]*template.Template, error) {
	tmplCache := make(map[string]*template.Template)

	pages, err := fs.Glob(fsys, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		name := path.Base(page)
		ts, err := template.New(name).ParseFS(fsys, "templates/base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}

		tmplCache[name] = ts
	}

	return tmplCache, nil
}

func mustTemplateCache() map[string]*template.Template {
	tc, err := newTemplateCache(templateFS)
	if err != nil {
		panic(err)
	}
	return tc
}

// render executes page into a buffer first so a template error never
// leaves a half written response.
func (s *ChatApp) render(w http.ResponseWriter, status int, page string, data any) {
	ts, ok := s.templates[page]
	if !ok {
		errResp := NewInternalServerError(fmt.Errorf("template %q not in cache", page))
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		s.log.Printf("render %s: %v", page, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
