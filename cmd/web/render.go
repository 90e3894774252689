package main

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/curiositycreators/website/internal/format"
	mw "github.com/curiositycreators/website/internal/middleware"
)

var (
	tmplMu    sync.RWMutex
	tmplCache *template.Template
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"now": time.Now,
		"t": func(lang, key string) string {
			if i18nBundle == nil {
				return key
			}
			return i18nBundle.T(lang, key)
		},
		"tf": func(lang, key string, args ...any) string {
			msg := key
			if i18nBundle != nil {
				msg = i18nBundle.T(lang, key)
			}
			return fmt.Sprintf(msg, args...)
		},
		"fmtCurrency": func(amount any, lang string) string {
			switch v := amount.(type) {
			case int:
				return format.FmtCurrency(float64(v), "USD", lang)
			case float64:
				return format.FmtCurrency(v, "USD", lang)
			default:
				return fmt.Sprint(amount)
			}
		},
		"fmtNumber": func(n int, lang string) string { return format.FmtNumber(int64(n), lang) },
		"fmtDate":   format.FmtDate,
		"jsonld":    func(s string) template.JS { return template.JS(s) },
		"add":       func(a, b int) int { return a + b },
		"join":      strings.Join,
		"dict": func(kv ...any) (map[string]any, error) {
			if len(kv)%2 != 0 {
				return nil, errors.New("dict: odd argument count")
			}
			m := make(map[string]any, len(kv)/2)
			for i := 0; i < len(kv); i += 2 {
				k, ok := kv[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict: key %v is not a string", kv[i])
				}
				m[k] = kv[i+1]
			}
			return m, nil
		},
	}
}

func parseTemplates() (*template.Template, error) {
	// Recursively discover and parse all .tmpl files. Note: ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(templatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", templatesDir)
	}
	return template.New("_root").Funcs(templateFuncs()).ParseFiles(files...)
}

func loadTemplates() error {
	tc, err := parseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}
	tmplMu.Lock()
	tmplCache = tc
	tmplMu.Unlock()
	return nil
}

// templates returns the parsed set. In dev mode, templates are reparsed on each request.
func templates() (*template.Template, error) {
	if devMode {
		return parseTemplates()
	}
	tmplMu.RLock()
	defer tmplMu.RUnlock()
	if tmplCache == nil {
		return nil, errors.New("template not initialized")
	}
	return tmplCache, nil
}

// render executes the base layout.
func render(w http.ResponseWriter, r *http.Request, data any) {
	renderTemplate(w, r, http.StatusOK, "base", data)
}

// renderTemplate executes a named template into a buffer so failures can still
// produce a clean 500.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	t, err := templates()
	if err != nil {
		mw.L(r).Error("templates unavailable", zap.Error(err))
		http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		mw.L(r).Error("template exec failed", zap.String("template", name), zap.Error(err))
		http.Error(w, fmt.Sprintf("template exec error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderString executes a named template for streaming.
func renderString(name string, data any) (string, error) {
	t, err := templates()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
