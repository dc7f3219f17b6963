package http

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"sync"

	"github.com/dejobratic/confirmdialog/internal/confirmation/app"
	"github.com/dejobratic/confirmdialog/internal/confirmation/domain"
	"github.com/dejobratic/confirmdialog/internal/confirmation/i18n"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	layoutTemplate = "layout"
	dialogTemplate = "dialog"
)

// page is the data passed to the templates.
type page struct {
	app.View
	Lang    string
	Message string
}

// Renderer produces HTML for a dialog view. Views without layout or template
// files use the embedded defaults. Parsed templates are cached per file pair.
type Renderer struct {
	mu    sync.Mutex
	cache map[[2]string]*template.Template
}

func NewRenderer() *Renderer {
	return &Renderer{cache: make(map[[2]string]*template.Template)}
}

// Render writes the page for view in the given language.
func (r *Renderer) Render(w io.Writer, view app.View, tag language.Tag) error {
	base, err := r.templates(view.LayoutFile, view.TemplateFile)
	if err != nil {
		return err
	}

	printer := i18n.Printer(tag)
	tmpl, err := base.Clone()
	if err != nil {
		return fmt.Errorf("clone templates: %w", err)
	}
	tmpl.Funcs(template.FuncMap{"T": translateFunc(printer)})

	data := page{
		View:    view,
		Lang:    tag.String(),
		Message: Message(printer, view),
	}
	if err := tmpl.ExecuteTemplate(w, layoutTemplate, data); err != nil {
		return fmt.Errorf("render dialog: %w", err)
	}
	return nil
}

// Message returns the localized status line for a view.
func Message(printer *message.Printer, view app.View) string {
	switch view.State {
	case domain.StatePrompt:
		return printer.Sprintf(i18n.KeyPrompt, view.Action)
	case domain.StateConfirmed:
		return printer.Sprintf(i18n.KeyConfirmed, view.Action)
	case domain.StateCancelled:
		return printer.Sprintf(i18n.KeyCancelled)
	case domain.StateNotFound:
		return printer.Sprintf(i18n.KeyNotFound)
	default:
		return printer.Sprintf(i18n.KeyError, view.Action)
	}
}

func (r *Renderer) templates(layoutFile, templateFile string) (*template.Template, error) {
	cacheKey := [2]string{layoutFile, templateFile}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[cacheKey]; ok {
		return tmpl, nil
	}

	layoutSource, err := readTemplate(layoutFile, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	dialogSource, err := readTemplate(templateFile, "templates/dialog.html")
	if err != nil {
		return nil, err
	}

	// T is rebound per request on a clone.
	tmpl := template.New(layoutTemplate).Funcs(template.FuncMap{"T": translateFunc(i18n.Printer(i18n.Default()))})
	if _, err := tmpl.Parse(layoutSource); err != nil {
		return nil, fmt.Errorf("parse layout template: %w", err)
	}
	if _, err := tmpl.New(dialogTemplate).Parse(dialogSource); err != nil {
		return nil, fmt.Errorf("parse dialog template: %w", err)
	}

	r.cache[cacheKey] = tmpl
	return tmpl, nil
}

func readTemplate(path, fallback string) (string, error) {
	if path == "" {
		data, err := templateFS.ReadFile(fallback)
		if err != nil {
			return "", fmt.Errorf("read embedded template %s: %w", fallback, err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read template %s: %w", path, err)
	}
	return string(data), nil
}

func translateFunc(printer *message.Printer) func(string, ...any) string {
	return func(key string, args ...any) string {
		return printer.Sprintf(key, args...)
	}
}
