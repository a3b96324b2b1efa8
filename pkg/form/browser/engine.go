package browser

import (
	"embed"
	"fmt"
	"io/fs"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/render/template/gotemplate"
)

//go:embed templates/*.tpl
var templateFS embed.FS

// Template names used by compound widgets and views.
const (
	SequenceTemplate = "sequence"
	ObjectTemplate   = "object"
	EditTemplate     = "edit"
	WizardTemplate   = "wizard"
)

var (
	defaultRendererOnce sync.Once
	defaultRenderer     template.TemplateRenderer
	defaultRendererErr  error

	logger logrus.FieldLogger = logrus.StandardLogger()
)

// Templates exposes the embedded templates so hosts can layer overrides on
// top of them.
func Templates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return templateFS
	}
	return sub
}

// DefaultRenderer returns the shared renderer over the embedded templates.
func DefaultRenderer() (template.TemplateRenderer, error) {
	defaultRendererOnce.Do(func() {
		defaultRenderer, defaultRendererErr = gotemplate.New(gotemplate.WithFS(Templates()))
		if defaultRendererErr != nil {
			defaultRendererErr = fmt.Errorf("browser: default renderer: %w", defaultRendererErr)
		}
	})
	return defaultRenderer, defaultRendererErr
}

// SetLogger replaces the logger widgets report render failures to.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		logger = l
	}
}

// renderTemplate renders name with r, or the default renderer when r is
// nil. Widgets render into strings, so failures are logged and produce "".
func renderTemplate(r template.TemplateRenderer, name string, data map[string]any) string {
	if r == nil {
		var err error
		if r, err = DefaultRenderer(); err != nil {
			logger.WithError(err).Error("browser: no renderer")
			return ""
		}
	}
	out, err := r.RenderTemplate(name, data)
	if err != nil {
		logger.WithError(err).WithField("template", name).Error("browser: render failed")
		return ""
	}
	return out
}
