package mailer

import (
	"embed"
	"path"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/goliatone/go-errors"
)

//go:embed templates/*.html
var templatesFS embed.FS

const TextCodeUnknownTemplate = "MAIL_UNKNOWN_TEMPLATE"

// Subjects maps a template name to the email subject line
var Subjects = map[string]string{
	"invite": "You have been invited",
}

// TemplateManager renders the embedded email templates
type TemplateManager struct {
	mu    sync.RWMutex
	cache map[string]*pongo2.Template
}

func NewTemplateManager() *TemplateManager {
	return &TemplateManager{
		cache: make(map[string]*pongo2.Template),
	}
}

// Subject returns the subject for name or an error if name is unknown
func Subject(name string) (string, error) {
	subject, ok := Subjects[name]
	if !ok {
		return "", errors.New("invalid email type", errors.CategoryBadInput).
			WithTextCode(TextCodeUnknownTemplate).
			WithMetadata(map[string]any{"template": name})
	}
	return subject, nil
}

// Render executes the template called name with data
func (m *TemplateManager) Render(name string, data map[string]any) (string, error) {
	tpl, err := m.load(name)
	if err != nil {
		return "", err
	}

	out, err := tpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to render email template").
			WithMetadata(map[string]any{"template": name})
	}

	return out, nil
}

func (m *TemplateManager) load(name string) (*pongo2.Template, error) {
	m.mu.RLock()
	tpl, ok := m.cache[name]
	m.mu.RUnlock()
	if ok {
		return tpl, nil
	}

	raw, err := templatesFS.ReadFile(path.Join("templates", name+".html"))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryNotFound, "email template not found").
			WithTextCode(TextCodeUnknownTemplate).
			WithMetadata(map[string]any{"template": name})
	}

	tpl, err = pongo2.FromString(string(raw))
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to parse email template").
			WithMetadata(map[string]any{"template": name})
	}

	m.mu.Lock()
	m.cache[name] = tpl
	m.mu.Unlock()

	return tpl, nil
}
