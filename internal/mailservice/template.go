package mailservice

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
)

//go:embed templates/*.html
var templateFS embed.FS

// blocks every notification template must define, in the order ParseTemplate
// returns them.
var blocks = [...]string{"subject", "plainBody", "htmlBody"}

// NewTemplate parses every embedded template once.
func NewTemplate() (*Template, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	tp := &Template{sets: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := template.New("email").ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %s: %w", name, err)
		}

		for _, block := range blocks {
			if t.Lookup(block) == nil {
				return nil, fmt.Errorf("template %s does not define %q", name, block)
			}
		}

		tp.sets[path.Base(name)] = t
	}

	return tp, nil
}

// ParseTemplate renders the subject, plainBody and htmlBody blocks of the named
// template with data.
func (tp *Template) ParseTemplate(name string, data any) (*bytes.Buffer, *bytes.Buffer, *bytes.Buffer, error) {
	t, ok := tp.sets[name]
	if !ok {
		return nil, nil, nil, fmt.Errorf("unknown template %q", name)
	}

	var out [len(blocks)]*bytes.Buffer
	for i, block := range blocks {
		out[i] = new(bytes.Buffer)
		if err := t.ExecuteTemplate(out[i], block, data); err != nil {
			return nil, nil, nil, fmt.Errorf("could not render %s of %s: %w", block, name, err)
		}
	}

	return out[0], out[1], out[2], nil
}
