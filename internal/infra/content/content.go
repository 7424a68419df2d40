// Package content renders the embedded training modules from markdown.
package content

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strings"

	"github.com/boddenberg/sales-onboarding-bfa-go/internal/domain"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed modules/*.md
var modulesFS embed.FS

type page struct {
	title string
	html  string
}

// Library holds the pre-rendered modules. Implements port.ContentProvider.
type Library struct {
	pages map[string]page
}

// Load renders every embedded module once.
func Load() (*Library, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	entries, err := modulesFS.ReadDir("modules")
	if err != nil {
		return nil, err
	}

	lib := &Library{pages: make(map[string]page, len(entries))}
	for _, e := range entries {
		src, err := modulesFS.ReadFile("modules/" + e.Name())
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := md.Convert(src, &buf); err != nil {
			return nil, fmt.Errorf("render %s: %w", e.Name(), err)
		}
		lib.pages[strings.TrimSuffix(e.Name(), ".md")] = page{title: firstHeading(src), html: buf.String()}
	}
	return lib, nil
}

// Module returns the title and HTML of a module. The role module resolves
// to the variant of role.
func (l *Library) Module(module domain.TrainingModule, role domain.Role) (string, string, error) {
	key := string(module)
	if module == domain.ModuleRole {
		if !role.Valid() {
			return "", "", &domain.ErrValidation{Field: "role", Message: "a role is required for the role module"}
		}
		key = string(role)
	}
	p, ok := l.pages[key]
	if !ok {
		return "", "", &domain.ErrNotFound{Resource: "training module", ID: key}
	}
	return p.title, p.html, nil
}

func firstHeading(src []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(src))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
