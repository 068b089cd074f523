package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"log/slog"

	"github.com/aretw0/loam"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
)

// Catalog serves node templates from a flat-file repository, falling back
// to the built-in set for names no file defines. Files win over built-ins
// of the same name, so a project can restyle the stock templates.
type Catalog struct {
	repo    *loam.TypedRepository[TemplateSpec]
	builtin map[string]domain.Template
	logger  *slog.Logger
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Catalog) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open initializes a read-only catalog over the template directory at path.
func Open(path string, opts ...Option) (*Catalog, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve template path: %w", err)
	}

	// Strict mode keeps numeric frontmatter types consistent across the
	// JSON and YAML adapters. The catalog never writes template files.
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize template repository: %w", err)
	}

	return New(loam.NewTypedRepository[TemplateSpec](repo), opts...), nil
}

// New wraps an existing typed repository. A nil repo serves built-ins only.
func New(repo *loam.TypedRepository[TemplateSpec], opts ...Option) *Catalog {
	c := &Catalog{
		repo:    repo,
		builtin: domain.BuiltinTemplates(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Builtins returns a catalog with no file repository behind it.
func Builtins(opts ...Option) *Catalog {
	return New(nil, opts...)
}

// Get retrieves a template by name. File templates are addressed by their
// path relative to the catalog root, without extension.
func (c *Catalog) Get(ctx context.Context, name string) (domain.Template, error) {
	if c.repo != nil {
		doc, err := c.repo.Get(ctx, name)
		if err == nil {
			tpl, buildErr := buildTemplate(name, doc.Data, doc.Content)
			if buildErr != nil {
				return domain.Template{}, fmt.Errorf("template %s: %w", name, buildErr)
			}
			return tpl, nil
		}
		c.logger.DebugContext(ctx, "template not in file catalog, trying built-ins",
			"template", name, "err", err)
	}

	if tpl, ok := c.builtin[name]; ok {
		return tpl, nil
	}
	return domain.Template{}, fmt.Errorf("template %s: %w", name, domain.ErrTemplateNotFound)
}

// List returns every available template name, file templates and built-ins
// merged, in lexical order.
func (c *Catalog) List(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{}, len(c.builtin))
	names := make([]string, 0, len(c.builtin))

	for name := range c.builtin {
		seen[name] = struct{}{}
		names = append(names, name)
	}

	if c.repo != nil {
		docs, err := c.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list templates: %w", err)
		}
		for _, doc := range docs {
			id := trimExtension(doc.ID)
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			names = append(names, id)
		}
	}

	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable over the template directory.
func (c *Catalog) Watch(ctx context.Context) (<-chan string, error) {
	if c.repo == nil {
		return nil, fmt.Errorf("built-in catalog has nothing to watch")
	}

	events, err := c.repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start template watcher: %w", err)
	}

	ch := make(chan string, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

// FromSpec builds a placeable template from an in-memory spec, the same
// construction file templates go through. Callers with loosely-typed specs
// (frontmatter maps, tool arguments) decode them into a TemplateSpec first.
func FromSpec(spec TemplateSpec) (domain.Template, error) {
	return buildTemplate(spec.Name, spec, "")
}

// buildTemplate turns a spec plus the file body into a placeable template.
// The result carries placeholder ids; Instantiate stamps real ones.
func buildTemplate(name string, spec TemplateSpec, body string) (domain.Template, error) {
	node, err := specNode(spec, strings.TrimSpace(body))
	if err != nil {
		return domain.Template{}, err
	}
	if err := checkNesting(node); err != nil {
		return domain.Template{}, err
	}

	displayName := spec.Name
	if displayName == "" {
		displayName = name
	}
	return domain.Template{Name: displayName, Node: node}, nil
}

func specNode(spec TemplateSpec, body string) (domain.Node, error) {
	kind, ok := domain.ParseKind(spec.Kind)
	if !ok {
		return domain.Node{}, fmt.Errorf("unknown node kind %q", spec.Kind)
	}
	if kind == domain.KindDocument {
		return domain.Node{}, fmt.Errorf("templates cannot contain a document root")
	}

	n := domain.Blank(kind)
	n.Name = spec.Name

	if n.Text != nil {
		if spec.Text != "" {
			n.Text.Content = spec.Text
		}
		if body != "" {
			n.Text.Content = body
		}
		if spec.Level > 0 {
			n.Text.Level = spec.Level
		}
	}
	if n.Image != nil {
		n.Image.URL = spec.URL
		n.Image.Alt = spec.Alt
	}
	if n.Control != nil {
		if spec.Label != "" {
			n.Control.Label = spec.Label
		}
		if spec.Value != "" {
			n.Control.Value = spec.Value
		}
		if spec.Placeholder != "" {
			n.Control.Placeholder = spec.Placeholder
		}
		if spec.Checked {
			n.Control.Checked = true
		}
		if spec.Rows > 0 {
			n.Control.Rows = spec.Rows
		}
		if spec.Group != "" {
			n.Control.Group = spec.Group
		}
	}

	if len(spec.Children) > 0 {
		children := make([]domain.Node, 0, len(spec.Children))
		for i, childSpec := range spec.Children {
			child, err := specNode(childSpec, "")
			if err != nil {
				return domain.Node{}, fmt.Errorf("children[%d]: %w", i, err)
			}
			children = append(children, child)
		}
		n.Children = children
	}

	return n, nil
}

// checkNesting rejects templates whose structure the placement rules would
// refuse anyway, so authors hear about it at load time instead of at every
// insert.
func checkNesting(n domain.Node) error {
	for _, child := range n.Children {
		if !domain.CanContain(n.Kind, child.Kind) {
			return fmt.Errorf("%s may not contain %s", n.Kind, child.Kind)
		}
		if err := checkNesting(child); err != nil {
			return err
		}
	}
	return nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
