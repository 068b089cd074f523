package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// TemplateSource defines how the editor retrieves node templates.
// This allows the template catalog (flat files, built-ins, remote) to be
// decoupled from editing.
type TemplateSource interface {
	// Get retrieves a template by name.
	// Returns domain.ErrTemplateNotFound if the name is unknown.
	Get(ctx context.Context, name string) (domain.Template, error)

	// List returns the available template names.
	List(ctx context.Context) ([]string, error)
}
