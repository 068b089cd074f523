package ports

import (
	"context"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
)

// DocumentInfo is the listing row a store returns without loading whole
// trees.
type DocumentInfo struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentStore defines the interface for persisting whole documents.
// Documents pass by value: a store never holds references into a caller's
// tree, and loads hand back an independent value.
type DocumentStore interface {
	// Save persists the document under the given ID, creating or
	// replacing it.
	Save(ctx context.Context, id string, doc domain.Document) error

	// Load retrieves a document by ID.
	// Returns domain.ErrDocumentNotFound if it does not exist.
	Load(ctx context.Context, id string) (domain.Document, error)

	// Delete removes the document. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns a summary row per stored document.
	List(ctx context.Context) ([]DocumentInfo, error)
}

// Watchable defines an interface for stores that can notify about backend
// changes. This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the id of each document that
	// changes behind the store's back. It abstracts away the event
	// details, signaling only which entry needs a reload.
	Watch(ctx context.Context) (<-chan string, error)
}
