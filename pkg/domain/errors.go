package domain

import "errors"

// ErrDocumentNotFound is returned when a document ID cannot be found in the store.
var ErrDocumentNotFound = errors.New("document not found")

// ErrNodeNotFound is returned when a node ID does not exist in the tree.
var ErrNodeNotFound = errors.New("node not found")

// ErrPlacementDenied is returned when an insert or move violates the
// containment/sibling tables.
var ErrPlacementDenied = errors.New("placement denied")

// ErrSchemaVersion is returned when a serialized document carries a missing
// or unsupported schema version.
var ErrSchemaVersion = errors.New("unsupported document schema")

// ErrTemplateNotFound is returned when a template name is not in the catalog.
var ErrTemplateNotFound = errors.New("template not found")
