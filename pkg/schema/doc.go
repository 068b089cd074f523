// Package schema handles document envelope versioning.
//
// Every serialized Document carries a schema field. This package decodes
// documents written at any supported version, raising old envelopes through
// registered forward migrations before handing off to the domain decoder.
// Documents written at a newer version than this build supports are
// rejected, never guessed at.
//
// Basic usage:
//
//	doc, err := schema.Decode(raw)
//	if errors.Is(err, domain.ErrSchemaVersion) {
//	    // The file is from an incompatible build.
//	}
//
// Stores call Decode on every load; the rest of the system only ever sees
// current-version Documents.
package schema
