// Package archive provides content-addressed, compressed document
// checkpoints. Unlike the document stores, which keep only the present
// revision, an archive accumulates immutable point-in-time copies keyed
// by the BLAKE3 hash of their encoded form.
package archive
