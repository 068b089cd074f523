/*
Package history implements snapshot-based linear undo/redo over whole
documents.

Semantics: applying an edit pushes the old present onto the past and clears
the future (no branch merging). Undo and redo are mirror pops and degrade to
no-ops at the empty boundaries. Because every document mutation is
copy-on-write, snapshots share structure and pushing is O(1).
*/
package history
