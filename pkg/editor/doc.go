/*
Package editor orchestrates edits over one open document.

The Editor wraps the pure domain operations with everything an interactive
session needs: placement gating, fresh-id stamping, one-snapshot-per-edit
history, viewport/collapse state that rides along without becoming undo
steps, and observability hooks. The drag-and-drop controller lives here too,
answering drop-target queries straight from the placement tables and
applying a completed drop as a single atomic move.
*/
package editor
