/*
Package codegen generates output formats from documents.

HTML emits a standalone page with semantic tags and inline styles, Markdown
emits a plain outline for terminal previews, and Mermaid emits a flowchart
of the tree structure. HTML and Markdown are folds over pkg/render; the
Mermaid generator walks top-down so it can prune collapsed subtrees.
*/
package codegen
