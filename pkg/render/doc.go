/*
Package render turns document trees into output formats.

Its core is Fold, a bottom-up reduction that hands each node to the caller
with typography inheritance already applied. The HTML, markdown and mermaid
generators in pkg/codegen are all folds; callers can write their own for
other targets.
*/
package render
