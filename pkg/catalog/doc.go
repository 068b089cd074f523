/*
Package catalog serves node templates from flat files.

Template files are markdown documents whose frontmatter describes a node
(kind, payload fields, nested children) and whose body, for text-bearing
kinds, carries the text content. Files are addressed by path relative to
the catalog root, without extension, and shadow the built-in template of
the same name.
*/
package catalog
