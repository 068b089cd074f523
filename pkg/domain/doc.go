/*
Package domain contains the core document model and business logic for the
Espalier engine.

It defines the design tree itself: typed Nodes, the Cursor (zipper) used to
navigate and mutate it, the placement rules that gate every insert and drag,
deterministic node identity, inheritable style resolution, and the Document
envelope that persistence units are made of. This package is kept pure and
free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Node: one element instance in the design tree (container, content leaf,
    or form control), carrying a full Style record and ordered children.
  - Cursor: a navigable, mutation-capable position inside a tree. Every
    mutation is copy-on-write; holders of the pre-mutation tree observe no
    change.
  - Seed/NodeID: explicitly-threaded deterministic identity. No global
    counters or hidden RNG state.
  - Document: the persistence and versioning unit (tree, viewport,
    collapsed-id set, seed, schema version, timestamp).
*/
package domain
