/*
Package espalier is an immutable document tree editor for building design
documents: typed n-ary trees of pages, frames, text and controls with
structural placement rules, inheritable typography and snapshot undo.

It implements a "Persistent Tree with Zipper Cursors" architecture,
separating the document value (Tree) from edit mechanics (Editor) and
persistence (Stores). Every edit produces a new tree that shares untouched
branches with its predecessor, so undo and redo are whole-snapshot swaps.

# Concept

Espalier treats a design document as a value. The editor manages placement
rules, identity stamping and history, while your application ("Host")
manages the I/O: rendering, HTTP, or AI agent infrastructure. This
Hexagonal Architecture allows espalier to be embedded in any interface:
CLI, HTTP Server, or MCP tooling.

# Key Features

  - Immutable Trees: edits never mutate in place; snapshots share structure.
  - Structural Rules: containment and adjacency tables gate every placement.
  - Deterministic Identity: node ids derive from a seed carried by the
    document, so the same edits replay to the same ids.
  - Inheritable Typography: font attributes resolve along the ancestor
    chain, with Family, Color and Size tracked independently.
  - State Persistence: pluggable stores (filesystem, memory, Redis, SQLite)
    with locking for multi-writer setups.

# Usage

Initialize a workspace using the "New" entrypoint. You can use the default
filesystem store or inject a custom one.

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/domain"
		"github.com/aretw0/espalier/pkg/editor"
	)

	func main() {
		// Initialize Workspace with default settings (writes to ./designs)
		ws, err := espalier.New("./designs")
		if err != nil {
			log.Fatal(err)
		}

		ctx := context.Background()
		doc, err := ws.Create(ctx, "landing", "Landing Page")
		if err != nil {
			log.Fatal(err)
		}

		// Edit: insert a heading on the starter page
		pageID := doc.Root.Children[0].ID
		err = ws.Edit(ctx, "landing", func(ctx context.Context, ed *editor.Editor) error {
			_, err := ed.Insert(ctx, pageID, domain.Blank(domain.KindHeading))
			return err
		})
		if err != nil {
			log.Fatal(err)
		}

		// Generate: render the document as HTML
		html, err := ws.Generate(ctx, "landing", "html")
		if err != nil {
			log.Fatal(err)
		}
		log.Println(html)
	}
*/
package espalier
