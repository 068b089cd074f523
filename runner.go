package espalier

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/espalier/pkg/codegen"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
)

// Runner handles an interactive editing session over provided IO.
// This allows for easy testing and integration with different frontends
// (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms the document outline before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the
// core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. The caller provides Input and Output
// (os.Stdin and os.Stdout for a terminal session).
func NewRunner() *Runner {
	return &Runner{}
}

const helpText = `commands:
  tree                              print the document outline
  ids                               list node ids, kinds and names
  insert <kind|template> [at]       insert relative to a node (default: first page)
  text <id> <content>               set text content
  rename <id> <name>                set display name
  move <src> <before|after|into> <dst>
  remove <id>                       remove a subtree
  duplicate <id>                    clone a subtree after itself
  font <id> <family|color|size|clear> [value]
  targets <id>                      list legal drag destinations
  undo / redo                       step through edit history
  validate                          check structural rules
  exit                              leave the session
ids may be abbreviated to any unique prefix.
`

// Run executes the editing loop for one document until EOF or quit.
func (r *Runner) Run(ctx context.Context, ws *Workspace, docID string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	// Fail before the prompt when the document is missing.
	if _, err := ws.Load(ctx, docID); err != nil {
		return err
	}

	if !r.Headless {
		fmt.Fprintf(r.Output, "--- espalier (%s) ---\n", docID)
		r.printOutline(ctx, ws, docID)
	}

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				// Graceful exit on EOF
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if fields[0] == "exit" || fields[0] == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}

		mutated, err := r.dispatch(ctx, ws, docID, fields[0], fields[1:])
		if err != nil {
			// Editing mistakes stay in the loop; only IO failures abort.
			fmt.Fprintf(r.Output, "error: %v\n", err)
			continue
		}
		if mutated && !r.Headless {
			r.printOutline(ctx, ws, docID)
		}
	}
}

// dispatch runs one command and reports whether it changed the document.
func (r *Runner) dispatch(ctx context.Context, ws *Workspace, docID, cmd string, args []string) (bool, error) {
	switch cmd {
	case "help":
		fmt.Fprint(r.Output, helpText)
		return false, nil

	case "tree":
		r.printOutline(ctx, ws, docID)
		return false, nil

	case "ids":
		return false, ws.View(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			ed.Cursor().Node().Walk(func(n domain.Node) bool {
				fmt.Fprintf(r.Output, "%s  %-10s %s\n", n.ID, n.Kind, n.Name)
				return true
			})
			return nil
		})

	case "insert":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: insert <kind|template> [at]")
		}
		sub, err := r.resolveSubtree(ctx, ws, args[0])
		if err != nil {
			return false, err
		}
		var placed domain.Node
		err = ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			root := ed.Cursor().Node()
			at := root.ID
			if len(args) > 1 {
				at, err = resolveRef(ed, args[1])
				if err != nil {
					return err
				}
			} else if len(root.Children) > 0 {
				// Unanchored inserts land on the first page.
				at = root.Children[0].ID
			}
			placed, err = ed.Insert(ctx, at, sub)
			return err
		})
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.Output, "inserted %s %s\n", placed.Kind, placed.ID)
		return true, nil

	case "text":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: text <id> <content>")
		}
		content := strings.Join(args[1:], " ")
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			return ed.SetText(ctx, id, content)
		})
		return err == nil, err

	case "rename":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: rename <id> <name>")
		}
		name := strings.Join(args[1:], " ")
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			return ed.Rename(ctx, id, name)
		})
		return err == nil, err

	case "move":
		if len(args) < 3 {
			return false, fmt.Errorf("usage: move <src> <before|after|into> <dst>")
		}
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			src, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			dst, err := resolveRef(ed, args[2])
			if err != nil {
				return err
			}
			return ed.Drop(ctx, src, dst, editor.Position(args[1]))
		})
		return err == nil, err

	case "remove", "rm":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: remove <id>")
		}
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			return ed.Remove(ctx, id)
		})
		return err == nil, err

	case "duplicate", "dup":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: duplicate <id>")
		}
		var clone domain.Node
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			clone, err = ed.Duplicate(ctx, id)
			return err
		})
		if err != nil {
			return false, err
		}
		fmt.Fprintf(r.Output, "duplicated as %s\n", clone.ID)
		return true, nil

	case "font":
		if len(args) < 2 {
			return false, fmt.Errorf("usage: font <id> <family|color|size|clear> [value]")
		}
		value := strings.Join(args[2:], " ")
		err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			switch args[1] {
			case "family":
				return ed.SetLocalFontFamily(ctx, id, value)
			case "color":
				return ed.SetLocalFontColor(ctx, id, domain.Color(value))
			case "size":
				size, err := strconv.Atoi(value)
				if err != nil {
					return fmt.Errorf("size must be a number: %w", err)
				}
				return ed.SetLocalFontSize(ctx, id, size)
			case "clear":
				return ed.ClearLocalFont(ctx, id)
			default:
				return fmt.Errorf("unknown font attribute %q", args[1])
			}
		})
		return err == nil, err

	case "targets":
		if len(args) < 1 {
			return false, fmt.Errorf("usage: targets <id>")
		}
		return false, ws.View(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			id, err := resolveRef(ed, args[0])
			if err != nil {
				return err
			}
			for _, target := range ed.DropTargets(id) {
				fmt.Fprintf(r.Output, "%-6s %s (%s)\n", target.Position, target.NodeID, target.Kind)
			}
			return nil
		})

	case "undo":
		return r.stepHistory(ctx, ws, docID, "nothing to undo", func(ctx context.Context, ed *editor.Editor) bool {
			_, ok := ed.Undo(ctx)
			return ok
		})

	case "redo":
		return r.stepHistory(ctx, ws, docID, "nothing to redo", func(ctx context.Context, ed *editor.Editor) bool {
			_, ok := ed.Redo(ctx)
			return ok
		})

	case "validate":
		return false, ws.View(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
			violations := ed.Validate()
			if len(violations) == 0 {
				fmt.Fprintln(r.Output, "ok")
				return nil
			}
			for _, v := range violations {
				fmt.Fprintln(r.Output, v.String())
			}
			return nil
		})

	default:
		return false, fmt.Errorf("unknown command %q (try help)", cmd)
	}
}

func (r *Runner) stepHistory(ctx context.Context, ws *Workspace, docID, emptyMsg string, step func(context.Context, *editor.Editor) bool) (bool, error) {
	var applied bool
	err := ws.Edit(ctx, docID, func(ctx context.Context, ed *editor.Editor) error {
		applied = step(ctx, ed)
		return nil
	})
	if err != nil {
		return false, err
	}
	if !applied {
		fmt.Fprintln(r.Output, emptyMsg)
	}
	return applied, nil
}

// resolveSubtree interprets a token as a node kind first, then as a catalog
// template name.
func (r *Runner) resolveSubtree(ctx context.Context, ws *Workspace, token string) (domain.Node, error) {
	if kind, ok := domain.ParseKind(token); ok {
		return domain.Blank(kind), nil
	}
	tpl, err := ws.catalog.Get(ctx, token)
	if err != nil {
		return domain.Node{}, err
	}
	return tpl.Node, nil
}

// resolveRef matches a node by full id or unique id prefix.
func resolveRef(ed *editor.Editor, ref string) (domain.NodeID, error) {
	if _, ok := ed.Find(domain.NodeID(ref)); ok {
		return domain.NodeID(ref), nil
	}
	var matches []domain.NodeID
	ed.Cursor().Node().Walk(func(n domain.Node) bool {
		if strings.HasPrefix(string(n.ID), ref) {
			matches = append(matches, n.ID)
		}
		return true
	})
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no node matches %q", ref)
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", ref, len(matches))
	}
}

func (r *Runner) printOutline(ctx context.Context, ws *Workspace, docID string) {
	doc, err := ws.Load(ctx, docID)
	if err != nil {
		fmt.Fprintf(r.Output, "error: %v\n", err)
		return
	}
	output := codegen.Markdown(doc)
	if r.Renderer != nil {
		if rendered, err := r.Renderer(output); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}
