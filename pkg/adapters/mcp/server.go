package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/catalog"
	"github.com/aretw0/espalier/pkg/codegen"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/render"
	"github.com/aretw0/espalier/pkg/session"
)

// EditResponse aligns with the OpenAPI edit schema and provides a unified
// structure across adapters.
type EditResponse struct {
	DocumentID string       `json:"document_id"`
	Node       *domain.Node `json:"node,omitempty" jsonschema_description:"The node the edit created, changed or moved"`
	Nodes      int          `json:"nodes" jsonschema_description:"Total node count after the edit"`
	CanUndo    bool         `json:"can_undo"`
	CanRedo    bool         `json:"can_redo"`
}

// NodeResponse carries one subtree plus its typography after walking the
// inheritance chain.
type NodeResponse struct {
	Node domain.Node               `json:"node"`
	Font domain.ResolvedTypography `json:"font"`
}

// HistoryResponse reports the outcome of an undo or redo step.
type HistoryResponse struct {
	DocumentID string `json:"document_id"`
	Applied    bool   `json:"applied" jsonschema_description:"False when the history stack was already exhausted"`
	Nodes      int    `json:"nodes"`
	CanUndo    bool   `json:"can_undo"`
	CanRedo    bool   `json:"can_redo"`
}

// ListResponse lists the stored documents.
type ListResponse struct {
	Documents []ports.DocumentInfo `json:"documents"`
}

// TargetsResponse enumerates the legal destinations for a drag in progress.
type TargetsResponse struct {
	Targets []editor.DropTarget `json:"targets"`
}

// TemplatesResponse lists the placeable template names.
type TemplatesResponse struct {
	Templates []string `json:"templates"`
}

// ValidateResponse reports structural rule violations.
type ValidateResponse struct {
	Valid      bool               `json:"valid"`
	Violations []domain.Violation `json:"violations"`
}

// Server exposes document editing as an MCP Server, so agents can build
// and restructure design documents through tool calls.
type Server struct {
	sessions  *session.Manager
	catalog   *catalog.Catalog
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance over a session manager and a
// template catalog.
func NewServer(sessions *session.Manager, cat *catalog.Catalog) *Server {
	s := &Server{
		sessions:  sessions,
		catalog:   cat,
		mcpServer: server.NewMCPServer("espalier-mcp", strings.TrimSpace(espalier.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	// Start the SSE server
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: list_documents
	s.mcpServer.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List the stored documents with their node counts."),
		mcp.WithOutputSchema[ListResponse](),
	), mcp.NewStructuredToolHandler(s.handleListDocuments))

	// TOOL: create_document
	s.mcpServer.AddTool(mcp.NewTool("create_document",
		mcp.WithDescription("Create a new document with a root and one starter page."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Storage ID for the new document")),
		mcp.WithString("name", mcp.Description("Display name (defaults to the ID)")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleCreateDocument))

	// TOOL: delete_document
	s.mcpServer.AddTool(mcp.NewTool("delete_document",
		mcp.WithDescription("Delete a stored document."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to delete")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := request.GetString("document_id", "")
		if err := s.sessions.Delete(ctx, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("delete failed: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("deleted %s", id)), nil
	})

	// TOOL: get_document
	s.mcpServer.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Get the full document tree as JSON for introspection."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to fetch")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := s.sessions.Load(ctx, request.GetString("document_id", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		jsonBytes, err := domain.EncodeDocument(doc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})

	// TOOL: get_node
	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one subtree plus its resolved typography."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to read")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node whose subtree to fetch")),
		mcp.WithOutputSchema[NodeResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetNode))

	// TOOL: insert_node
	s.mcpServer.AddTool(mcp.NewTool("insert_node",
		mcp.WithDescription("Insert a blank node or a template instance relative to a focused node. Containers receive it as their last child; anything else gets it as a following sibling."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("at", mcp.Required(), mcp.Description("Focused node the insert is relative to")),
		mcp.WithString("kind", mcp.Description("Node kind to insert (e.g. frame, heading, checkbox)")),
		mcp.WithString("template", mcp.Description("Template name to instantiate instead of a blank kind")),
		mcp.WithObject("node", mcp.Description("Inline node spec (kind, payload fields, children) inserted as one subtree instead of a blank kind")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleInsertNode))

	// TOOL: move_node
	s.mcpServer.AddTool(mcp.NewTool("move_node",
		mcp.WithDescription("Move a subtree before, after or into another node, keeping its ids."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("src", mcp.Required(), mcp.Description("Node to move")),
		mcp.WithString("dst", mcp.Required(), mcp.Description("Node to land on")),
		mcp.WithString("position", mcp.Required(), mcp.Description("One of: before, after, into")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleMoveNode))

	// TOOL: remove_node
	s.mcpServer.AddTool(mcp.NewTool("remove_node",
		mcp.WithDescription("Remove a subtree. The root cannot be removed."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to remove")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemoveNode))

	// TOOL: duplicate_node
	s.mcpServer.AddTool(mcp.NewTool("duplicate_node",
		mcp.WithDescription("Clone a subtree with fresh ids, placed right after the original."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to duplicate")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleDuplicateNode))

	// TOOL: rename_node
	s.mcpServer.AddTool(mcp.NewTool("rename_node",
		mcp.WithDescription("Set a node's display name."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to rename")),
		mcp.WithString("name", mcp.Required(), mcp.Description("New display name")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleRenameNode))

	// TOOL: set_text
	s.mcpServer.AddTool(mcp.NewTool("set_text",
		mcp.WithDescription("Set the text content of a heading, paragraph or text node."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to write")),
		mcp.WithString("content", mcp.Required(), mcp.Description("New text content")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetText))

	// TOOL: set_style
	s.mcpServer.AddTool(mcp.NewTool("set_style",
		mcp.WithDescription("Merge a JSON style patch over a node's current style."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to style")),
		mcp.WithString("style", mcp.Required(), mcp.Description("JSON object with the style fields to change")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetStyle))

	// TOOL: set_font
	s.mcpServer.AddTool(mcp.NewTool("set_font",
		mcp.WithDescription("Set or clear a node's local font attributes. Unset attributes keep inheriting from the nearest styled ancestor."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to style")),
		mcp.WithString("family", mcp.Description("Font family to pin locally")),
		mcp.WithString("color", mcp.Description("Font color to pin locally, e.g. #1a1a1a")),
		mcp.WithNumber("size", mcp.Description("Font size to pin locally, in points")),
		mcp.WithBoolean("clear", mcp.Description("Clear all local font attributes first")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleSetFont))

	// TOOL: toggle_collapsed
	s.mcpServer.AddTool(mcp.NewTool("toggle_collapsed",
		mcp.WithDescription("Toggle a node's collapsed mark, which prunes its subtree in outline views."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to edit")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node to toggle")),
		mcp.WithOutputSchema[EditResponse](),
	), mcp.NewStructuredToolHandler(s.handleToggleCollapsed))

	// TOOL: undo / redo
	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Step the document back to the previous edit."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to step back")),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Step the document forward again after an undo."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to step forward")),
		mcp.WithOutputSchema[HistoryResponse](),
	), mcp.NewStructuredToolHandler(s.handleRedo))

	// TOOL: drop_targets
	s.mcpServer.AddTool(mcp.NewTool("drop_targets",
		mcp.WithDescription("List every legal destination for dragging a node, in tree pre-order."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to inspect")),
		mcp.WithString("src", mcp.Required(), mcp.Description("Node being dragged")),
		mcp.WithOutputSchema[TargetsResponse](),
	), mcp.NewStructuredToolHandler(s.handleDropTargets))

	// TOOL: generate
	s.mcpServer.AddTool(mcp.NewTool("generate",
		mcp.WithDescription("Render the document as html, markdown or mermaid."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to render")),
		mcp.WithString("format", mcp.Required(), mcp.Description("One of: html, markdown, mermaid")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := s.sessions.Load(ctx, request.GetString("document_id", ""))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("load failed: %v", err)), nil
		}
		switch format := request.GetString("format", ""); format {
		case "html":
			return mcp.NewToolResultText(codegen.HTML(doc, render.DefaultTheme())), nil
		case "markdown", "md":
			return mcp.NewToolResultText(codegen.Markdown(doc)), nil
		case "mermaid":
			return mcp.NewToolResultText(codegen.Mermaid(doc, &codegen.MermaidOverlay{Collapsed: doc.Collapsed})), nil
		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
		}
	})

	// TOOL: list_templates
	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List the template names insert_node accepts."),
		mcp.WithOutputSchema[TemplatesResponse](),
	), mcp.NewStructuredToolHandler(s.handleListTemplates))

	// TOOL: validate_document
	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Check the document against the structural placement rules."),
		mcp.WithString("document_id", mcp.Required(), mcp.Description("Document to validate")),
		mcp.WithOutputSchema[ValidateResponse](),
	), mcp.NewStructuredToolHandler(s.handleValidate))
}

// Handler methods for structured tools

// editState snapshots the response fields every mutating tool shares.
func editState(id string, ed *editor.Editor, node *domain.Node) EditResponse {
	return EditResponse{
		DocumentID: id,
		Node:       node,
		Nodes:      ed.Document().Root.Count(),
		CanUndo:    ed.CanUndo(),
		CanRedo:    ed.CanRedo(),
	}
}

func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ListResponse, error) {
	infos, err := s.sessions.List(ctx)
	if err != nil {
		return ListResponse{}, fmt.Errorf("list failed: %w", err)
	}
	return ListResponse{Documents: infos}, nil
}

func (s *Server) handleCreateDocument(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	name, _ := args["name"].(string)
	if name == "" {
		name = id
	}

	doc, err := s.sessions.Create(ctx, id, name)
	if err != nil {
		return EditResponse{}, fmt.Errorf("create failed: %w", err)
	}
	return EditResponse{DocumentID: id, Node: &doc.Root, Nodes: doc.Root.Count()}, nil
}

func (s *Server) handleGetNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NodeResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)

	var resp NodeResponse
	err := s.sessions.View(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		cur, ok := ed.Find(domain.NodeID(nodeID))
		if !ok {
			return fmt.Errorf("node %s: %w", nodeID, domain.ErrNodeNotFound)
		}
		font, err := ed.ResolveTypography(cur.Node().ID, render.DefaultTheme().Defaults())
		if err != nil {
			return err
		}
		resp = NodeResponse{Node: cur.Node(), Font: font}
		return nil
	})
	if err != nil {
		return NodeResponse{}, fmt.Errorf("get node failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleInsertNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	at, _ := args["at"].(string)
	kindStr, _ := args["kind"].(string)
	templateName, _ := args["template"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		var sub domain.Node
		switch {
		case args["node"] != nil:
			// Inline definition: a whole subtree in one tool call.
			var spec catalog.TemplateSpec
			if err := mapstructure.Decode(args["node"], &spec); err != nil {
				return fmt.Errorf("failed to decode inline node: %w", err)
			}
			tpl, err := catalog.FromSpec(spec)
			if err != nil {
				return err
			}
			sub = tpl.Node
		case templateName != "":
			tpl, err := s.catalog.Get(ctx, templateName)
			if err != nil {
				return err
			}
			sub = tpl.Node
		case kindStr != "":
			kind, ok := domain.ParseKind(kindStr)
			if !ok {
				return fmt.Errorf("unknown kind %q", kindStr)
			}
			sub = domain.Blank(kind)
		default:
			return fmt.Errorf("one of kind, template or node is required")
		}

		placed, err := ed.Insert(ctx, domain.NodeID(at), sub)
		if err != nil {
			return err
		}
		resp = editState(id, ed, &placed)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("insert failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleMoveNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	src, _ := args["src"].(string)
	dst, _ := args["dst"].(string)
	position, _ := args["position"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		if err := ed.Drop(ctx, domain.NodeID(src), domain.NodeID(dst), editor.Position(position)); err != nil {
			return err
		}
		cur, _ := ed.Find(domain.NodeID(src))
		moved := cur.Node()
		resp = editState(id, ed, &moved)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("move failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleRemoveNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		if err := ed.Remove(ctx, domain.NodeID(nodeID)); err != nil {
			return err
		}
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("remove failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleDuplicateNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		clone, err := ed.Duplicate(ctx, domain.NodeID(nodeID))
		if err != nil {
			return err
		}
		resp = editState(id, ed, &clone)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("duplicate failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleRenameNode(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)
	name, _ := args["name"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		if err := ed.Rename(ctx, domain.NodeID(nodeID), name); err != nil {
			return err
		}
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("rename failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleSetText(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)
	content, _ := args["content"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		if err := ed.SetText(ctx, domain.NodeID(nodeID), content); err != nil {
			return err
		}
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("set text failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleSetStyle(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)
	patch, _ := args["style"].(string)

	// Reject malformed patches before touching the document.
	var probe domain.Style
	if err := json.Unmarshal([]byte(patch), &probe); err != nil {
		return EditResponse{}, fmt.Errorf("style is not a valid style object: %w", err)
	}

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		err := ed.UpdateStyle(ctx, domain.NodeID(nodeID), func(st domain.Style) domain.Style {
			_ = json.Unmarshal([]byte(patch), &st)
			return st
		})
		if err != nil {
			return err
		}
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("set style failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleSetFont(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		target := domain.NodeID(nodeID)
		if clear, _ := args["clear"].(bool); clear {
			if err := ed.ClearLocalFont(ctx, target); err != nil {
				return err
			}
		}
		if family, _ := args["family"].(string); family != "" {
			if err := ed.SetLocalFontFamily(ctx, target, family); err != nil {
				return err
			}
		}
		if color, _ := args["color"].(string); color != "" {
			if err := ed.SetLocalFontColor(ctx, target, domain.Color(color)); err != nil {
				return err
			}
		}
		if size, _ := args["size"].(float64); size > 0 {
			if err := ed.SetLocalFontSize(ctx, target, int(size)); err != nil {
				return err
			}
		}
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("set font failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleToggleCollapsed(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EditResponse, error) {
	id, _ := args["document_id"].(string)
	nodeID, _ := args["node_id"].(string)

	var resp EditResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		ed.ToggleCollapsed(ctx, domain.NodeID(nodeID))
		resp = editState(id, ed, nil)
		return nil
	})
	if err != nil {
		return EditResponse{}, fmt.Errorf("toggle failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (HistoryResponse, error) {
	return s.stepHistory(ctx, args, func(ctx context.Context, ed *editor.Editor) bool {
		_, ok := ed.Undo(ctx)
		return ok
	})
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (HistoryResponse, error) {
	return s.stepHistory(ctx, args, func(ctx context.Context, ed *editor.Editor) bool {
		_, ok := ed.Redo(ctx)
		return ok
	})
}

func (s *Server) stepHistory(ctx context.Context, args map[string]interface{}, step func(context.Context, *editor.Editor) bool) (HistoryResponse, error) {
	id, _ := args["document_id"].(string)

	var resp HistoryResponse
	err := s.sessions.Edit(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		applied := step(ctx, ed)
		resp = HistoryResponse{
			DocumentID: id,
			Applied:    applied,
			Nodes:      ed.Document().Root.Count(),
			CanUndo:    ed.CanUndo(),
			CanRedo:    ed.CanRedo(),
		}
		return nil
	})
	if err != nil {
		return HistoryResponse{}, fmt.Errorf("history step failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleDropTargets(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TargetsResponse, error) {
	id, _ := args["document_id"].(string)
	src, _ := args["src"].(string)

	var resp TargetsResponse
	err := s.sessions.View(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		resp = TargetsResponse{Targets: ed.DropTargets(domain.NodeID(src))}
		return nil
	})
	if err != nil {
		return TargetsResponse{}, fmt.Errorf("drop targets failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleListTemplates(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TemplatesResponse, error) {
	names, err := s.catalog.List(ctx)
	if err != nil {
		return TemplatesResponse{}, fmt.Errorf("list templates failed: %w", err)
	}
	return TemplatesResponse{Templates: names}, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ValidateResponse, error) {
	id, _ := args["document_id"].(string)

	var resp ValidateResponse
	err := s.sessions.View(ctx, id, func(ctx context.Context, ed *editor.Editor) error {
		violations := ed.Validate()
		resp = ValidateResponse{Valid: len(violations) == 0, Violations: violations}
		return nil
	})
	if err != nil {
		return ValidateResponse{}, fmt.Errorf("validate failed: %w", err)
	}
	return resp, nil
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://documents
	s.mcpServer.AddResource(mcp.NewResource("espalier://documents", "Stored Documents",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		infos, err := s.sessions.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		jsonBytes, _ := json.Marshal(infos)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://documents",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
