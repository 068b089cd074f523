// Package http exposes a workspace as a JSON API: document CRUD, node
// edits through the placement rules, history stepping and an SSE change
// feed. The API is described by the embedded OpenAPI document, which is
// validated on startup and served at /openapi.yaml.
package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/editor"
	"github.com/aretw0/espalier/pkg/ports"
)

//go:embed openapi.yaml
var specYAML []byte

// Workspace is the slice of the espalier facade the server drives. The root
// package's Workspace satisfies it.
type Workspace interface {
	Create(ctx context.Context, id, name string) (domain.Document, error)
	Load(ctx context.Context, id string) (domain.Document, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]ports.DocumentInfo, error)
	Edit(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error
	View(ctx context.Context, id string, fn func(context.Context, *editor.Editor) error) error
	Generate(ctx context.Context, id, format string) (string, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server routes the document API onto a workspace.
type Server struct {
	ws     Workspace
	logger *slog.Logger
}

// NewHandler builds the API handler. It fails if the embedded OpenAPI
// document does not validate, so a broken spec is caught at startup rather
// than by the first client.
func NewHandler(ws Workspace, logger *slog.Logger) (http.Handler, error) {
	loader := openapi3.NewLoader()
	spec, err := loader.LoadFromData(specYAML)
	if err != nil {
		return nil, fmt.Errorf("parse openapi spec: %w", err)
	}
	if err := spec.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}

	s := &Server{ws: ws, logger: logger}

	r := chi.NewRouter()
	r.Use(enableCORS)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(specYAML)
	})
	r.Get("/swagger", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.listDocuments)
		r.Post("/", s.createDocument)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getDocument)
			r.Delete("/", s.deleteDocument)
			r.Get("/export", s.exportDocument)
			r.Get("/validate", s.validateDocument)
			r.Post("/undo", s.undo)
			r.Post("/redo", s.redo)
			r.Post("/nodes", s.insertNode)
			r.Route("/nodes/{nodeID}", func(r chi.Router) {
				r.Get("/", s.getNode)
				r.Patch("/", s.patchNode)
				r.Delete("/", s.removeNode)
				r.Post("/duplicate", s.duplicateNode)
				r.Post("/move", s.moveNode)
				r.Get("/targets", s.dropTargets)
			})
		})
	})
	r.Get("/events", s.subscribeEvents)

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Espalier API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Request / response bodies --

// CreateRequest names the document to create.
type CreateRequest struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// InsertRequest places a new node relative to the anchor.
type InsertRequest struct {
	At   string `json:"at"`
	Kind string `json:"kind"`
}

// PatchRequest renames a node and/or replaces its text content. Both edits
// together are still one request but two history steps.
type PatchRequest struct {
	Name *string `json:"name,omitempty"`
	Text *string `json:"text,omitempty"`
}

// MoveRequest relocates the path node relative to Dst.
type MoveRequest struct {
	Dst      string          `json:"dst"`
	Position editor.Position `json:"position"`
}

// HistoryState reports the undo/redo availability after a step.
type HistoryState struct {
	Stepped bool `json:"stepped"`
	CanUndo bool `json:"can_undo"`
	CanRedo bool `json:"can_redo"`
}

// -- Handlers --

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request) {
	infos, err := s.ws.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if infos == nil {
		infos = []ports.DocumentInfo{}
	}
	s.respond(w, http.StatusOK, infos)
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if body.ID == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	doc, err := s.ws.Create(r.Context(), body.ID, body.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, doc)
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.ws.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportDocument(w http.ResponseWriter, r *http.Request) {
	format := "html"
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := s.ws.Generate(r.Context(), chi.URLParam(r, "id"), format)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, out)
}

func (s *Server) validateDocument(w http.ResponseWriter, r *http.Request) {
	var violations []domain.Violation
	err := s.ws.View(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, ed *editor.Editor) error {
		violations = ed.Validate()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if violations == nil {
		violations = []domain.Violation{}
	}
	s.respond(w, http.StatusOK, violations)
}

func (s *Server) getNode(w http.ResponseWriter, r *http.Request) {
	depth := -1
	if r.URL.Query().Has("depth") {
		if err := runtime.BindQueryParameter("form", true, false, "depth", r.URL.Query(), &depth); err != nil {
			http.Error(w, "invalid depth parameter", http.StatusBadRequest)
			return
		}
	}

	var node domain.Node
	err := s.ws.View(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, ed *editor.Editor) error {
		cur, ok := ed.Find(domain.NodeID(chi.URLParam(r, "nodeID")))
		if !ok {
			return domain.ErrNodeNotFound
		}
		node = truncate(cur.Node(), depth)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, node)
}

// truncate prunes a subtree below the given depth. Depth 0 keeps only the
// node itself; a negative depth keeps everything.
func truncate(node domain.Node, depth int) domain.Node {
	if depth < 0 {
		return node
	}
	if depth == 0 {
		node.Children = nil
		return node
	}
	children := make([]domain.Node, len(node.Children))
	for i, child := range node.Children {
		children[i] = truncate(child, depth-1)
	}
	node.Children = children
	return node
}

func (s *Server) insertNode(w http.ResponseWriter, r *http.Request) {
	var body InsertRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	kind, ok := domain.ParseKind(body.Kind)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown kind %q", body.Kind), http.StatusBadRequest)
		return
	}

	var placed domain.Node
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		var err error
		placed, err = ed.Insert(ctx, domain.NodeID(body.At), domain.Blank(kind))
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, placed)
}

func (s *Server) patchNode(w http.ResponseWriter, r *http.Request) {
	var body PatchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	nodeID := domain.NodeID(chi.URLParam(r, "nodeID"))

	var node domain.Node
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		if body.Name != nil {
			if err := ed.Rename(ctx, nodeID, *body.Name); err != nil {
				return err
			}
		}
		if body.Text != nil {
			if err := ed.SetText(ctx, nodeID, *body.Text); err != nil {
				return err
			}
		}
		cur, ok := ed.Find(nodeID)
		if !ok {
			return domain.ErrNodeNotFound
		}
		node = cur.Node()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, node)
}

func (s *Server) removeNode(w http.ResponseWriter, r *http.Request) {
	nodeID := domain.NodeID(chi.URLParam(r, "nodeID"))
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		return ed.Remove(ctx, nodeID)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) duplicateNode(w http.ResponseWriter, r *http.Request) {
	nodeID := domain.NodeID(chi.URLParam(r, "nodeID"))
	var clone domain.Node
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		var err error
		clone, err = ed.Duplicate(ctx, nodeID)
		return err
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, clone)
}

func (s *Server) moveNode(w http.ResponseWriter, r *http.Request) {
	var body MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	nodeID := domain.NodeID(chi.URLParam(r, "nodeID"))
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		return ed.Drop(ctx, nodeID, domain.NodeID(body.Dst), body.Position)
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) dropTargets(w http.ResponseWriter, r *http.Request) {
	nodeID := domain.NodeID(chi.URLParam(r, "nodeID"))
	var targets []editor.DropTarget
	err := s.ws.View(r.Context(), chi.URLParam(r, "id"), func(_ context.Context, ed *editor.Editor) error {
		targets = ed.DropTargets(nodeID)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if targets == nil {
		targets = []editor.DropTarget{}
	}
	s.respond(w, http.StatusOK, targets)
}

func (s *Server) undo(w http.ResponseWriter, r *http.Request) {
	s.stepHistory(w, r, func(ctx context.Context, ed *editor.Editor) bool {
		_, ok := ed.Undo(ctx)
		return ok
	})
}

func (s *Server) redo(w http.ResponseWriter, r *http.Request) {
	s.stepHistory(w, r, func(ctx context.Context, ed *editor.Editor) bool {
		_, ok := ed.Redo(ctx)
		return ok
	})
}

func (s *Server) stepHistory(w http.ResponseWriter, r *http.Request, step func(context.Context, *editor.Editor) bool) {
	var state HistoryState
	err := s.ws.Edit(r.Context(), chi.URLParam(r, "id"), func(ctx context.Context, ed *editor.Editor) error {
		state.Stepped = step(ctx, ed)
		state.CanUndo = ed.CanUndo()
		state.CanRedo = ed.CanRedo()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, state)
}

func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.ws.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("watch error: %v", err), http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprint(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case id, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: document\ndata: %s\n\n", id)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

// fail maps domain sentinels onto status codes; everything else is a 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPlacementDenied),
		errors.Is(err, editor.ErrRootEdit):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	http.Error(w, err.Error(), status)
}
