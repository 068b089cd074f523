package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	httpadapter "github.com/aretw0/espalier/internal/adapters/http"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	ws, err := espalier.New("", espalier.WithStore(memory.NewStore()))
	require.NoError(t, err)
	handler, err := httpadapter.NewHandler(ws, logging.NewNop())
	require.NoError(t, err)
	return handler
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestOpenAPISelfCheck(t *testing.T) {
	// NewHandler validates the embedded spec; a handler at all means the
	// spec parsed and passed openapi3 validation.
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Espalier Document API")
}

func TestDocumentLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "site", Name: "Site"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, domain.KindDocument, doc.Root.Kind)
	require.Len(t, doc.Root.Children, 1)

	rec = doJSON(t, h, http.MethodGet, "/documents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var infos []ports.DocumentInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.Len(t, infos, 1)
	assert.Equal(t, "site", infos[0].ID)

	rec = doJSON(t, h, http.MethodDelete, "/documents/site", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/documents/site", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestInsertPatchUndo(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "doc"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	pageID := doc.Root.Children[0].ID

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(pageID), Kind: "heading"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var heading domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &heading))
	assert.Equal(t, domain.KindHeading, heading.Kind)

	text := "Welcome"
	rec = doJSON(t, h, http.MethodPatch, "/documents/doc/nodes/"+string(heading.ID),
		httpadapter.PatchRequest{Text: &text})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state httpadapter.HistoryState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.True(t, state.Stepped)
	assert.True(t, state.CanRedo)
}

func TestPlacementDeniedMapsTo422(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "doc"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	pageID := doc.Root.Children[0].ID

	// Options only live under Radio groups.
	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(pageID), Kind: "option"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// The root cannot be removed.
	rec = doJSON(t, h, http.MethodDelete, "/documents/doc/nodes/"+string(doc.Root.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestExportFormats(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "doc", Name: "Export Me"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "<!DOCTYPE html>"))

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/export?format=mermaid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "graph TD")

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/export?format=docx", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetNodeDepth(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "doc"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	pageID := doc.Root.Children[0].ID

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(pageID), Kind: "row"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var row domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(row.ID), Kind: "paragraph"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/nodes/"+string(doc.Root.ID)+"?depth=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pruned domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pruned))
	require.Len(t, pruned.Children, 1)
	assert.Empty(t, pruned.Children[0].Children)

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/nodes/"+string(doc.Root.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var full domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &full))
	require.Len(t, full.Children, 1)
	require.Len(t, full.Children[0].Children, 1)

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/nodes/"+string(doc.Root.ID)+"?depth=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDropTargetsAndMove(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/documents", httpadapter.CreateRequest{ID: "doc"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var doc domain.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	pageID := doc.Root.Children[0].ID

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(pageID), Kind: "row"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var row domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes",
		httpadapter.InsertRequest{At: string(pageID), Kind: "paragraph"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var para domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &para))

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/nodes/"+string(para.ID)+"/targets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), string(row.ID))

	rec = doJSON(t, h, http.MethodPost, "/documents/doc/nodes/"+string(para.ID)+"/move",
		httpadapter.MoveRequest{Dst: string(row.ID), Position: "into"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/documents/doc/nodes/"+string(row.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var moved domain.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moved))
	require.Len(t, moved.Children, 1)
	assert.Equal(t, para.ID, moved.Children[0].ID)
}
