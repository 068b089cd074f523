package domain

import (
	"context"
	"time"
)

// EditKind labels the edit operations observable through EditHooks.
type EditKind string

const (
	EditInsert    EditKind = "insert"
	EditRemove    EditKind = "remove"
	EditMove      EditKind = "move"
	EditDuplicate EditKind = "duplicate"
	EditRename    EditKind = "rename"
	EditStyle     EditKind = "style"
	EditUndo      EditKind = "undo"
	EditRedo      EditKind = "redo"
)

// EditEvent describes one applied or denied edit.
type EditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      EditKind  `json:"kind"`
	Document  string    `json:"document,omitempty"`
	NodeID    NodeID    `json:"node_id,omitempty"`
	NodeKind  Kind      `json:"node_kind,omitempty"`
	Denied    bool      `json:"denied,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// EditHooks defines callbacks for editor observability. Hooks run
// synchronously on the editing goroutine; implementations fan out
// themselves if they need to.
type EditHooks struct {
	// OnEdit fires after an edit is applied and snapshotted.
	OnEdit func(context.Context, *EditEvent)

	// OnDenied fires when the placement tables reject an edit.
	OnDenied func(context.Context, *EditEvent)

	// OnHistory fires after an undo or redo changes the present.
	OnHistory func(context.Context, *EditEvent)
}
