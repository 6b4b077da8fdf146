package departments

import (
	"context"
	"time"

	"github.com/matzehuels/orgchart/pkg/graph"
	"github.com/matzehuels/orgchart/pkg/hierarchy"
	"github.com/matzehuels/orgchart/pkg/observability"
)

// Actions implements graph.Actions on top of a Client. After every
// successful mutation it calls OnChange, which is where callers reload
// the chart.
type Actions struct {
	Client   *Client
	OnChange func(ctx context.Context)
}

// NewActions returns Actions for c with an optional change callback.
func NewActions(c *Client, onChange func(ctx context.Context)) *Actions {
	return &Actions{Client: c, OnChange: onChange}
}

// OnEdit updates the department req.ID.
func (a *Actions) OnEdit(ctx context.Context, req graph.EditRequest) error {
	start := time.Now()
	err := a.Client.Update(ctx, UpdateRequest{
		ID:       hierarchy.ID(req.ID),
		ParentID: hierarchy.ID(req.ParentID),
		Name:     req.Name,
		Flags:    hierarchy.FlagsFromStatus(req.Status),
	})
	return a.done(ctx, "update", req.ID, start, err)
}

// OnDelete deletes the department id.
func (a *Actions) OnDelete(ctx context.Context, id string) error {
	start := time.Now()
	err := a.Client.Delete(ctx, hierarchy.ID(id))
	return a.done(ctx, "delete", id, start, err)
}

// OnAddChild creates a department under req.ParentID, or a root when
// ParentID is empty.
func (a *Actions) OnAddChild(ctx context.Context, req graph.AddChildRequest) error {
	start := time.Now()
	err := a.Client.Create(ctx, CreateRequest{
		Name:     req.Name,
		ParentID: hierarchy.ID(req.ParentID),
		Flags:    hierarchy.FlagsFromStatus(req.Status),
	})
	return a.done(ctx, "create", req.ParentID, start, err)
}

// done reports the edit and, when it succeeded, fires OnChange.
func (a *Actions) done(ctx context.Context, op, id string, start time.Time, err error) error {
	observability.Edit().OnEdit(ctx, op, id, time.Since(start), err)
	if err != nil {
		return err
	}
	if a.OnChange != nil {
		a.OnChange(ctx)
	}
	return nil
}

var _ graph.Actions = (*Actions)(nil)
