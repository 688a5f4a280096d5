package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/supabase-community/postgrest-go"

	"github.com/aretw0/notekeep/pkg/core"
)

const (
	notesTable = "notes"
	// PostgREST answers mutations with an empty body under this preference.
	returnMinimal = "minimal"
)

// noteRow accepts both text and numeric primary keys.
type noteRow struct {
	ID        json.RawMessage `json:"id"`
	Title     *string         `json:"title"`
	Content   *string         `json:"content"`
	Owner     string          `json:"user_id"`
	CreatedAt time.Time       `json:"created_at"`
}

func (r noteRow) note() core.Note {
	n := core.Note{
		ID:        rowID(r.ID),
		Owner:     r.Owner,
		CreatedAt: r.CreatedAt,
	}
	if r.Title != nil {
		n.Title = *r.Title
	}
	if r.Content != nil {
		n.Content = *r.Content
	}
	return n
}

func rowID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ListNotes implements core.NoteGateway. A null body yields nil.
func (c *Client) ListNotes(ctx context.Context) ([]core.Note, error) {
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := await(ctx, func() ([]noteRow, error) {
		var rows []noteRow
		_, err := c.restFor(token).From(notesTable).
			Select("*", "", false).
			Order("created_at", &postgrest.OrderOpts{Ascending: false}).
			ExecuteTo(&rows)
		return rows, err
	})
	if err = restError(err); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	if rows == nil {
		return nil, nil
	}

	notes := make([]core.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.note())
	}
	return notes, nil
}

// InsertNote implements core.NoteGateway.
func (c *Client) InsertNote(ctx context.Context, in core.NoteInput) error {
	return c.mutate(ctx, "insert note", func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Insert(in, false, "", returnMinimal, "")
	})
}

// UpdateNote implements core.NoteGateway.
func (c *Client) UpdateNote(ctx context.Context, id string, patch core.NotePatch) error {
	return c.mutate(ctx, "update note "+id, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Update(patch, returnMinimal, "").Eq("id", id)
	})
}

// DeleteNote implements core.NoteGateway.
func (c *Client) DeleteNote(ctx context.Context, id string) error {
	return c.mutate(ctx, "delete note "+id, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Delete(returnMinimal, "").Eq("id", id)
	})
}

func (c *Client) mutate(ctx context.Context, op string, build func(*postgrest.QueryBuilder) *postgrest.FilterBuilder) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	_, err = await(ctx, func() ([]byte, error) {
		body, _, err := build(c.restFor(token).From(notesTable)).Execute()
		return body, err
	})
	if err = restError(err); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
