package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/taigrr/voicenotes/internal/types"
)

const defaultListLimit = 20

func toItem(n types.Note) NoteItem {
	return NoteItem{
		ID:      n.ID,
		Date:    n.CreatedAt.Format(time.RFC3339),
		Content: n.Content,
	}
}

func (a *app) handleCreate(ctx context.Context, req *mcp.CallToolRequest, input CreateInput) (*mcp.CallToolResult, CreateOutput, error) {
	note, err := a.store.Create(ctx, input.Content)
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, CreateOutput{}, err
	}
	return nil, CreateOutput{Note: toItem(note)}, nil
}

func (a *app) handleDelete(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (*mcp.CallToolResult, DeleteOutput, error) {
	id := strings.TrimSpace(input.ID)
	if _, ok := a.store.Get(id); !ok {
		return &mcp.CallToolResult{IsError: true}, DeleteOutput{Success: false, ID: id},
			fmt.Errorf("note not found: %s", id)
	}

	if err := a.store.Delete(ctx, id); err != nil {
		return &mcp.CallToolResult{IsError: true}, DeleteOutput{Success: false, ID: id}, err
	}
	return nil, DeleteOutput{Success: true, ID: id}, nil
}

func (a *app) handleList(ctx context.Context, req *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
	query := strings.TrimSpace(input.Query)

	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	offset := max(input.Offset, 0)

	hits := a.store.Hits(query)
	total := len(hits)

	start := min(offset, total)
	end := min(start+limit, total)

	items := make([]NoteItem, 0, end-start)
	for _, h := range hits[start:end] {
		item := toItem(h.Note)
		if query != "" {
			item.Content = ""
			item.Excerpt = h.Excerpt
			item.MatchCount = h.MatchCount
		}
		items = append(items, item)
	}

	return nil, ListOutput{
		Notes:   items,
		Total:   total,
		HasMore: total > end,
	}, nil
}

func (a *app) handleRead(ctx context.Context, req *mcp.CallToolRequest, input ReadInput) (*mcp.CallToolResult, ReadOutput, error) {
	id := strings.TrimSpace(input.ID)
	note, ok := a.store.Get(id)
	if !ok {
		return &mcp.CallToolResult{IsError: true}, ReadOutput{}, fmt.Errorf("note not found: %s", id)
	}
	return nil, ReadOutput{Note: toItem(note)}, nil
}
