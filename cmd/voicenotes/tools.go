package main

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

type (
	// NoteItem is a note as returned to MCP clients.
	NoteItem struct {
		ID         string `json:"id"`
		Date       string `json:"date"`
		Content    string `json:"content,omitempty"`
		Excerpt    string `json:"excerpt,omitempty"`
		MatchCount int    `json:"matchCount,omitempty"`
	}

	// CreateInput contains parameters for creating a note.
	CreateInput struct {
		Content string `json:"content" jsonschema:"Text of the note"`
	}

	// CreateOutput contains the created note.
	CreateOutput struct {
		Note NoteItem `json:"note"`
	}

	// DeleteInput contains parameters for deleting a note.
	DeleteInput struct {
		ID string `json:"id" jsonschema:"Id of the note to delete"`
	}

	// DeleteOutput contains the result of deleting a note.
	DeleteOutput struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}

	// ListInput contains parameters for listing notes.
	ListInput struct {
		Query  string `json:"query,omitempty" jsonschema:"Case-insensitive text the note must contain (default: all notes)"`
		Offset int    `json:"offset,omitempty" jsonschema:"Skip first N notes for pagination (default: 0)"`
		Limit  int    `json:"limit,omitempty" jsonschema:"Maximum notes to return (default: 20)"`
	}

	// ListOutput contains one page of notes, newest first.
	ListOutput struct {
		Notes   []NoteItem `json:"notes"`
		Total   int        `json:"total"`
		HasMore bool       `json:"hasMore,omitempty"`
	}

	// ReadInput contains parameters for reading a note.
	ReadInput struct {
		ID string `json:"id" jsonschema:"Id of the note"`
	}

	// ReadOutput contains the full note.
	ReadOutput struct {
		Note NoteItem `json:"note"`
	}
)

func (a *app) registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "create_note",
		Description: "Create a note with the given text. The note is stamped with the current time and placed first in the list.",
	}, a.handleCreate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_note",
		Description: "Delete a note by id.",
	}, a.handleDelete)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_notes",
		Description: "List notes newest first. With a query, only notes whose text contains it (ignoring case) are returned, each with an excerpt around the first match.",
	}, a.handleList)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "read_note",
		Description: "Read the full text of a note by id.",
	}, a.handleRead)
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the notes to MCP clients over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mcp.NewServer(&mcp.Implementation{
				Name:    "voicenotes",
				Version: version,
			}, nil)

			a.registerTools(server)

			if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
				return fmt.Errorf("error running server: %w", err)
			}
			return nil
		},
	}
}
