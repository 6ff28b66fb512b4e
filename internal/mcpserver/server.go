// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Echo Notes tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/echonotes/internal/cleanup"
	"github.com/starford/echonotes/internal/export"
	"github.com/starford/echonotes/internal/notestore"
	"github.com/starford/echonotes/internal/transcript"
)

const noteFormatURI = "echo://note-format"

// Server wraps the MCP server with Echo Notes tools.
type Server struct {
	mcp     *server.MCPServer
	notes   *notestore.Store
	cleaner cleanup.Cleaner
}

// New creates a new MCP server with all tools registered.
func New(notes *notestore.Store, cleaner cleanup.Cleaner, version string) *Server {
	s := &Server{notes: notes, cleaner: cleaner}

	s.mcp = server.NewMCPServer(
		"Echo Notes",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive search through note content and keywords."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Substring to look for")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes, newest first."),
		mcp.WithString("view",
			mcp.Description("Which group to list"),
			mcp.Enum("all", "active", "stashed"),
		),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("note_this",
		mcp.WithDescription("Save raw dictated text as a new note. The note is created immediately "+
			"with the title \"Processing...\" and cleaned up in the background."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Raw transcript text")),
	), s.noteThis)

	s.mcp.AddTool(mcp.NewTool("clean_text",
		mcp.WithDescription("Fix grammar, spelling and punctuation of text and extract three keywords. "+
			"Nothing is stored."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text to clean")),
	), s.cleanText)

	s.mcp.AddTool(mcp.NewTool("toggle_stash",
		mcp.WithDescription("Move a note between the active and stashed groups."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.toggleStash)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read a note as Markdown with YAML frontmatter. "+
			"See the "+noteFormatURI+" resource for the format."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddResource(
		mcp.NewResource(noteFormatURI, "Note Format",
			mcp.WithResourceDescription("Markdown layout used by read_note and note export."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// Serve runs the MCP protocol over in/out until ctx is done or in is closed.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return stdio.Listen(ctx, in, out)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes, err := s.notes.Search(query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(notes)
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view := req.GetString("view", "all")
	notes, err := s.notes.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	active, stashed := notestore.Partition(notes)
	switch view {
	case "all", "":
	case "active":
		notes = active
	case "stashed":
		notes = stashed
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown view: %s", view)), nil
	}
	return jsonResult(notes)
}

func (s *Server) noteThis(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	// Dictated text may still carry the spoken trigger.
	if stripped, ok := transcript.Extract(transcript.Segment{Transcript: text, IsFinal: true}); ok {
		text = stripped
	}
	note, err := s.notes.CreateFromTranscript(text)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(note)
}

func (s *Server) cleanText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.cleaner.Clean(ctx, text)
	if err != nil {
		if errors.Is(err, cleanup.ErrNotConfigured) {
			return mcp.NewToolResultError("cleanup is not configured: GROQ_API_KEY is missing"), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func (s *Server) toggleStash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, found, err := s.notes.ToggleStash(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(note)
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, found, err := s.notes.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	data, err := export.Render(note)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      noteFormatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
