// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes folio content tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/models"
)

// ContractURI is the resource URI of the content format contract.
const ContractURI = "folio://content-format"

// Server wraps the MCP server with folio tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *content.Service
	db   *catalog.DB
	mode models.BuildMode
}

// New creates a new MCP server with all folio tools registered. db may be
// nil, in which case search_posts reports that the catalogue is disabled.
func New(svc *content.Service, db *catalog.DB, mode models.BuildMode) *Server {
	if mode == "" {
		mode = models.ModeProduction
	}
	s := &Server{svc: svc, db: db, mode: mode}

	s.mcp = server.NewMCPServer(
		"folio",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	modeArg := mcp.WithString("mode",
		mcp.Description("Build mode: production hides drafts, development shows them"),
		mcp.Enum("production", "development"),
	)

	s.mcp.AddTool(mcp.NewTool("list_posts",
		mcp.WithDescription("List visible posts with their frontmatter, newest first."),
		modeArg,
	), s.listPosts)

	s.mcp.AddTool(mcp.NewTool("list_slugs",
		mcp.WithDescription("List the slugs of visible posts, newest first."),
		modeArg,
	), s.listSlugs)

	s.mcp.AddTool(mcp.NewTool("is_scrolly_post",
		mcp.WithDescription("Report whether a post's body opens with a steps block."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (file name without extension)")),
	), s.isScrollyPost)

	s.mcp.AddTool(mcp.NewTool("render_post",
		mcp.WithDescription("Compile a single post to HTML."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Post slug (file name without extension)")),
		modeArg,
	), s.renderPost)

	s.mcp.AddTool(mcp.NewTool("search_posts",
		mcp.WithDescription("Full-text search through post titles, descriptions, topics and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchPosts)

	s.mcp.AddTool(mcp.NewTool("get_content_contract",
		mcp.WithDescription("Returns the folio post format contract. "+
			"Call this before writing posts to ensure correct structure."),
	), s.getContentContract)

	s.mcp.AddResource(
		mcp.NewResource(ContractURI, "Post Format Contract",
			mcp.WithResourceDescription("Frontmatter and body conventions every post must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContentFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) buildMode(req mcp.CallToolRequest) (models.BuildMode, error) {
	raw := req.GetString("mode", "")
	if raw == "" {
		return s.mode, nil
	}
	return models.ParseBuildMode(raw)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// contentError turns a content error into a tool error naming its kind and slug.
func contentError(err error) *mcp.CallToolResult {
	var b strings.Builder
	if kind := apperr.KindOf(err); kind != nil {
		b.WriteString(kind.Error())
		b.WriteString(": ")
	}
	b.WriteString(err.Error())
	return mcp.NewToolResultError(b.String())
}

func (s *Server) listPosts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := s.buildMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	posts, err := s.svc.ListPosts(ctx, mode)
	if err != nil {
		return contentError(err), nil
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return jsonResult(posts), nil
}

func (s *Server) listSlugs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mode, err := s.buildMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	slugs, err := s.svc.ListSlugs(ctx, mode)
	if err != nil {
		return contentError(err), nil
	}
	return mcp.NewToolResultText(strings.Join(slugs, "\n")), nil
}

func (s *Server) isScrollyPost(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%t", s.svc.IsScrollyPost(slug))), nil
}

func (s *Server) renderPost(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	mode, err := s.buildMode(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	post, err := s.svc.Render(ctx, slug, mode)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", slug)), nil
		}
		return contentError(err), nil
	}
	return jsonResult(post), nil
}

func (s *Server) searchPosts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.db == nil {
		return mcp.NewToolResultError("search catalogue disabled"), nil
	}
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	results, err := s.db.Search(query, limit, s.mode == models.ModeDevelopment)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if results == nil {
		results = []catalog.SearchResult{}
	}
	return jsonResult(results), nil
}

func (s *Server) getContentContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ContentFormatContract), nil
}

func (s *Server) readContentFormatResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ContractURI,
			MIMEType: "text/markdown",
			Text:     ContentFormatContract,
		},
	}, nil
}
