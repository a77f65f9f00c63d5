// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes read-only queries over built documents via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/docservice"
	"github.com/starford/kiln/internal/index"
	"github.com/starford/kiln/internal/models"
)

const contractURI = "kiln://metadata-format"

// Server wraps the MCP server with kiln tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all kiln tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"kiln",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_documents",
		mcp.WithDescription("List documents of the last build, optionally only the members of one collection or taxonomy."),
		mcp.WithString("tag", mcp.Description("Only documents in this collection (declared tag)")),
		mcp.WithString("taxonomy", mcp.Description("Only documents under this directory segment")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 100)")),
		mcp.WithNumber("offset", mcp.Description("Page offset")),
	), s.listDocuments)

	s.mcp.AddTool(mcp.NewTool("read_metadata",
		mcp.WithDescription("Parse the current metadata block of a document and return its projection, tags and draft flag."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path relative to the content root (e.g. posts/hello.md)")),
	), s.readMetadata)

	s.mcp.AddTool(mcp.NewTool("list_collections",
		mcp.WithDescription("List collections (declared tags) with their document counts."),
	), s.listCollections)

	s.mcp.AddTool(mcp.NewTool("list_taxonomies",
		mcp.WithDescription("List taxonomies (directory segments) with their document counts."),
	), s.listTaxonomies)

	s.mcp.AddTool(mcp.NewTool("get_metadata_contract",
		mcp.WithDescription("Returns the metadata block format kiln understands. "+
			"Call this before writing documents to stay inside the supported subset."),
	), s.getMetadataContract)

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Metadata Format Contract",
			mcp.WithResourceDescription("The metadata block subset accepted by the kiln parser."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f := index.Filter{Limit: 100}
	if n, err := req.RequireInt("limit"); err == nil && n > 0 {
		f.Limit = n
	}
	if n, err := req.RequireInt("offset"); err == nil && n > 0 {
		f.Offset = n
	}
	tag, _ := req.RequireString("tag")
	taxonomy, _ := req.RequireString("taxonomy")
	switch {
	case tag != "" && taxonomy != "":
		return mcp.NewToolResultError("tag and taxonomy are mutually exclusive"), nil
	case tag != "":
		f.Kind, f.Name = models.GroupCollection, tag
	case taxonomy != "":
		f.Kind, f.Name = models.GroupTaxonomy, taxonomy
	}

	docs, total, err := s.svc.ListDocuments(ctx, f)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"documents": docs, "total": total}), nil
}

func (s *Server) readMetadata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meta, err := s.svc.Metadata(ctx, path)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(meta), nil
}

func (s *Server) listCollections(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listGroups(ctx, models.GroupCollection)
}

func (s *Server) listTaxonomies(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.listGroups(ctx, models.GroupTaxonomy)
}

func (s *Server) listGroups(ctx context.Context, kind string) (*mcp.CallToolResult, error) {
	groups, err := s.svc.Groups(ctx, kind)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(groups), nil
}

func (s *Server) getMetadataContract(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MetadataContract), nil
}

func (s *Server) readContractResource(context.Context, mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     MetadataContract,
		},
	}, nil
}
