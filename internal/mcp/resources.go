package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	latestSubmissionsURI   = "clinic://submissions/latest"
	latestSubmissionsLimit = 20
)

// registerResources adds MCP resource definitions to the server. Resources
// provide read-only data that LLM clients can load into their context.
func (s *MCPServer) registerResources(srv *server.MCPServer) {
	srv.AddResource(
		mcp.NewResource(
			latestSubmissionsURI,
			"Latest Contact Submissions",
			mcp.WithResourceDescription(
				"The 20 most recent contact form submissions, newest first.",
			),
			mcp.WithMIMEType("application/json"),
		),
		s.handleLatestSubmissions,
	)
}

// handleLatestSubmissions returns the first page of submissions.
func (s *MCPServer) handleLatestSubmissions(
	ctx context.Context,
	request mcp.ReadResourceRequest,
) ([]mcp.ResourceContents, error) {

	page, err := s.submissions.PageSubmissions(ctx, 1, latestSubmissionsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	b, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal submissions: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      latestSubmissionsURI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}
