package mcp

import (
	"context"
	"errors"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/clinicsite/clinicsite/internal/content"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// contentPages maps the get_content page names to loaders. Pages that take
// a slug receive it; the others ignore it.
var contentPages = map[string]func(ctx context.Context, p *content.Pages, slug string) (any, error){
	"home":         func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.Home(ctx) },
	"about":        func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.About(ctx) },
	"services":     func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.Services(ctx) },
	"faqs":         func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.FAQs(ctx) },
	"testimonials": func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.AllTestimonials(ctx) },
	"blogs":        func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.Blogs(ctx) },
	"gallery":      func(ctx context.Context, p *content.Pages, _ string) (any, error) { return p.Gallery(ctx) },
	"blog":         func(ctx context.Context, p *content.Pages, slug string) (any, error) { return p.BlogBySlug(ctx, slug) },
	"album":        func(ctx context.Context, p *content.Pages, slug string) (any, error) { return p.AlbumBySlug(ctx, slug) },
}

func contentPageNames() []string {
	names := make([]string, 0, len(contentPages))
	for name := range contentPages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// registerTools registers the read-only tools on the given server.
func (s *MCPServer) registerTools(srv *server.MCPServer) {
	srv.AddTool(
		mcp.NewTool("list_submissions",
			mcp.WithDescription(
				"List contact form submissions, newest first. Returns the page of "+
					"submissions together with the total count so further pages can be requested.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithNumber("page",
				mcp.Description("1-based page number (default 1)"),
			),
			mcp.WithNumber("page_size",
				mcp.Description("Submissions per page (default 25, max 200)"),
			),
		),
		s.handleListSubmissions,
	)

	srv.AddTool(
		mcp.NewTool("count_submissions",
			mcp.WithDescription("Count all stored contact form submissions."),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
		),
		s.handleCountSubmissions,
	)

	srv.AddTool(
		mcp.NewTool("get_content",
			mcp.WithDescription(
				"Fetch a brochure page document from the content store as JSON. "+
					"The blog and album pages also need a slug. The testimonials page "+
					"includes entries still awaiting approval.",
			),
			mcp.WithToolAnnotation(readOnlyAnnotation()),
			mcp.WithString("page",
				mcp.Required(),
				mcp.Description("Page to fetch"),
				mcp.Enum(contentPageNames()...),
			),
			mcp.WithString("slug",
				mcp.Description("Slug of the blog post or album"),
			),
		),
		s.handleGetContent,
	)
}

func (s *MCPServer) handleListSubmissions(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	page, pageSize := pageArgs(request)
	result, err := s.submissions.PageSubmissions(ctx, page, pageSize)
	if err != nil {
		return toolError("Failed to list submissions: %v", err)
	}
	return jsonResult(result)
}

func (s *MCPServer) handleCountSubmissions(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	total, err := s.submissions.CountSubmissions(ctx)
	if err != nil {
		return toolError("Failed to count submissions: %v", err)
	}
	return jsonResult(map[string]int64{"total": total})
}

func (s *MCPServer) handleGetContent(
	ctx context.Context,
	request mcp.CallToolRequest,
) (*mcp.CallToolResult, error) {

	if s.pages == nil {
		return toolError("No content project is configured")
	}
	name, slug, err := contentArgs(request)
	if err != nil {
		return toolError("%v", err)
	}

	doc, err := contentPages[name](ctx, s.pages, slug)
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			return toolError("No %s with slug %q", name, slug)
		}
		return toolError("Failed to load %s: %v", name, err)
	}
	return jsonResult(doc)
}
