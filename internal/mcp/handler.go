package mcp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// pageArgs reads the page and page_size arguments shared by the
// submission tools. Out-of-range values are pulled back into range rather
// than rejected.
func pageArgs(request mcp.CallToolRequest) (page, pageSize int) {
	page = max(request.GetInt("page", 1), 1)
	pageSize = clamp(request.GetInt("page_size", defaultPageSize), 1, maxPageSize)
	return page, pageSize
}

// contentArgs reads and checks the get_content arguments. The page name is
// case-insensitive; blog and album need a slug.
func contentArgs(request mcp.CallToolRequest) (name, slug string, err error) {
	name, err = request.RequireString("page")
	if err != nil {
		return "", "", fmt.Errorf("missing required parameter %q", "page")
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if _, ok := contentPages[name]; !ok {
		return "", "", fmt.Errorf("unknown page %q (available: %s)", name, strings.Join(contentPageNames(), ", "))
	}
	slug = strings.TrimSpace(request.GetString("slug", ""))
	if (name == "blog" || name == "album") && slug == "" {
		return "", "", fmt.Errorf("the %s page needs a slug", name)
	}
	return name, slug, nil
}

// jsonResult returns data as indented JSON text.
func jsonResult(data any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}

// toolError reports a failure to the client as a tool result, leaving the
// session open.
func toolError(format string, args ...any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...)), nil
}

func clamp(val, lo, hi int) int {
	return min(max(val, lo), hi)
}
