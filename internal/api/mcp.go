package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/magic/internal/composer"
	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/pipeline"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Generator Generator
	History   *history.Store
	Composer  *composer.Composer
	Context   ContextProvider // optional; if nil, context://insights is not registered
	Version   string
}

// NewMCPServer creates an MCP server with the generation tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"magic",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("magic generates UI components and pages that follow the current project's design conventions."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("generate_component",
			mcp.WithDescription("Generate a UI component from a natural-language description. Always returns code."),
			mcp.WithString("prompt", mcp.Description("What to build, e.g. 'glowing purple button'"), mcp.Required()),
			mcp.WithString("search_query", mcp.Description("Optional refined search query")),
			mcp.WithString("current_file", mcp.Description("Path of the file being edited")),
			mcp.WithString("project_directory", mcp.Description("Project root to analyze instead of the default")),
		),
		mcpGenerateComponent(deps),
	)

	s.AddTool(
		mcp.NewTool("search_history",
			mcp.WithDescription("Search previously generated components by name, prompt, category or tag."),
			mcp.WithString("query", mcp.Description("Search text; empty returns the most recent entries")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
		),
		mcpSearchHistory(deps),
	)

	s.AddTool(
		mcp.NewTool("generate_page",
			mcp.WithDescription("Compose a full page from a page template, generating every section."),
			mcp.WithString("template_id", mcp.Description("Page template id, see list_page_templates"), mcp.Required()),
			mcp.WithString("name", mcp.Description("Page component name")),
			mcp.WithString("style", mcp.Description("Theme style: modern, minimal, bold, playful, corporate")),
			mcp.WithString("color_scheme", mcp.Description("light or dark")),
			mcp.WithString("primary_color", mcp.Description("Primary color family, e.g. blue")),
		),
		mcpGeneratePage(deps),
	)

	s.AddTool(
		mcp.NewTool("list_page_templates",
			mcp.WithDescription("List the page templates available to generate_page."),
		),
		mcpListPageTemplates(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"history://recent",
			"Recent Components",
			mcp.WithResourceDescription("Last 10 generated components (without code)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	if deps.Context != nil {
		s.AddResource(
			mcp.NewResource(
				"context://insights",
				"Project Insights",
				mcp.WithResourceDescription("Design system and framework usage detected in the project"),
				mcp.WithMIMEType("application/json"),
			),
			mcpResourceInsights(deps),
		)
	}

	return s
}

func mcpGenerateComponent(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		prompt, err := req.RequireString("prompt")
		if err != nil || strings.TrimSpace(prompt) == "" {
			return mcpError("prompt is required"), nil
		}

		c := deps.Generator.Generate(ctx, pipeline.Request{
			Prompt:           prompt,
			SearchQuery:      req.GetString("search_query", ""),
			CurrentFilePath:  req.GetString("current_file", ""),
			ProjectDirectory: req.GetString("project_directory", ""),
		})

		b, err := json.Marshal(c)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal component: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSearchHistory(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		entries := deps.History.Search(query)
		if len(entries) > limit {
			entries = entries[:limit]
		}

		b, err := json.Marshal(entries)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpGeneratePage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("template_id")
		if err != nil {
			return mcpError("template_id is required"), nil
		}

		page, err := deps.Composer.GeneratePage(ctx, id, &composer.Customizations{
			Name: req.GetString("name", ""),
			Theme: composer.ThemeSpec{
				Style:        req.GetString("style", ""),
				ColorScheme:  req.GetString("color_scheme", ""),
				PrimaryColor: req.GetString("primary_color", ""),
			},
		}, nil)
		if errors.Is(err, composer.ErrUnknownTemplate) {
			return mcpError(fmt.Sprintf("unknown page template %q; call list_page_templates", id)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("page generation failed: %v", err)), nil
		}

		b, err := json.Marshal(page)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal page: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpListPageTemplates(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type templateSummary struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Description string   `json:"description,omitempty"`
			Sections    []string `json:"sections"`
		}

		tpls := deps.Composer.Templates()
		out := make([]templateSummary, len(tpls))
		for i, t := range tpls {
			secs := make([]string, len(t.Sections))
			for j, s := range t.Sections {
				secs[j] = s.ID
			}
			out[i] = templateSummary{ID: t.ID, Name: t.Name, Description: t.Description, Sections: secs}
		}

		b, err := json.Marshal(out)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal templates: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries := deps.History.List(10)

		type entrySummary struct {
			ID        string       `json:"id"`
			Name      string       `json:"name"`
			Type      history.Type `json:"type"`
			Version   int          `json:"version"`
			CreatedAt string       `json:"created_at"`
			Prompt    string       `json:"prompt"`
		}

		summaries := make([]entrySummary, len(entries))
		for i, e := range entries {
			prompt := e.Prompt
			if utf8.RuneCountInString(prompt) > 200 {
				runes := []rune(prompt)
				prompt = string(runes[:200]) + "..."
			}
			summaries[i] = entrySummary{
				ID:        e.ID,
				Name:      e.Name,
				Type:      e.Metadata.Type,
				Version:   e.Version,
				CreatedAt: e.Timestamp.Format(time.RFC3339),
				Prompt:    prompt,
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal entries: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpResourceInsights(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Context.GetOrAnalyze(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to marshal insights: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
