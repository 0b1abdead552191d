package api

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/pipeline"
)

// --- helpers ---

func newTestMCPDeps(t *testing.T) MCPDeps {
	t.Helper()
	deps, _ := newTestDeps(t)
	return MCPDeps{
		Generator: deps.Generator,
		History:   deps.History,
		Composer:  deps.Composer,
		Context:   deps.Context,
		Version:   "test",
	}
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

// --- tests ---

func TestNewMCPServer(t *testing.T) {
	if s := NewMCPServer(newTestMCPDeps(t)); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	deps := newTestMCPDeps(t)
	deps.Context = nil
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer without context returned nil")
	}
}

func TestMCPTool_GenerateComponent(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpGenerateComponent(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_component", map[string]interface{}{
		"prompt": "pricing table",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var c pipeline.Component
	if err := json.Unmarshal([]byte(toolText(t, result)), &c); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !c.Success || c.Name != "PricingTable" {
		t.Errorf("component = %+v", c)
	}
	if deps.History.Len() != 1 {
		t.Errorf("history len = %d, want 1", deps.History.Len())
	}
}

func TestMCPTool_GenerateComponent_MissingPrompt(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpGenerateComponent(deps)

	for _, args := range []map[string]interface{}{{}, {"prompt": "   "}} {
		result, err := handler(context.Background(), makeCallToolRequest("generate_component", args))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Errorf("expected error result for %v", args)
		}
	}
}

func TestMCPTool_SearchHistory(t *testing.T) {
	deps := newTestMCPDeps(t)
	gen := mcpGenerateComponent(deps)
	for _, p := range []string{"glow button", "contact form", "animated button"} {
		if _, err := gen(context.Background(), makeCallToolRequest("generate_component", map[string]interface{}{"prompt": p})); err != nil {
			t.Fatal(err)
		}
	}

	handler := mcpSearchHistory(deps)
	result, err := handler(context.Background(), makeCallToolRequest("search_history", map[string]interface{}{
		"query": "button",
		"limit": 1,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var entries []history.Entry
	if err := json.Unmarshal([]byte(toolText(t, result)), &entries); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(entries) != 1 || !strings.Contains(strings.ToLower(entries[0].Name), "button") {
		t.Errorf("entries = %+v", entries)
	}
}

func TestMCPTool_SearchHistory_Empty(t *testing.T) {
	deps := newTestMCPDeps(t)
	result, err := mcpSearchHistory(deps)(context.Background(), makeCallToolRequest("search_history", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := toolText(t, result); text != "[]" {
		t.Errorf("text = %q, want []", text)
	}
}

func TestMCPTool_GeneratePage(t *testing.T) {
	deps := newTestMCPDeps(t)
	handler := mcpGeneratePage(deps)

	result, err := handler(context.Background(), makeCallToolRequest("generate_page", map[string]interface{}{
		"template_id":  "saas-pricing",
		"color_scheme": "dark",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var page struct {
		TemplateID string `json:"templateId"`
		Code       string `json:"code"`
		Theme      struct {
			ColorScheme string `json:"colorScheme"`
		} `json:"theme"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &page); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if page.TemplateID != "saas-pricing" || page.Theme.ColorScheme != "dark" || !strings.Contains(page.Code, "SaaSPricingPage") {
		t.Errorf("page = %s / %s", page.TemplateID, page.Theme.ColorScheme)
	}

	result, err = handler(context.Background(), makeCallToolRequest("generate_page", map[string]interface{}{
		"template_id": "missing",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError || !strings.Contains(toolText(t, result), "list_page_templates") {
		t.Errorf("expected unknown template error, got %q", toolText(t, result))
	}
}

func TestMCPTool_ListPageTemplates(t *testing.T) {
	deps := newTestMCPDeps(t)
	result, err := mcpListPageTemplates(deps)(context.Background(), makeCallToolRequest("list_page_templates", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var tpls []struct {
		ID       string   `json:"id"`
		Sections []string `json:"sections"`
	}
	if err := json.Unmarshal([]byte(toolText(t, result)), &tpls); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(tpls) != 4 || tpls[0].ID != "landing" || len(tpls[0].Sections) != 5 {
		t.Errorf("templates = %+v", tpls)
	}
}

func TestMCPResource_Recent(t *testing.T) {
	deps := newTestMCPDeps(t)
	long := "glow button " + strings.Repeat("x", 300)
	if _, err := mcpGenerateComponent(deps)(context.Background(), makeCallToolRequest("generate_component", map[string]interface{}{"prompt": long})); err != nil {
		t.Fatal(err)
	}

	contents, err := mcpResourceRecent(deps)(context.Background(), makeReadResourceRequest("history://recent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}
	var summaries []struct {
		Name   string `json:"name"`
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal([]byte(tc.Text), &summaries); err != nil {
		t.Fatalf("failed to parse resource: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "GlowButton" {
		t.Fatalf("summaries = %+v", summaries)
	}
	if !strings.HasSuffix(summaries[0].Prompt, "...") || len([]rune(summaries[0].Prompt)) != 203 {
		t.Errorf("prompt not truncated: %d runes", len([]rune(summaries[0].Prompt)))
	}
}

func TestMCPResource_Insights(t *testing.T) {
	deps := newTestMCPDeps(t)
	contents, err := mcpResourceInsights(deps)(context.Background(), makeReadResourceRequest("context://insights"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	var in insights.Insights
	if err := json.Unmarshal([]byte(tc.Text), &in); err != nil {
		t.Fatalf("failed to parse resource: %v", err)
	}
	if in.StylingApproach != "tailwind" || tc.URI != "context://insights" {
		t.Errorf("insights = %+v", in)
	}
}
