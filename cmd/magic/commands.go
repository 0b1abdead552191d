package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/magic/internal/api"
	"github.com/kalambet/magic/internal/composer"
	"github.com/kalambet/magic/internal/config"
	"github.com/kalambet/magic/internal/history"
	"github.com/kalambet/magic/internal/insights"
	"github.com/kalambet/magic/internal/pipeline"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeOutput writes s to path, or to w when path is empty.
func writeOutput(w io.Writer, path, s string) error {
	if path == "" {
		_, err := io.WriteString(w, s)
		return err
	}
	if err := os.WriteFile(path, []byte(s), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	printSuccess("Wrote %s", path)
	return nil
}

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Generate a component from a prompt",
	Long: `Generate a component from a natural-language prompt.

Examples:
  magic generate "glowing purple button"
  magic generate "pricing table with enterprise tier" --output Pricing.tsx
  magic generate "contact form" --project ../web --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		search, _ := cmd.Flags().GetString("search")
		file, _ := cmd.Flags().GetString("file")
		project, _ := cmd.Flags().GetString("project")
		output, _ := cmd.Flags().GetString("output")
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/generate", api.GenerateRequest{
			Prompt:           strings.Join(args, " "),
			SearchQuery:      search,
			CurrentFilePath:  file,
			ProjectDirectory: project,
		})
		if err != nil {
			return err
		}

		var c pipeline.Component
		if err := decodeJSON(resp, &c); err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), c)
		}
		printSuccess("Generated %s (%s)", c.Name, c.Metadata.Source)
		if c.Metadata.Note != "" {
			printWarning("%s", c.Metadata.Note)
		}
		return writeOutput(cmd.OutOrStdout(), output, c.Code)
	},
}

func init() {
	generateCmd.Flags().String("search", "", "search query hint")
	generateCmd.Flags().String("file", "", "path of the file the component is for")
	generateCmd.Flags().String("project", "", "project directory to analyze instead of the configured one")
	generateCmd.Flags().StringP("output", "o", "", "write the code to a file instead of stdout")
	generateCmd.Flags().Bool("json", false, "print the full result as JSON")
}

// --- history ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and manage generated components",
}

func printEntries(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No components found.")
		return
	}
	for _, e := range entries {
		marker := " "
		if e.Stats.Favorite {
			marker = colorize(colorYellow, "★")
		}
		fmt.Fprintf(w, "%s %s  %-20s %-14s %s  %s\n",
			marker,
			colorize(colorCyan, shortID(e.ID)),
			e.Name,
			e.Metadata.Type,
			ago(e.Timestamp),
			truncate(e.Prompt, 60),
		)
	}
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent components",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		favorites, _ := cmd.Flags().GetBool("favorites")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/v1/history?limit=%d", limit)
		if favorites {
			path = "/v1/history/favorites"
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var entries []history.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a component and its code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/history/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var e history.Entry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, e)
		}
		printStatus("Name", "%s (v%d)", e.Name, e.Version)
		printStatus("Prompt", "%s", e.Prompt)
		printStatus("Type", "%s", e.Metadata.Type)
		printStatus("Source", "%s", e.Metadata.Source)
		printStatus("Created", "%s", ago(e.Timestamp))
		printStatus("Used", "%s times", countLabel(e.Stats.UsageCount, 0))
		if e.Stats.Rating > 0 {
			printStatus("Rating", "%s", strings.Repeat("★", e.Stats.Rating))
		}
		_, err = fmt.Fprintln(out, e.Code)
		return err
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search components by name, prompt, or tag",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := url.Values{"q": {strings.Join(args, " ")}}
		if limit > 0 {
			q.Set("limit", fmt.Sprint(limit))
		}
		resp, err := client.get(cmd.Context(), "/v1/history/search?"+q.Encode())
		if err != nil {
			return err
		}

		var entries []history.Entry
		if err := decodeJSON(resp, &entries); err != nil {
			return err
		}
		printEntries(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyFavoriteCmd = &cobra.Command{
	Use:   "favorite <id>",
	Short: "Toggle a component's favorite flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/history/"+url.PathEscape(args[0])+"/favorite", nil)
		if err != nil {
			return err
		}

		var result struct {
			Favorite bool `json:"favorite"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if result.Favorite {
			printSuccess("Added %s to favorites", args[0])
		} else {
			printSuccess("Removed %s from favorites", args[0])
		}
		return nil
	},
}

var historyRateCmd = &cobra.Command{
	Use:   "rate <id> <1-5>",
	Short: "Rate a component",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		rating, err := strconv.Atoi(args[1])
		if err != nil || rating < 1 || rating > 5 {
			return fmt.Errorf("rating must be a number between 1 and 5")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.put(cmd.Context(), "/v1/history/"+url.PathEscape(args[0])+"/rating", map[string]int{"rating": rating})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Rated %s %s", args[0], strings.Repeat("★", rating))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a component",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/history/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted %s", args[0])
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a component as a self-contained JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/history/"+url.PathEscape(args[0])+"/export")
		if err != nil {
			return err
		}
		data, err := readBody(resp)
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, string(data))
	},
}

var historyImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a component exported with 'history export'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/history/import", data)
		if err != nil {
			return err
		}

		var e history.Entry
		if err := decodeJSON(resp, &e); err != nil {
			return err
		}
		printSuccess("Imported %s as %s", e.Name, e.ID)
		return nil
	},
}

var historyStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/history/stats")
		if err != nil {
			return err
		}

		var s history.Statistics
		if err := decodeJSON(resp, &s); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Components:"), countLabel(s.TotalEntries, 0))
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Favorites:"), countLabel(s.Favorites, 0))
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Collections:"), countLabel(s.Collections, 0))
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Total uses:"), countLabel(s.TotalUsage, 0))
		if s.RatedEntries > 0 {
			fmt.Fprintf(out, "%s %.1f (%d rated)\n", colorize(colorBold, "Average rating:"), s.AverageRating, s.RatedEntries)
		}
		if s.Newest != nil {
			fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Last generated:"), ago(*s.Newest))
		}
		types := make([]string, 0, len(s.ByType))
		for t := range s.ByType {
			types = append(types, string(t))
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Fprintf(out, "  %-14s %d\n", t, s.ByType[history.Type(t)])
		}
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every component, favorites included",
	RunE: func(cmd *cobra.Command, args []string) error {
		confirm, _ := cmd.Flags().GetBool("confirm")
		if !confirm {
			printWarning("This will delete all components and empty every collection. Use --confirm to proceed.")
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/history")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("History cleared")
		return nil
	},
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of components to list")
	historyListCmd.Flags().Bool("favorites", false, "list favorites only")
	historyShowCmd.Flags().Bool("json", false, "print the entry as JSON")
	historySearchCmd.Flags().Int("limit", 0, "maximum number of results")
	historyExportCmd.Flags().StringP("output", "o", "", "output file path (default: stdout)")
	historyClearCmd.Flags().Bool("confirm", false, "confirm deletion")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyFavoriteCmd)
	historyCmd.AddCommand(historyRateCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyImportCmd)
	historyCmd.AddCommand(historyStatsCmd)
	historyCmd.AddCommand(historyClearCmd)
}

// --- collections ---

var collectionsCmd = &cobra.Command{
	Use:     "collections",
	Aliases: []string{"collection"},
	Short:   "Group components into named collections",
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/collections")
		if err != nil {
			return err
		}

		var cols []history.Collection
		if err := decodeJSON(resp, &cols); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(cols) == 0 {
			fmt.Fprintln(out, "No collections found.")
			return nil
		}
		for _, c := range cols {
			fmt.Fprintf(out, "%s  %-24s %s components  updated %s\n",
				colorize(colorCyan, shortID(c.ID)),
				c.Name,
				countLabel(len(c.Components), 0),
				ago(c.UpdatedAt),
			)
		}
		return nil
	},
}

var collectionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a collection as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/collections/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}

		var c history.Collection
		if err := decodeJSON(resp, &c); err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), c)
	},
}

var collectionsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a collection",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, _ := cmd.Flags().GetString("description")
		tags, _ := cmd.Flags().GetString("tags")
		public, _ := cmd.Flags().GetBool("public")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/collections", api.CollectionRequest{
			Name:        args[0],
			Description: desc,
			Tags:        splitList(tags),
			IsPublic:    public,
		})
		if err != nil {
			return err
		}

		var c history.Collection
		if err := decodeJSON(resp, &c); err != nil {
			return err
		}
		printSuccess("Created collection %s (%s)", c.Name, c.ID)
		return nil
	},
}

var collectionsAddCmd = &cobra.Command{
	Use:   "add <collection-id> <component-id>",
	Short: "Add a component to a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/collections/"+url.PathEscape(args[0])+"/components",
			map[string]string{"componentId": args[1]})
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Added %s to %s", args[1], args[0])
		return nil
	},
}

var collectionsRemoveCmd = &cobra.Command{
	Use:   "remove <collection-id> <component-id>",
	Short: "Remove a component from a collection",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(),
			"/v1/collections/"+url.PathEscape(args[0])+"/components/"+url.PathEscape(args[1]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Removed %s from %s", args[1], args[0])
		return nil
	},
}

var collectionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a collection (its components are kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/collections/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Deleted collection %s", args[0])
		return nil
	},
}

func init() {
	collectionsCreateCmd.Flags().String("description", "", "collection description")
	collectionsCreateCmd.Flags().String("tags", "", "comma-separated tags")
	collectionsCreateCmd.Flags().Bool("public", false, "mark the collection public")

	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsShowCmd)
	collectionsCmd.AddCommand(collectionsCreateCmd)
	collectionsCmd.AddCommand(collectionsAddCmd)
	collectionsCmd.AddCommand(collectionsRemoveCmd)
	collectionsCmd.AddCommand(collectionsDeleteCmd)
}

// --- page ---

var pageCmd = &cobra.Command{
	Use:   "page",
	Short: "Compose full pages from section templates",
}

var pageTemplatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List page templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/pages/templates")
		if err != nil {
			return err
		}

		var tpls []composer.PageTemplate
		if err := decodeJSON(resp, &tpls); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, t := range tpls {
			types := make([]string, len(t.Sections))
			for i, s := range t.Sections {
				types[i] = s.Type
			}
			fmt.Fprintf(out, "%s  %s\n", colorize(colorBold, t.ID), t.Name)
			if t.Description != "" {
				fmt.Fprintf(out, "    %s\n", t.Description)
			}
			fmt.Fprintf(out, "    sections: %s\n", strings.Join(types, ", "))
		}
		return nil
	},
}

// pageCustomizations builds Customizations from the page generate flags.
func pageCustomizations(cmd *cobra.Command) (*composer.Customizations, error) {
	name, _ := cmd.Flags().GetString("name")
	project, _ := cmd.Flags().GetString("project")
	exclude, _ := cmd.Flags().GetString("exclude")
	sections, _ := cmd.Flags().GetStringArray("section")

	cust := &composer.Customizations{
		Name:             name,
		Theme:            themeFlags(cmd),
		ExcludeSections:  splitList(exclude),
		ProjectDirectory: project,
	}
	for _, s := range sections {
		id, prompt, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("invalid --section %q, want <section-id>=<prompt>", s)
		}
		if cust.SectionPrompts == nil {
			cust.SectionPrompts = make(map[string]string)
		}
		cust.SectionPrompts[strings.TrimSpace(id)] = strings.TrimSpace(prompt)
	}
	return cust, nil
}

func themeFlags(cmd *cobra.Command) composer.ThemeSpec {
	style, _ := cmd.Flags().GetString("style")
	scheme, _ := cmd.Flags().GetString("color-scheme")
	primary, _ := cmd.Flags().GetString("primary")
	return composer.ThemeSpec{Style: style, ColorScheme: scheme, PrimaryColor: primary}
}

func addThemeFlags(cmd *cobra.Command) {
	cmd.Flags().String("style", "", "theme style (modern, minimal, bold, playful, corporate)")
	cmd.Flags().String("color-scheme", "", "light or dark")
	cmd.Flags().String("primary", "", "primary color")
}

var pageGenerateCmd = &cobra.Command{
	Use:   "generate <template-id>",
	Short: "Generate a page from a template",
	Long: `Generate a page from a template, streaming progress as sections are built.

Examples:
  magic page generate landing --name Acme --color-scheme dark
  magic page generate portfolio --exclude contact --section hero="about rockets" -o Page.tsx`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		asJSON, _ := cmd.Flags().GetBool("json")

		cust, err := pageCustomizations(cmd)
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		page, err := streamPage(cmd.Context(), client, api.PageRequest{
			TemplateID:     args[0],
			Customizations: cust,
		}, func(msg string, pct int) {
			printStep("[%3d%%] %s", pct, msg)
		})
		if err != nil {
			return err
		}

		if asJSON {
			return printJSON(cmd.OutOrStdout(), page)
		}
		printSuccess("Generated %s with %d sections", page.Name, len(page.Sections))
		return writeOutput(cmd.OutOrStdout(), output, page.Code)
	},
}

// streamPage requests a page as Server-Sent Events, reporting each progress
// event to onProgress and returning the final page.
func streamPage(ctx context.Context, c *apiClient, req api.PageRequest, onProgress composer.ProgressFunc) (composer.GeneratedPage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return composer.GeneratedPage{}, fmt.Errorf("marshalling request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/pages", bytes.NewReader(body))
	if err != nil {
		return composer.GeneratedPage{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return composer.GeneratedPage{}, fmt.Errorf("server not reachable, is magic serve running? (%w)", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return composer.GeneratedPage{}, err
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data := []byte(strings.TrimPrefix(line, "data: "))
			switch event {
			case "progress":
				var p struct {
					Message string `json:"message"`
					Percent int    `json:"percent"`
				}
				if json.Unmarshal(data, &p) == nil && onProgress != nil {
					onProgress(p.Message, p.Percent)
				}
			case "page":
				var page composer.GeneratedPage
				if err := json.Unmarshal(data, &page); err != nil {
					return composer.GeneratedPage{}, fmt.Errorf("decoding page: %w", err)
				}
				return page, nil
			case "error":
				var e struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				json.Unmarshal(data, &e)
				return composer.GeneratedPage{}, fmt.Errorf("page generation failed: %s", e.Error.Message)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return composer.GeneratedPage{}, fmt.Errorf("reading event stream: %w", err)
	}
	return composer.GeneratedPage{}, fmt.Errorf("event stream ended without a page")
}

var pagePreviewCmd = &cobra.Command{
	Use:   "preview <section-type>",
	Short: "Render one section type as a standalone page",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/v1/pages/preview", api.PreviewRequest{
			Type:  args[0],
			Theme: themeFlags(cmd),
		})
		if err != nil {
			return err
		}

		var page composer.GeneratedPage
		if err := decodeJSON(resp, &page); err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), output, page.Code)
	},
}

var pageCreateCmd = &cobra.Command{
	Use:   "create <file.yaml>",
	Short: "Register custom page templates from a YAML file",
	Long: `Register custom page templates with the running server. The file uses
the same format as pages.templates_file:

  templates:
    - id: launch
      name: Launch
      sections:
        - type: hero
          layout: {type: flex, direction: column}
          components:
            - type: hero
              prompt: gradient hero with countdown`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening templates: %w", err)
		}
		defer f.Close()

		tpls, err := composer.LoadTemplates(f)
		if err != nil {
			return err
		}
		if len(tpls) == 0 {
			printWarning("No templates in %s", args[0])
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		for _, t := range tpls {
			resp, err := client.post(cmd.Context(), "/v1/pages/templates", t)
			if err != nil {
				return err
			}
			var created composer.PageTemplate
			if err := decodeJSON(resp, &created); err != nil {
				return fmt.Errorf("template %q: %w", t.Name, err)
			}
			printSuccess("Registered %s (%s)", created.Name, created.ID)
		}
		return nil
	},
}

func init() {
	pageGenerateCmd.Flags().String("name", "", "page name")
	pageGenerateCmd.Flags().String("project", "", "project directory to analyze")
	pageGenerateCmd.Flags().String("exclude", "", "comma-separated section IDs to skip")
	pageGenerateCmd.Flags().StringArray("section", nil, "extra prompt for a section, as <section-id>=<prompt>")
	pageGenerateCmd.Flags().StringP("output", "o", "", "write the code to a file instead of stdout")
	pageGenerateCmd.Flags().Bool("json", false, "print the full page as JSON")
	addThemeFlags(pageGenerateCmd)

	pagePreviewCmd.Flags().StringP("output", "o", "", "write the code to a file instead of stdout")
	addThemeFlags(pagePreviewCmd)

	pageCmd.AddCommand(pageTemplatesCmd)
	pageCmd.AddCommand(pageGenerateCmd)
	pageCmd.AddCommand(pagePreviewCmd)
	pageCmd.AddCommand(pageCreateCmd)
}

// --- context ---

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Inspect the project analysis used for context-aware generation",
}

var contextShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current project insights",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/v1/context")
		if err != nil {
			return err
		}

		var in insights.Insights
		if err := decodeJSON(resp, &in); err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if asJSON {
			return printJSON(out, in)
		}
		if in.Fallback {
			printWarning("No project files found; showing default insights")
		}
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Framework:"), in.PrimaryFramework())
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Styling:"), in.StylingApproach)
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Files scanned:"), countLabel(in.FilesScanned, 0))
		fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Analyzed:"), ago(in.AnalyzedAt))
		if len(in.DesignSystem.Colors) > 0 {
			fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Colors:"), strings.Join(in.DesignSystem.Colors, ", "))
		}
		if len(in.ExistingComponents) > 0 {
			fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Components:"), strings.Join(in.ExistingComponents, ", "))
		}
		if len(in.Recommendations.BestMatches) > 0 {
			fmt.Fprintf(out, "%s %s\n", colorize(colorBold, "Best matches:"), strings.Join(in.Recommendations.BestMatches, ", "))
		}
		return nil
	},
}

var contextClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop cached insights so the next request rescans the project",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/v1/context")
		if err != nil {
			return err
		}
		if err := decodeJSON(resp, nil); err != nil {
			return err
		}
		printSuccess("Context cache cleared")
		return nil
	},
}

func init() {
	contextShowCmd.Flags().Bool("json", false, "print insights as JSON")
	contextCmd.AddCommand(contextShowCmd)
	contextCmd.AddCommand(contextClearCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value. Valid keys:\n  " + strings.Join(config.ValidKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s", key)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
