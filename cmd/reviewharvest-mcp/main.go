package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/reviewharvest/models"
)

// sitesResponse mirrors GET /api/v1/sites.
type sitesResponse struct {
	Sites []models.SiteInfo `json:"sites"`
}

func main() {
	apiURL := os.Getenv("HARVEST_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	apiKey := os.Getenv("HARVEST_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "HARVEST_API_KEY is required")
		os.Exit(1)
	}

	s := server.NewMCPServer(
		"reviewharvest",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	harvestTool := mcp.NewTool("harvest_reviews",
		mcp.WithDescription("Collect customer reviews (author, score, content, date) from a supported shop product page. Drives a headless browser through the review panel, paging until max_count reviews are gathered or no pages remain."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page URL, e.g. https://www.coupang.com/vp/products/123"),
		),
		mcp.WithNumber("max_count",
			mcp.Required(),
			mcp.Description("Number of reviews to collect (1-5000)"),
		),
		mcp.WithNumber("timeout",
			mcp.Description("Run timeout in seconds (default 120, max 600)"),
		),
		mcp.WithBoolean("export",
			mcp.Description("Also write a CSV file on the server (default true)"),
		),
	)
	s.AddTool(harvestTool, handleHarvest(apiURL, apiKey))

	listSitesTool := mcp.NewTool("list_sites",
		mcp.WithDescription("List the shop sites whose product pages can be harvested, with their URL patterns."),
	)
	s.AddTool(listSitesTool, handleListSites(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a JSON request to the API and returns the raw response body.
func apiDo(ctx context.Context, client *http.Client, method, apiURL, apiKey, path string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-API-Key", apiKey)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

func handleHarvest(apiURL, apiKey string) server.ToolHandlerFunc {
	// Runs may take up to the 600s request ceiling plus export.
	client := &http.Client{Timeout: 11 * time.Minute}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		maxCount, err := request.RequireInt("max_count")
		if err != nil {
			return mcp.NewToolResultError("max_count is required"), nil
		}

		export := request.GetBool("export", true)
		reqBody := models.HarvestRequest{
			URL:      url,
			MaxCount: maxCount,
			Timeout:  request.GetInt("timeout", 0),
			Export:   &export,
		}

		respBody, err := apiDo(ctx, client, http.MethodPost, apiURL, apiKey, "/api/v1/harvest", reqBody)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp models.HarvestResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			errMsg := "harvest failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		return mcp.NewToolResultText(formatHarvest(&resp)), nil
	}
}

// formatHarvest renders a response as a header plus one block per review.
func formatHarvest(resp *models.HarvestResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Site: %s\nProduct: %s\nReviews: %d\n", resp.Site, resp.ProductID, resp.Count)
	if resp.OutputPath != "" {
		fmt.Fprintf(&sb, "CSV: %s\n", resp.OutputPath)
	}
	switch {
	case resp.Stats.Interrupted:
		sb.WriteString("Note: run was interrupted before reaching max_count.\n")
	case resp.Stats.Exhausted:
		sb.WriteString("Note: the review panel ran out of pages.\n")
	}

	for i, r := range resp.Reviews {
		fmt.Fprintf(&sb, "\n--- Review %d ---\nAuthor: %s\nScore: %s\nDate: %s\n%s\n",
			i+1, r.Author, r.Score, r.CreatedAt.Format("2006-01-02"), r.Content)
	}
	return sb.String()
}

func handleListSites(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 30 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		respBody, err := apiDo(ctx, client, http.MethodGet, apiURL, apiKey, "/api/v1/sites", nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp sitesResponse
		if err := json.Unmarshal(respBody, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}

		var sb strings.Builder
		for _, s := range resp.Sites {
			fmt.Fprintf(&sb, "%s: %s (timezone %s)\n", s.Name, s.Pattern, s.Timezone)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
