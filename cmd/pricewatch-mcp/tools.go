package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/use-agent/pricewatch/models"
)

func handleTrackProduct(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		req := models.TrackRequest{URL: url}
		if _, ok := request.GetArguments()["target_price"]; ok {
			target := int(request.GetFloat("target_price", 0))
			if target <= 0 {
				return mcp.NewToolResultError("target_price must be a positive number"), nil
			}
			req.TargetPrice = &target
		}

		resp, err := api.track(ctx, req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("track failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatTracked(resp, req.TargetPrice)), nil
	}
}

func handleListProducts(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		items, err := api.list(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatList(items)), nil
	}
}

func handleGetProduct(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil || id <= 0 {
			return mcp.NewToolResultError("id must be a positive integer"), nil
		}
		detail, err := api.get(ctx, int64(id))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("get failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatDetail(detail)), nil
	}
}

func handleRefreshPrices(api *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		resp, err := api.refresh(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("refresh failed: %v", err)), nil
		}
		return mcp.NewToolResultText(formatRefresh(resp)), nil
	}
}

// --- formatting ---

func formatTracked(resp *models.TrackResponse, target *int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tracking #%d: %s\n", resp.ID, resp.Title)
	fmt.Fprintf(&sb, "Platform: %s\n", resp.Platform)
	fmt.Fprintf(&sb, "Price: $%d\n", resp.Price)
	if target != nil {
		fmt.Fprintf(&sb, "Target: $%d\n", *target)
	}
	if resp.ImageURL != nil {
		fmt.Fprintf(&sb, "Image: %s\n", *resp.ImageURL)
	}
	return sb.String()
}

func formatList(items []models.TrackedItem) string {
	if len(items) == 0 {
		return "No products are being tracked."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d tracked products:\n\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&sb, "#%d %s [%s]\n  price $%d", it.ID, it.Title, it.Platform, it.CurrentPrice)
		if it.TargetPrice != nil {
			fmt.Fprintf(&sb, ", target $%d", *it.TargetPrice)
		}
		fmt.Fprintf(&sb, "\n  %s\n", it.URL)
	}
	return sb.String()
}

func formatDetail(d *models.ItemDetail) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s [%s]\n", d.ID, d.Title, d.Platform)
	fmt.Fprintf(&sb, "URL: %s\n", d.URL)
	fmt.Fprintf(&sb, "Current price: $%d\n", d.CurrentPrice)
	if d.TargetPrice != nil {
		fmt.Fprintf(&sb, "Target price: $%d\n", *d.TargetPrice)
	}
	if len(d.History) > 0 {
		sb.WriteString("\nHistory (newest first):\n")
		for _, p := range d.History {
			fmt.Fprintf(&sb, "  %s  $%d\n", p.ScrapedAt.Format("2006-01-02 15:04"), p.Price)
		}
	}
	return sb.String()
}

func formatRefresh(resp *models.RefreshResponse) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Refreshed %d products: %d updated, %d alerts, %d failed (%dms)\n",
		len(resp.Updates), resp.Updated, resp.Alerts, resp.Failed, resp.DurationMs)
	for _, u := range resp.Updates {
		switch u.Status {
		case models.RefreshAlert:
			fmt.Fprintf(&sb, "  #%d ALERT %s\n", u.ItemID, u.Title)
		case models.RefreshFailed:
			fmt.Fprintf(&sb, "  #%d failed\n", u.ItemID)
		default:
			fmt.Fprintf(&sb, "  #%d updated %s\n", u.ItemID, u.Title)
		}
	}
	return sb.String()
}
