package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PRICEWATCH_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	// Empty when the API runs without auth.
	apiKey := os.Getenv("PRICEWATCH_API_KEY")

	// Refreshes are paced, so a batch can take minutes.
	api := newAPIClient(apiURL, apiKey, 15*time.Minute)

	s := server.NewMCPServer(
		"pricewatch",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	trackTool := mcp.NewTool("track_product",
		mcp.WithDescription("Start tracking the price of a product page on BigGo, momo, PChome or Shopee. Renders the page, extracts title, price and image, and stores it on the watchlist."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The product page URL"),
		),
		mcp.WithNumber("target_price",
			mcp.Description("Alert when a refresh finds a price at or below this amount (whole currency units)"),
			mcp.Min(1),
		),
	)
	s.AddTool(trackTool, handleTrackProduct(api))

	listTool := mcp.NewTool("list_products",
		mcp.WithDescription("List every tracked product with its current and target price, newest first."),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(listTool, handleListProducts(api))

	getTool := mcp.NewTool("get_product",
		mcp.WithDescription("Show one tracked product together with its price history, newest first."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("The tracked product ID"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)
	s.AddTool(getTool, handleGetProduct(api))

	refreshTool := mcp.NewTool("refresh_prices",
		mcp.WithDescription("Re-check the price of every tracked product now and report which ones changed, hit their target, or failed."),
	)
	s.AddTool(refreshTool, handleRefreshPrices(api))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}
