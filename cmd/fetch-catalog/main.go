package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tenyearsoneday/telegram-shop-bot/config"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
)

// fetch-catalog fetches the shop feed and prints the catalog as the bot
// sees it after normalization: delisted products dropped, categories
// collapsed, image and style fields in canonical form.
func main() {
	var url string
	var raw bool

	flag.StringVar(&url, "url", "", "Catalog feed URL (defaults to CATALOG_URL)")
	flag.BoolVar(&raw, "raw", false, "Print the raw feed without normalization")
	flag.Parse()

	config.LoadEnvFile()

	if url == "" {
		url = os.Getenv("CATALOG_URL")
	}
	if url == "" {
		fmt.Fprintf(os.Stderr, "Usage: fetch-catalog -url <feed_url>\n")
		os.Exit(1)
	}

	client := catalog.NewClient(catalog.ClientOpts{URL: url})
	feed, err := client.FetchFeed(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching feed: %v\n", err)
		os.Exit(1)
	}

	var out any
	if raw {
		out = feed
	} else {
		store := catalog.NewStore()
		store.Load(feed)
		out = struct {
			Categories []string          `json:"categories"`
			Products   []catalog.Product `json:"products"`
			Notices    []catalog.Notice  `json:"notices"`
		}{
			Categories: store.Categories(),
			Products:   store.VisibleProducts(),
			Notices:    store.Notices(),
		}
	}

	output, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}
