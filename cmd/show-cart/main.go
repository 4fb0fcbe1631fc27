package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tenyearsoneday/telegram-shop-bot/config"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/storage"
)

// show-cart prints a chat's persisted cart from the database.
func main() {
	var chatID int64
	var dbPath string

	flag.Int64Var(&chatID, "chat", 0, "Telegram chat ID")
	flag.StringVar(&dbPath, "db", "", "Database path (defaults to SHOP_DB_PATH or shop.db)")
	flag.Parse()

	if chatID == 0 {
		fmt.Fprintf(os.Stderr, "Usage: show-cart -chat <chat_id> [-db <path>]\n")
		os.Exit(1)
	}

	config.LoadEnvFile()

	if dbPath == "" {
		dbPath = os.Getenv("SHOP_DB_PATH")
	}
	if dbPath == "" {
		dbPath = "shop.db"
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database at %s: %v\n", dbPath, err)
		os.Exit(1)
	}
	defer store.Close()

	lines, err := store.LoadLines(chatID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading cart: %v\n", err)
		os.Exit(1)
	}
	if len(lines) == 0 {
		fmt.Printf("Cart for chat %d is empty (key %s)\n", chatID, storage.CartKey(chatID))
		return
	}

	var subtotal float64
	var count int
	for i, l := range lines {
		label := l.Name
		if l.Style != "" {
			label = fmt.Sprintf("%s (%s)", l.Name, l.Style)
		}
		fmt.Printf("%2d. %-40s NT$ %8s × %2d = NT$ %s\n",
			i+1, label,
			catalog.FormatPrice(catalog.NewPrice(l.UnitPrice)), l.Quantity,
			catalog.FormatPrice(catalog.NewPrice(l.Subtotal())))
		subtotal += l.Subtotal()
		count += l.Quantity
	}
	fmt.Printf("\n%d item(s), subtotal NT$ %s\n", count, catalog.FormatPrice(catalog.NewPrice(subtotal)))
}
