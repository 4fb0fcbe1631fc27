package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tenyearsoneday/telegram-shop-bot/config"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/bot"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		log.Fatal().Msg("BOT_TOKEN is not set")
	}

	catalogURL := os.Getenv("CATALOG_URL")
	if catalogURL == "" {
		log.Fatal().Msg("CATALOG_URL is not set")
	}

	// Database path (optional, defaults to shop.db)
	dbPath := os.Getenv("SHOP_DB_PATH")
	if dbPath == "" {
		dbPath = "shop.db"
	}

	tg, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telegram bot")
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	// Register bot commands for Telegram's command menu
	bot.RegisterCommands(tg)

	cartStore, err := storage.NewStore(dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cart store")
	}
	defer cartStore.Close()
	log.Info().Str("dbPath", dbPath).Msg("cart store initialized")

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	b := bot.New(tg, cartStore)

	// The catalog fetch is fire and forget: the bot starts serving right
	// away with a loading shell, and whatever the fetch settles to (data or
	// a failure notice) is rendered into open storefronts when it arrives.
	go func() {
		client := catalog.NewClient(catalog.ClientOpts{URL: catalogURL})
		feed, fetchErr := client.FetchFeed(ctx)
		b.SetFeed(feed, fetchErr)
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runBot(ctx, tg, b)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

func runBot(ctx context.Context, tg *tgbotapi.BotAPI, b *bot.Bot) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := tg.GetUpdatesChan(updateConfig)

	var wg sync.WaitGroup

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			tg.StopReceivingUpdates()
			log.Info().Msg("waiting for active handlers to finish")
			wg.Wait()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				wg.Wait()
				return nil
			}
			wg.Add(1)
			go func(u tgbotapi.Update) {
				defer wg.Done()
				b.HandleUpdate(ctx, u)
			}(update)
		}
	}
}
