package bot

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/tenyearsoneday/telegram-shop-bot/internal/cart"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
)

// Sender abstracts the ability to send Telegram requests. This interface
// decouples the bot from the full tgbotapi.BotAPI, improving testability.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot routes Telegram updates to per-chat sessions. The product feed is
// fetched once per process; until it arrives sessions render a loading
// shell, and a failed fetch renders a failure notice without affecting the
// cart or anything already on screen.
type Bot struct {
	tg        Sender
	persister cart.Persister

	mu        sync.Mutex
	sessions  map[int64]*Session
	feed      catalog.Feed
	feedErr   error
	feedReady bool
}

func New(tg Sender, persister cart.Persister) *Bot {
	return &Bot{
		tg:        tg,
		persister: persister,
		sessions:  make(map[int64]*Session),
	}
}

// SetFeed installs the fetch result (data or error) and re-renders every
// storefront that was already open in its loading state.
func (b *Bot) SetFeed(feed catalog.Feed, err error) {
	b.mu.Lock()
	b.feed = feed
	b.feedErr = err
	b.feedReady = true
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.mu.Unlock()

	if err != nil {
		log.Error().Err(err).Msg("catalog fetch failed")
	} else {
		log.Info().Int("products", len(feed.Products)).Msg("catalog feed loaded")
	}

	for _, s := range sessions {
		s.mu.Lock()
		s.ensureCatalog(b)
		if s.shopMessageID != 0 {
			s.updateStorefront(b)
		}
		s.mu.Unlock()
	}
}

func (b *Bot) feedState() (catalog.Feed, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.feed, b.feedReady, b.feedErr
}

// session returns the chat's session, creating one (with its persisted cart)
// on first contact.
func (b *Bot) session(chatID int64) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	if s, ok := b.sessions[chatID]; ok {
		return s
	}
	s := newSession(chatID, b.persister)
	b.sessions[chatID] = s
	return s
}

// ensureCatalog gives the session its own catalog store once the feed is
// available. Each chat gets an independent filter over the same feed.
func (s *Session) ensureCatalog(b *Bot) {
	if s.catalog != nil {
		return
	}
	feed, ready, err := b.feedState()
	if !ready || err != nil {
		return
	}
	store := catalog.NewStore()
	store.Load(feed)
	s.catalog = store
}

// HandleUpdate processes a single Telegram update.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	_ = ctx

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}

	chatID := update.Message.Chat.ID
	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCatalog(b)

	switch update.Message.Command() {
	case "start":
		b.reply(chatID, formatReplyText(startText))
		for _, n := range b.activeNotices() {
			b.reply(chatID, formatReplyText(noticeText, escapeMarkdown(n.Title.String()), escapeMarkdown(n.Content.String())))
		}
		s.openStorefront(b)
	case "shop":
		s.view = viewShop
		s.openStorefront(b)
	case "cart":
		s.view = viewCart
		if s.shopMessageID == 0 {
			s.openStorefront(b)
		} else {
			s.updateStorefront(b)
		}
	case "help":
		b.reply(chatID, formatReplyText(helpText))
	case "":
		b.handleText(s, update.Message.Text)
	default:
		b.reply(chatID, formatReplyText(helpText))
	}
}

func (b *Bot) activeNotices() []catalog.Notice {
	feed, ready, err := b.feedState()
	if !ready || err != nil {
		return nil
	}
	var out []catalog.Notice
	for _, n := range feed.Notices {
		if n.Active.Bool() {
			out = append(out, n)
		}
	}
	return out
}

var nonDigitRe = regexp.MustCompile(`[^\d]`)

// handleText consumes a plain-text message. The only text the storefront
// expects is a quantity reply after a tap on a quantity button; anything
// else is ignored.
func (b *Bot) handleText(s *Session, text string) {
	if s.awaiting.kind == awaitingNone {
		return
	}
	target := s.awaiting
	s.awaiting = awaiting{}

	qty := cart.MinQuantity
	if digits := nonDigitRe.ReplaceAllString(text, ""); digits != "" {
		if n, err := strconv.Atoi(digits); err == nil {
			qty = n
		}
	}
	qty = cart.ClampQuantity(qty)

	switch target.kind {
	case awaitingCardQty:
		s.selection(target.productID).qty = qty
	case awaitingLineQty:
		s.cart.SetQuantity(target.productID, target.style, qty)
	}
	s.updateStorefront(b)
}

// handleCallback is called when the user taps an inline keyboard button.
// Taps on a superseded keyboard (an older storefront or gallery message) are
// acknowledged and dropped: only the most recently rendered region has live
// handlers.
func (b *Bot) handleCallback(cq *tgbotapi.CallbackQuery) {
	if cq.Message == nil {
		return
	}
	chatID := cq.Message.Chat.ID
	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureCatalog(b)

	prefix, idx := splitIndexedCallback(cq.Data)
	log.Debug().Int64("chatId", chatID).Str("data", cq.Data).Msg("got callback")

	galleryBound := strings.HasPrefix(cq.Data, "gal:") && cq.Data != cbGalleryOpen
	if galleryBound {
		if cq.Message.MessageID != s.galleryMessageID {
			b.answerCallback(cq.ID, "")
			return
		}
	} else if cq.Message.MessageID != s.shopMessageID {
		b.answerCallback(cq.ID, "")
		return
	}

	ackText := ""
	switch prefix {
	case cbNoop:

	case cbCategory:
		if s.catalog != nil {
			categories := s.catalog.Categories()
			if idx >= 0 && idx < len(categories) {
				s.catalog.SetFilter(categories[idx])
				s.page = 0
				s.resetSelections()
			}
		}
		s.updateStorefront(b)

	case cbPagePrev, cbPageNext:
		if s.catalog != nil {
			if total := len(s.catalog.VisibleProducts()); total > 1 {
				delta := 1
				if prefix == cbPagePrev {
					delta = -1
				}
				s.page = ((s.page+delta)%total + total) % total
			}
		}
		s.updateStorefront(b)

	case cbStyle:
		if p, ok := s.currentProduct(); ok && idx >= 0 && idx < len(p.Styles) {
			s.selection(p.ID).styleIdx = idx
		}
		s.updateStorefront(b)

	case cbQtyDec, cbQtyInc:
		if p, ok := s.currentProduct(); ok {
			sel := s.selection(p.ID)
			delta := 1
			if prefix == cbQtyDec {
				delta = -1
			}
			sel.qty = cart.ClampQuantity(sel.quantity() + delta)
		}
		s.updateStorefront(b)

	case cbQtyEdit:
		if p, ok := s.currentProduct(); ok {
			s.awaiting = awaiting{kind: awaitingCardQty, productID: p.ID}
			b.reply(chatID, askQuantityText)
		}

	case cbAddToCart:
		if p, ok := s.currentProduct(); ok {
			sel := s.selection(p.ID)
			style := ""
			if len(p.Styles) > 0 {
				i := sel.styleIdx
				if i < 0 || i >= len(p.Styles) {
					i = 0
				}
				style = p.Styles[i]
			}
			s.cart.Add(p.ID, p.Name, style, p.Price.Value(), p.CoverImage(), sel.quantity())
			log.Info().Int64("chatId", chatID).Str("productId", p.ID).Str("style", style).
				Int("quantity", sel.quantity()).Msg("added to cart")
			ackText = addedToCartText
		}
		s.updateStorefront(b)

	case cbViewCart:
		s.view = viewCart
		s.updateStorefront(b)

	case cbViewShop:
		s.view = viewShop
		s.updateStorefront(b)

	case cbCartDec, cbCartInc:
		if line, ok := s.cart.Line(idx); ok {
			delta := 1
			if prefix == cbCartDec {
				delta = -1
			}
			s.cart.SetQuantity(line.ProductID, line.Style, line.Quantity+delta)
		}
		s.updateStorefront(b)

	case cbCartDel:
		if line, ok := s.cart.Line(idx); ok {
			s.cart.Remove(line.ProductID, line.Style)
			ackText = removedFromCartText
		}
		s.updateStorefront(b)

	case cbCartEdit:
		if line, ok := s.cart.Line(idx); ok {
			s.awaiting = awaiting{kind: awaitingLineQty, productID: line.ProductID, style: line.Style}
			b.reply(chatID, askQuantityText)
		}

	case cbCheckout:
		// Checkout is a stub collaborator: answer with an alert and leave
		// the cart untouched.
		alert := tgbotapi.NewCallbackWithAlert(cq.ID, checkoutStubText)
		if _, err := b.tg.Request(alert); err != nil {
			log.Error().Err(err).Msg("failed to answer checkout callback")
		}
		return

	case cbGalleryOpen:
		if p, ok := s.currentProduct(); ok {
			s.gallery.Open(p.Name, p.Description, p.Images)
			s.updateGallery(b)
		}

	case cbGalleryPrev:
		s.gallery.Step(-1)
		s.updateGallery(b)

	case cbGalleryNext:
		s.gallery.Step(1)
		s.updateGallery(b)

	case cbGallerySet:
		s.gallery.SetIndex(idx)
		s.updateGallery(b)

	case cbGalleryClose:
		s.closeGallery(b)

	default:
		log.Warn().Str("data", cq.Data).Msg("unknown callback data")
	}

	b.answerCallback(cq.ID, ackText)
}

func (b *Bot) answerCallback(id, text string) {
	callback := tgbotapi.NewCallback(id, text)
	if _, err := b.tg.Request(callback); err != nil {
		log.Error().Err(err).Msg("failed to answer callback query")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Int64("chatId", chatID).Err(err).Msg("failed to send reply")
	}
}
