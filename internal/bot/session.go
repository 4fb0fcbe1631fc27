package bot

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/tenyearsoneday/telegram-shop-bot/internal/cart"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/gallery"
)

// view selects what the storefront message currently shows. The cart is a
// drawer over the same message, not a separate one: switching views edits the
// message in place.
type view int

const (
	viewShop view = iota
	viewCart
)

// awaitingKind marks what the next plain-text message from the chat is
// expected to set, if anything.
type awaitingKind int

const (
	awaitingNone awaitingKind = iota
	awaitingCardQty
	awaitingLineQty
)

type awaiting struct {
	kind      awaitingKind
	productID string
	style     string
}

// selection is the pending per-card choice: quantity and which style is
// picked. Zero value means quantity 1 and the first style, matching a
// freshly rendered card.
type selection struct {
	qty      int
	styleIdx int
}

func (sel selection) quantity() int {
	if sel.qty == 0 {
		return cart.MinQuantity
	}
	return sel.qty
}

// Session holds one chat's UI state: its catalog view (product list +
// filter), cart, gallery, current view, card cursor and pending selections.
//
// All session state is guarded by mu; handlers lock it for the duration of
// an update, so store operations below never race.
type Session struct {
	chatID int64
	mu     sync.Mutex

	catalog *catalog.Store // nil until the feed has arrived
	cart    *cart.Store
	gallery *gallery.Presenter

	view       view
	page       int
	selections map[string]*selection
	awaiting   awaiting

	shopMessageID    int
	galleryMessageID int

	// lastShopRender suppresses no-op edits: Telegram rejects edits that
	// leave a message unchanged (e.g. tapping the already-active pill).
	lastShopRender string
}

func newSession(chatID int64, persister cart.Persister) *Session {
	log.Info().Int64("chatId", chatID).Msg("new chat session created")
	return &Session{
		chatID:     chatID,
		cart:       cart.NewStore(chatID, persister),
		gallery:    gallery.New(),
		selections: make(map[string]*selection),
	}
}

// selection returns the pending choice for a product, creating the default
// (qty 1, first style) on first access.
func (s *Session) selection(productID string) *selection {
	sel, ok := s.selections[productID]
	if !ok {
		sel = &selection{qty: cart.MinQuantity}
		s.selections[productID] = sel
	}
	return sel
}

// resetSelections drops all pending card choices. Called when the grid is
// rebuilt from scratch (filter change), mirroring how rebuilt cards reset
// their inputs.
func (s *Session) resetSelections() {
	s.selections = make(map[string]*selection)
}

// currentProduct returns the product under the card cursor, normalizing the
// cursor first so a filter change can never leave it out of range.
func (s *Session) currentProduct() (catalog.Product, bool) {
	if s.catalog == nil {
		return catalog.Product{}, false
	}
	visible := s.catalog.VisibleProducts()
	if len(visible) == 0 {
		return catalog.Product{}, false
	}
	if s.page < 0 || s.page >= len(visible) {
		s.page = 0
	}
	return visible[s.page], true
}
