package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenyearsoneday/telegram-shop-bot/internal/cart"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
)

// fakeSender records everything the bot sends, handing out incrementing
// message ids for sent messages.
type fakeSender struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

// lastText returns the text of the most recent send (message or edit).
func (f *fakeSender) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.sent)
	switch m := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return m.Text
	case tgbotapi.EditMessageTextConfig:
		return m.Text
	default:
		t.Fatalf("unexpected chattable type %T", m)
		return ""
	}
}

func (f *fakeSender) sendCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// memPersister is an in-memory cart.Persister.
type memPersister struct {
	saved map[int64][]cart.Line
}

func newMemPersister() *memPersister {
	return &memPersister{saved: make(map[int64][]cart.Line)}
}

func (m *memPersister) LoadLines(chatID int64) ([]cart.Line, error) {
	return append([]cart.Line(nil), m.saved[chatID]...), nil
}

func (m *memPersister) SaveLines(chatID int64, lines []cart.Line) error {
	m.saved[chatID] = append([]cart.Line(nil), lines...)
	return nil
}

func testFeed(t *testing.T) catalog.Feed {
	t.Helper()
	raw := `{
		"products": [
			{"id": "A", "name": "珍珠項鍊", "category": "項鍊", "collection": "海洋系列",
			 "price": 1280, "images": "https://a.example/1.jpg,https://a.example/2.jpg",
			 "styles": "金色、銀色", "description": "手工珍珠項鍊"},
			{"id": "B", "name": "小花戒指", "category": "戒指", "price": 680,
			 "images": "https://a.example/ring.jpg"},
			{"id": "C", "name": "舊品", "category": "耳環", "price": 100, "status": "下架"}
		],
		"notice": [{"title": "週年慶", "content": "全館九折", "active": true}]
	}`
	var feed catalog.Feed
	require.NoError(t, json.Unmarshal([]byte(raw), &feed))
	return feed
}

func commandUpdate(chatID int64, command string) tgbotapi.Update {
	text := "/" + command
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1000,
		From:      &tgbotapi.User{ID: chatID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(text)},
		},
	}}
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		MessageID: 1001,
		From:      &tgbotapi.User{ID: chatID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}}
}

func callbackUpdate(chatID int64, messageID int, data string) tgbotapi.Update {
	return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: chatID},
		Data:    data,
		Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: chatID}},
	}}
}

func newTestBot(t *testing.T) (*Bot, *fakeSender, *memPersister) {
	t.Helper()
	tg := &fakeSender{}
	persister := newMemPersister()
	return New(tg, persister), tg, persister
}

// shopMessageID looks up the live storefront message id for a chat.
func shopMessageID(b *Bot, chatID int64) int {
	s := b.session(chatID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shopMessageID
}

func TestShopBeforeFeedShowsLoadingShell(t *testing.T) {
	b, tg, _ := newTestBot(t)

	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	assert.Contains(t, tg.lastText(t), loadingText)

	// When the feed settles, the open storefront is re-rendered in place.
	b.SetFeed(testFeed(t), nil)
	assert.Contains(t, tg.lastText(t), "珍珠項鍊")
}

func TestFetchFailureRendersNoticeNotCrash(t *testing.T) {
	b, tg, persister := newTestBot(t)
	persister.saved[1] = []cart.Line{{ProductID: "A", Name: "珍珠項鍊", UnitPrice: 1280, Quantity: 2}}

	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	b.SetFeed(catalog.Feed{}, errors.New("boom"))
	assert.Contains(t, tg.lastText(t), "商品資料載入失敗")

	// The failure is local to the catalog area: the persisted cart still
	// renders fine.
	b.HandleUpdate(context.Background(), commandUpdate(1, "cart"))
	text := tg.lastText(t)
	assert.Contains(t, text, "珍珠項鍊")
	assert.Contains(t, text, "2,560")
}

func TestCategoryFilterCallback(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	// Pills are 全部, 項鍊, 戒指 (耳環 only had a delisted product).
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, indexedCallback(cbCategory, 2)))

	text := tg.lastText(t)
	assert.Contains(t, text, "小花戒指")
	assert.NotContains(t, text, "珍珠項鍊")
}

func TestAddToCartUpdatesBadgeAndPersists(t *testing.T) {
	b, tg, persister := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbQtyInc))
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbAddToCart))

	assert.Contains(t, tg.lastText(t), "數量：2")
	require.Len(t, persister.saved[1], 1)
	line := persister.saved[1][0]
	assert.Equal(t, "A", line.ProductID)
	assert.Equal(t, "金色", line.Style) // first style preselected
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 1280.0, line.UnitPrice)
	assert.Equal(t, "https://a.example/1.jpg", line.Image)
}

func TestStyleSelectionFlowsIntoCart(t *testing.T) {
	b, _, persister := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, indexedCallback(cbStyle, 1)))
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbAddToCart))

	require.Len(t, persister.saved[1], 1)
	assert.Equal(t, "銀色", persister.saved[1][0].Style)
}

func TestCartViewMutations(t *testing.T) {
	b, tg, persister := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbAddToCart))
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbViewCart))
	assert.Contains(t, tg.lastText(t), "珍珠項鍊")

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, indexedCallback(cbCartInc, 0)))
	assert.Contains(t, tg.lastText(t), "× 2")

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, indexedCallback(cbCartDel, 0)))
	assert.Contains(t, tg.lastText(t), emptyCartText)
	assert.Empty(t, persister.saved[1])
}

func TestStaleKeyboardCallbackIsIgnored(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))

	// Open a second storefront; the first message's keyboard is now stale.
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	staleID := shopMessageID(b, 1) - 1

	before := tg.sendCount()
	b.HandleUpdate(context.Background(), callbackUpdate(1, staleID, cbAddToCart))
	assert.Equal(t, before, tg.sendCount())

	// The tap was still acknowledged so the client stops spinning.
	require.NotEmpty(t, tg.requests)
	_, ok := tg.requests[len(tg.requests)-1].(tgbotapi.CallbackConfig)
	assert.True(t, ok)
}

func TestDirectQuantityEdit(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbQtyEdit))
	assert.Contains(t, tg.lastText(t), askQuantityText)

	b.HandleUpdate(context.Background(), textUpdate(1, " 12 "))
	assert.Contains(t, tg.lastText(t), "數量：12")

	// Out-of-range input clamps.
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbQtyEdit))
	b.HandleUpdate(context.Background(), textUpdate(1, "150"))
	assert.Contains(t, tg.lastText(t), "數量：99")
}

func TestGalleryFlow(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	shopID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, shopID, cbGalleryOpen))
	text := tg.lastText(t)
	assert.Contains(t, text, "珍珠項鍊")
	assert.Contains(t, text, fmt.Sprintf(galleryPositionText, 1, 2))
	assert.Contains(t, text, "手工珍珠項鍊")

	s := b.session(1)
	s.mu.Lock()
	galleryID := s.galleryMessageID
	s.mu.Unlock()
	require.NotZero(t, galleryID)

	// Stepping back from the first image wraps to the last.
	b.HandleUpdate(context.Background(), callbackUpdate(1, galleryID, cbGalleryPrev))
	assert.Contains(t, tg.lastText(t), fmt.Sprintf(galleryPositionText, 2, 2))

	b.HandleUpdate(context.Background(), callbackUpdate(1, galleryID, cbGalleryClose))
	var deleted bool
	for _, r := range tg.requests {
		if _, ok := r.(tgbotapi.DeleteMessageConfig); ok {
			deleted = true
		}
	}
	assert.True(t, deleted)

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.False(t, s.gallery.IsOpen())
	assert.Zero(t, s.galleryMessageID)
}

func TestPagingWraps(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	assert.Contains(t, tg.lastText(t), "珍珠項鍊")
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbPageNext))
	assert.Contains(t, tg.lastText(t), "小花戒指")
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbPageNext))
	assert.Contains(t, tg.lastText(t), "珍珠項鍊")
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbPagePrev))
	assert.Contains(t, tg.lastText(t), "小花戒指")
}

func TestStartSendsNotices(t *testing.T) {
	b, tg, _ := newTestBot(t)
	b.SetFeed(testFeed(t), nil)

	b.HandleUpdate(context.Background(), commandUpdate(1, "start"))

	var noticeSeen bool
	tg.mu.Lock()
	for _, c := range tg.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok && strings.Contains(m.Text, "週年慶") {
			noticeSeen = true
		}
	}
	tg.mu.Unlock()
	assert.True(t, noticeSeen)
}

func TestCheckoutIsAStub(t *testing.T) {
	b, tg, persister := newTestBot(t)
	b.SetFeed(testFeed(t), nil)
	b.HandleUpdate(context.Background(), commandUpdate(1, "shop"))
	msgID := shopMessageID(b, 1)

	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbAddToCart))
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbViewCart))
	b.HandleUpdate(context.Background(), callbackUpdate(1, msgID, cbCheckout))

	// The cart survives checkout untouched.
	require.Len(t, persister.saved[1], 1)

	last := tg.requests[len(tg.requests)-1].(tgbotapi.CallbackConfig)
	assert.True(t, last.ShowAlert)
	assert.Equal(t, checkoutStubText, last.Text)
}
