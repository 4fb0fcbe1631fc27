package bot

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tenyearsoneday/telegram-shop-bot/internal/cart"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/catalog"
	"github.com/tenyearsoneday/telegram-shop-bot/internal/gallery"
)

const pillsPerRow = 3

// zwsp is a zero-width space: linking it puts the image into the message's
// link preview without visible link text.
const zwsp = "​"

// renderStorefront produces the full storefront message for the session's
// current view. Called with the session lock held. The returned markup
// replaces the previous keyboard wholesale, which is what keeps stale
// handlers from accumulating across re-renders.
func (s *Session) renderStorefront(feedReady bool, feedErr error) (string, tgbotapi.InlineKeyboardMarkup) {
	if s.view == viewCart {
		return renderCartView(s.cart.Lines(), s.cart.Subtotal())
	}
	return s.renderShopView(feedReady, feedErr)
}

func (s *Session) renderShopView(feedReady bool, feedErr error) (string, tgbotapi.InlineKeyboardMarkup) {
	switch {
	case feedErr != nil:
		return shopTitleText + "\n\n" + formatReplyText(fetchFailedText),
			tgbotapi.NewInlineKeyboardMarkup(cartButtonRow(s.cart.TotalItemCount()))
	case !feedReady || s.catalog == nil:
		return shopTitleText + "\n\n" + loadingText,
			tgbotapi.NewInlineKeyboardMarkup(cartButtonRow(s.cart.TotalItemCount()))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	rows = append(rows, pillRows(s.catalog.Categories(), s.catalog.Filter())...)

	product, ok := s.currentProduct()
	if !ok {
		rows = append(rows, cartButtonRow(s.cart.TotalItemCount()))
		return shopTitleText + "\n\n" + noProductsText, tgbotapi.NewInlineKeyboardMarkup(rows...)
	}

	sel := s.selection(product.ID)
	text := shopTitleText + "\n\n" + productCardText(product, sel)

	rows = append(rows, styleRows(product.Styles, sel.styleIdx)...)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➖", cbQtyDec),
		tgbotapi.NewInlineKeyboardButtonData(strconv.Itoa(sel.quantity()), cbQtyEdit),
		tgbotapi.NewInlineKeyboardButtonData("➕", cbQtyInc),
	))
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🖼 商品圖片", cbGalleryOpen),
		tgbotapi.NewInlineKeyboardButtonData("🛒 加入購物車", cbAddToCart),
	))
	if total := len(s.catalog.VisibleProducts()); total > 1 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀", cbPagePrev),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", s.page+1, total), cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("▶", cbPageNext),
		))
	}
	rows = append(rows, cartButtonRow(s.cart.TotalItemCount()))

	return text, tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func productCardText(p catalog.Product, sel *selection) string {
	var b strings.Builder
	if cover := p.CoverImage(); cover != "" {
		fmt.Fprintf(&b, "[%s](%s)", zwsp, cover)
	}
	fmt.Fprintf(&b, "*%s*\n", escapeMarkdown(p.Name))

	caption := make([]string, 0, 3)
	if p.Collection != "" {
		caption = append(caption, p.Collection)
	}
	caption = append(caption, p.Category)
	if p.ID != "" && p.ID != p.Name {
		caption = append(caption, p.ID)
	}
	b.WriteString(escapeMarkdown(strings.Join(caption, " · ")))
	b.WriteString("\n")

	if price := catalog.FormatPrice(p.Price); price != "" {
		fmt.Fprintf(&b, priceLabelText, price)
	} else {
		b.WriteString("NT$ —")
	}
	if p.Status != "" {
		fmt.Fprintf(&b, "｜%s", escapeMarkdown(p.Status))
	}
	b.WriteString("\n")

	if len(p.Styles) > 0 {
		idx := sel.styleIdx
		if idx < 0 || idx >= len(p.Styles) {
			idx = 0
		}
		fmt.Fprintf(&b, styleLabelText+"\n", escapeMarkdown(p.Styles[idx]))
	}
	fmt.Fprintf(&b, quantityLabelText, sel.quantity())
	return b.String()
}

// pillRows renders one button per category, the active one marked.
func pillRows(categories []string, active string) [][]tgbotapi.InlineKeyboardButton {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(categories))
	for i, c := range categories {
		label := c
		if c == active {
			label = "✓ " + c
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, indexedCallback(cbCategory, i)))
	}
	return chunkButtons(buttons, pillsPerRow)
}

func styleRows(styles []string, selected int) [][]tgbotapi.InlineKeyboardButton {
	if len(styles) == 0 {
		return nil
	}
	if selected < 0 || selected >= len(styles) {
		selected = 0
	}
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(styles))
	for i, st := range styles {
		label := st
		if i == selected {
			label = "✓ " + st
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, indexedCallback(cbStyle, i)))
	}
	return chunkButtons(buttons, pillsPerRow)
}

func cartButtonRow(count int) []tgbotapi.InlineKeyboardButton {
	label := "🛍 購物車"
	if count > 0 {
		label = fmt.Sprintf("🛍 購物車（%d）", count)
	}
	return tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(label, cbViewCart),
	)
}

func renderCartView(lines []cart.Line, subtotal float64) (string, tgbotapi.InlineKeyboardMarkup) {
	backRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("← 繼續逛逛", cbViewShop),
	)

	if len(lines) == 0 {
		return cartTitleText + "\n\n" + emptyCartText, tgbotapi.NewInlineKeyboardMarkup(backRow)
	}

	var b strings.Builder
	b.WriteString(cartTitleText + "\n")
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, l := range lines {
		name := escapeMarkdown(l.Name)
		if l.Style != "" {
			name = fmt.Sprintf("%s（%s）", name, escapeMarkdown(l.Style))
		}
		fmt.Fprintf(&b, "\n%d. %s\n    NT$ %s × %d ＝ NT$ %s\n",
			i+1, name,
			catalog.FormatPrice(catalog.NewPrice(l.UnitPrice)), l.Quantity,
			catalog.FormatPrice(catalog.NewPrice(l.Subtotal())))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖", indexedCallback(cbCartDec, i)),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d·×%d", i+1, l.Quantity), indexedCallback(cbCartEdit, i)),
			tgbotapi.NewInlineKeyboardButtonData("➕", indexedCallback(cbCartInc, i)),
			tgbotapi.NewInlineKeyboardButtonData("✕", indexedCallback(cbCartDel, i)),
		))
	}
	fmt.Fprintf(&b, "\n"+cartTotalText, catalog.FormatPrice(catalog.NewPrice(subtotal)))

	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("💳 結帳", cbCheckout),
	))
	rows = append(rows, backRow)
	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// renderGallery produces the image viewer message. Navigation is only shown
// when there is more than one image.
func renderGallery(g *gallery.Presenter) (string, tgbotapi.InlineKeyboardMarkup) {
	var b strings.Builder
	closeRow := tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✕ 關閉", cbGalleryClose),
	)

	current, ok := g.Current()
	if !ok {
		fmt.Fprintf(&b, "🖼 *%s*\n\n%s", escapeMarkdown(g.Title()), noImagesText)
		return b.String(), tgbotapi.NewInlineKeyboardMarkup(closeRow)
	}

	fmt.Fprintf(&b, "[%s](%s)🖼 *%s*\n", zwsp, current, escapeMarkdown(g.Title()))
	fmt.Fprintf(&b, galleryPositionText+"　[%s](%s)\n", g.Index()+1, g.Count(), viewOriginalText, current)
	if desc := g.Description(); desc != "" {
		b.WriteString("\n" + escapeMarkdown(desc))
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	if g.Count() > 1 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("◀", cbGalleryPrev),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("%d/%d", g.Index()+1, g.Count()), cbNoop),
			tgbotapi.NewInlineKeyboardButtonData("▶", cbGalleryNext),
		))
		rows = append(rows, thumbnailRows(g.Count(), g.Index())...)
	}
	rows = append(rows, closeRow)
	return b.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// thumbnailRows renders numbered jump buttons, the active index marked.
func thumbnailRows(count, active int) [][]tgbotapi.InlineKeyboardButton {
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, count)
	for i := 0; i < count; i++ {
		label := strconv.Itoa(i + 1)
		if i == active {
			label = "·" + label + "·"
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(label, indexedCallback(cbGallerySet, i)))
	}
	return chunkButtons(buttons, 5)
}

func chunkButtons(buttons []tgbotapi.InlineKeyboardButton, perRow int) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += perRow {
		end := i + perRow
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons[i:end]...))
	}
	return rows
}
