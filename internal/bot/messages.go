package bot

import (
	"fmt"
	"strings"

	"github.com/lithammer/dedent"
)

const (
	startText = `
		歡迎光臨 *TENYEARS ONEDAY* 線上商店！

		/shop - 逛逛商品
		/cart - 查看購物車
		/help - 說明`
	helpText = `
		*使用說明*

		/shop 開啟商品櫥窗，用分類按鈕篩選商品，
		左右翻頁瀏覽，選擇款式與數量後加入購物車。
		/cart 查看購物車內容。

		點擊數量數字可直接輸入新的數量（1–99）。`
	noticeText = "📢 *%s*\n%s"

	shopTitleText      = "🏪 *TENYEARS ONEDAY*"
	loadingText        = "商品載入中，請稍候…"
	fetchFailedText    = "*商品資料載入失敗*\n請稍後再試，或聯絡店家確認商品資料來源。"
	noProductsText     = "目前沒有商品。"
	emptyCartText      = "購物車是空的，快去逛逛吧！"
	cartTitleText      = "🛍 *購物車*"
	cartTotalText      = "合計：NT$ %s"
	checkoutStubText   = "結帳功能即將推出，敬請期待！"
	addedToCartText    = "已加入購物車"
	removedFromCartText = "已從購物車移除"
	askQuantityText    = "請輸入數量（1–99）："
	noImagesText       = "此商品沒有圖片。"
	galleryPositionText = "第 %d/%d 張"
	viewOriginalText   = "檢視原圖"
	priceLabelText     = "NT$ %s"
	styleLabelText     = "款式：%s"
	quantityLabelText  = "數量：%d"
)

// formatReplyText dedents and trims a message template before applying
// format args, so the templates above can be written indented.
func formatReplyText(text string, a ...any) string {
	return fmt.Sprintf(strings.TrimSpace(dedent.Dedent(text)), a...)
}

// escapeMarkdown escapes special characters for Telegram Markdown V1.
func escapeMarkdown(text string) string {
	text = strings.ReplaceAll(text, "*", "\\*")
	text = strings.ReplaceAll(text, "_", "\\_")
	text = strings.ReplaceAll(text, "`", "\\`")
	text = strings.ReplaceAll(text, "[", "\\[")
	return text
}
