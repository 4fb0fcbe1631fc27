package bot

import (
	"strconv"
	"strings"
)

// Callback data is kept short (Telegram caps it at 64 bytes) by addressing
// pills, styles and cart lines by their index in the currently rendered
// keyboard. That is safe because every mutation replaces the whole keyboard:
// an index is only ever interpreted against the snapshot it was rendered
// from, and taps on a superseded keyboard are detected by message id and
// ignored.
const (
	cbNoop        = "noop"
	cbCategory    = "cat"      // cat:<pill index>
	cbPagePrev    = "page:prev"
	cbPageNext    = "page:next"
	cbStyle       = "sty"      // sty:<style index>
	cbQtyInc      = "qty:inc"
	cbQtyDec      = "qty:dec"
	cbQtyEdit     = "qty:edit"
	cbAddToCart   = "add"
	cbGalleryOpen = "gal:open"
	cbGalleryPrev = "gal:prev"
	cbGalleryNext = "gal:next"
	cbGallerySet  = "gal:set"  // gal:set:<image index>
	cbGalleryClose = "gal:close"
	cbViewCart    = "view:cart"
	cbViewShop    = "view:shop"
	cbCartInc     = "cart:inc" // cart:inc:<line index>
	cbCartDec     = "cart:dec" // cart:dec:<line index>
	cbCartDel     = "cart:del" // cart:del:<line index>
	cbCartEdit    = "cart:edit" // cart:edit:<line index>
	cbCheckout    = "checkout"
)

func indexedCallback(prefix string, i int) string {
	return prefix + ":" + strconv.Itoa(i)
}

// splitIndexedCallback parses "<prefix>:<n>" data, returning the prefix and
// index. Data without a trailing integer returns index -1.
func splitIndexedCallback(data string) (string, int) {
	i := strings.LastIndex(data, ":")
	if i < 0 {
		return data, -1
	}
	n, err := strconv.Atoi(data[i+1:])
	if err != nil {
		return data, -1
	}
	return data[:i], n
}
