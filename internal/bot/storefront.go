package bot

import (
	"encoding/json"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// openStorefront sends a fresh storefront message and makes it the live
// region. Any previous storefront message keeps its old keyboard, but taps
// on it are stale by message id and get dropped.
func (s *Session) openStorefront(b *Bot) {
	_, ready, err := b.feedState()
	text, markup := s.renderStorefront(ready, err)

	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = markup
	sent, sendErr := b.tg.Send(msg)
	if sendErr != nil {
		log.Error().Int64("chatId", s.chatID).Err(sendErr).Msg("failed to send storefront message")
		return
	}
	s.shopMessageID = sent.MessageID
	s.lastShopRender = renderFingerprint(text, markup)
}

// updateStorefront re-renders the storefront message in place. Editing
// replaces both text and keyboard, which is the mechanism that keeps
// handlers from accumulating across re-renders. Identical renders are
// skipped since Telegram rejects no-op edits.
func (s *Session) updateStorefront(b *Bot) {
	if s.shopMessageID == 0 {
		s.openStorefront(b)
		return
	}

	_, ready, err := b.feedState()
	text, markup := s.renderStorefront(ready, err)
	fingerprint := renderFingerprint(text, markup)
	if fingerprint == s.lastShopRender {
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(s.chatID, s.shopMessageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, sendErr := b.tg.Send(edit); sendErr != nil {
		log.Error().Int64("chatId", s.chatID).Err(sendErr).Msg("failed to edit storefront message")
		return
	}
	s.lastShopRender = fingerprint
}

// updateGallery sends or edits the gallery message for the presenter's
// current state.
func (s *Session) updateGallery(b *Bot) {
	if !s.gallery.IsOpen() {
		return
	}
	text, markup := renderGallery(s.gallery)

	if s.galleryMessageID == 0 {
		msg := tgbotapi.NewMessage(s.chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		msg.ReplyMarkup = markup
		sent, err := b.tg.Send(msg)
		if err != nil {
			log.Error().Int64("chatId", s.chatID).Err(err).Msg("failed to send gallery message")
			return
		}
		s.galleryMessageID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(s.chatID, s.galleryMessageID, text, markup)
	edit.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.tg.Send(edit); err != nil {
		log.Error().Int64("chatId", s.chatID).Err(err).Msg("failed to edit gallery message")
	}
}

// closeGallery deletes the gallery message and discards the presenter state,
// so the next open starts from index 0.
func (s *Session) closeGallery(b *Bot) {
	if s.galleryMessageID != 0 {
		del := tgbotapi.NewDeleteMessage(s.chatID, s.galleryMessageID)
		if _, err := b.tg.Request(del); err != nil {
			log.Warn().Int64("chatId", s.chatID).Err(err).Msg("failed to delete gallery message")
		}
		s.galleryMessageID = 0
	}
	s.gallery.Close()
}

// renderFingerprint serializes a render result for equality comparison.
func renderFingerprint(text string, markup tgbotapi.InlineKeyboardMarkup) string {
	raw, err := json.Marshal(markup)
	if err != nil {
		return text
	}
	return text + "\x00" + string(raw)
}
