package cart

import (
	"math"

	"github.com/rs/zerolog/log"
)

// Quantity bounds for a single cart line.
const (
	MinQuantity = 1
	MaxQuantity = 99
)

// ClampQuantity forces a quantity into [MinQuantity, MaxQuantity].
func ClampQuantity(n int) int {
	if n < MinQuantity {
		return MinQuantity
	}
	if n > MaxQuantity {
		return MaxQuantity
	}
	return n
}

// Line is one cart entry. A line is identified by the composite key
// (ProductID, Style); Style is "" for products without styles. Name, unit
// price and image are snapshots taken at add time and never re-read from the
// catalog.
type Line struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Style     string  `json:"style"`
	UnitPrice float64 `json:"unitPrice"`
	Image     string  `json:"image"`
	Quantity  int     `json:"quantity"`
}

// Subtotal is the line's own price × quantity, zero when the snapshot price
// is not finite.
func (l Line) Subtotal() float64 {
	if math.IsNaN(l.UnitPrice) || math.IsInf(l.UnitPrice, 0) {
		return 0
	}
	return l.UnitPrice * float64(l.Quantity)
}

// Persister stores and loads a chat's whole line list. Save is called after
// every mutation with the complete state; Load may return nothing for a chat
// that has no saved cart.
type Persister interface {
	LoadLines(chatID int64) ([]Line, error)
	SaveLines(chatID int64, lines []Line) error
}

// Store holds one chat's cart. All operations are synchronous and end with a
// whole-state persistence write. Store is not goroutine-safe on its own; the
// bot serializes access through the owning session's lock.
type Store struct {
	chatID    int64
	persister Persister
	lines     []Line
}

// NewStore creates a cart for the chat, loading any persisted state.
// Loading is best-effort: a persistence error means an empty cart, never a
// failure.
func NewStore(chatID int64, persister Persister) *Store {
	s := &Store{chatID: chatID, persister: persister}
	if persister == nil {
		return s
	}
	lines, err := persister.LoadLines(chatID)
	if err != nil {
		log.Warn().Int64("chatId", chatID).Err(err).Msg("failed to load cart, starting empty")
		return s
	}
	s.lines = lines
	return s
}

// Add inserts a line or merges into an existing one with the same composite
// key. The incoming quantity is clamped to [1,99] first; a merged sum is
// deliberately not re-clamped, matching the shop page's long-standing
// behavior.
func (s *Store) Add(productID, name, style string, unitPrice float64, image string, quantity int) {
	quantity = ClampQuantity(quantity)
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Style == style {
			s.lines[i].Quantity += quantity
			s.persist()
			return
		}
	}
	s.lines = append(s.lines, Line{
		ProductID: productID,
		Name:      name,
		Style:     style,
		UnitPrice: unitPrice,
		Image:     image,
		Quantity:  quantity,
	})
	s.persist()
}

// SetQuantity sets an existing line's quantity, clamped. Absent keys are a
// no-op.
func (s *Store) SetQuantity(productID, style string, quantity int) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Style == style {
			s.lines[i].Quantity = ClampQuantity(quantity)
			s.persist()
			return
		}
	}
}

// Remove deletes a line. Absent keys are a no-op.
func (s *Store) Remove(productID, style string) {
	for i := range s.lines {
		if s.lines[i].ProductID == productID && s.lines[i].Style == style {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
			s.persist()
			return
		}
	}
}

// Lines returns a copy of the line list in insertion order.
func (s *Store) Lines() []Line {
	return append([]Line(nil), s.lines...)
}

// Line returns the line at the given position of the current list, for
// keyboard callbacks that address lines by index.
func (s *Store) Line(i int) (Line, bool) {
	if i < 0 || i >= len(s.lines) {
		return Line{}, false
	}
	return s.lines[i], true
}

// Subtotal sums every line's subtotal.
func (s *Store) Subtotal() float64 {
	var sum float64
	for _, l := range s.lines {
		sum += l.Subtotal()
	}
	return sum
}

// TotalItemCount sums quantities across lines, for the cart badge.
func (s *Store) TotalItemCount() int {
	var n int
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// persist writes the whole line list. Write failures are logged and
// swallowed: a cart that stops persisting is still a working cart.
func (s *Store) persist() {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveLines(s.chatID, s.lines); err != nil {
		log.Warn().Int64("chatId", s.chatID).Err(err).Msg("failed to persist cart")
	}
}
