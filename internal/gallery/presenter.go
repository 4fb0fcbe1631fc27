// Package gallery holds the transient state of the product image viewer: an
// ordered image list plus a wrapping cursor, created on open and discarded on
// close.
package gallery

// Presenter is the image viewer state machine: either closed, or open over a
// fixed image list with a current index.
type Presenter struct {
	open        bool
	title       string
	description string
	images      []string
	index       int
}

func New() *Presenter {
	return &Presenter{}
}

// Open transitions to the open state over the given images, cursor at 0.
// An empty image list still opens; the view shows a placeholder.
func (p *Presenter) Open(title, description string, images []string) {
	p.open = true
	p.title = title
	p.description = description
	p.images = append([]string(nil), images...)
	p.index = 0
}

// Close discards all state. The next Open starts fresh.
func (p *Presenter) Close() {
	*p = Presenter{}
}

// IsOpen reports whether the viewer is open.
func (p *Presenter) IsOpen() bool { return p.open }

// Step moves the cursor by delta, wrapping in both directions. No-op when
// closed or when there is at most one image.
func (p *Presenter) Step(delta int) {
	if !p.open || len(p.images) <= 1 {
		return
	}
	p.index = wrap(p.index+delta, len(p.images))
}

// SetIndex jumps to an absolute position, modulo-normalized the same way as
// Step. Used by thumbnail selection.
func (p *Presenter) SetIndex(i int) {
	if !p.open || len(p.images) == 0 {
		return
	}
	p.index = wrap(i, len(p.images))
}

// Current returns the image under the cursor, false when the list is empty
// or the viewer is closed.
func (p *Presenter) Current() (string, bool) {
	if !p.open || len(p.images) == 0 {
		return "", false
	}
	return p.images[p.index], true
}

// Index returns the cursor position.
func (p *Presenter) Index() int { return p.index }

// Count returns the number of images.
func (p *Presenter) Count() int { return len(p.images) }

// Images returns the image list.
func (p *Presenter) Images() []string { return append([]string(nil), p.images...) }

// Title returns the product name the viewer was opened with.
func (p *Presenter) Title() string { return p.title }

// Description returns the product description text.
func (p *Presenter) Description() string { return p.description }

// wrap is a positive-biased modulo: the result is always in [0, n).
func wrap(i, n int) int {
	return ((i % n) + n) % n
}
