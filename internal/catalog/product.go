package catalog

import "strings"

// StatusDelisted marks products that should not appear in the default
// visible set. Compared after trimming, per the sheet's convention.
const StatusDelisted = "下架"

// Product is the strictly-typed internal model. Nothing past this point
// re-inspects raw field shapes.
type Product struct {
	ID          string
	Name        string
	Category    string
	Collection  string
	Status      string
	Description string
	Price       Price
	Images      []string
	Styles      []string
}

// CoverImage is the card thumbnail: the first normalized image, or "" when
// the product has none.
func (p Product) CoverImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// Delisted reports whether the product's status marks it as taken down.
func (p Product) Delisted() bool {
	return strings.TrimSpace(p.Status) == StatusDelisted
}

// newProduct normalizes one raw sheet row. The identifier falls back to the
// name when the id column is empty.
func newProduct(raw RawProduct) Product {
	id := strings.TrimSpace(raw.ID.String())
	if id == "" {
		id = strings.TrimSpace(raw.Name.String())
	}
	return Product{
		ID:          id,
		Name:        strings.TrimSpace(raw.Name.String()),
		Category:    NormalizeCategory(raw.Category.String()),
		Collection:  strings.TrimSpace(raw.Collection.String()),
		Status:      strings.TrimSpace(raw.Status.String()),
		Description: strings.TrimSpace(raw.Description.String()),
		Price:       raw.Price,
		Images:      NormalizeImages(raw.Images),
		Styles:      NormalizeStyles(raw.Styles),
	}
}
