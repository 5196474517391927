package domain

// FallbackImageURL is shown for products without an image.
const FallbackImageURL = "https://dummyimage.com/120x120/eaeaea/000&text=No+Image"

type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	SKU      string  `json:"sku"`
	Unit     string  `json:"unit"`
	Category string  `json:"category,omitempty"`
	Price    float64 `json:"price"`
	PackSize int     `json:"pack_size"`
	ImageURL string  `json:"image_url,omitempty"`
}

func (p Product) Image() string {
	if p.ImageURL == "" {
		return FallbackImageURL
	}
	return p.ImageURL
}

// HasPack reports whether the product is sold in packs of more than one unit.
func (p Product) HasPack() bool {
	return p.PackSize > 1
}
