package gateway

import "github.com/Platitedengi/idistr-mvp/internal/domain"

// Wire types accept the loose typing of the backend: ids and codes may come
// as numbers, prices as strings.

type wireRep struct {
	ID         domain.Text `json:"id"`
	Name       domain.Text `json:"name"`
	Phone      domain.Text `json:"phone"`
	TelegramID domain.Text `json:"telegram_id"`
}

type wireStore struct {
	ID      domain.Text `json:"id"`
	Name    domain.Text `json:"name"`
	Address domain.Text `json:"address"`
	BinIIN  domain.Text `json:"bin_iin"`
	Phone   domain.Text `json:"phone"`
}

type wireProduct struct {
	ID       domain.Text   `json:"id"`
	Title    domain.Text   `json:"title"`
	SKU      domain.Text   `json:"sku"`
	Unit     domain.Text   `json:"unit"`
	Category domain.Text   `json:"category"`
	Price    domain.Number `json:"price"`
	PackSize domain.Number `json:"pack_size"`
	ImageURL domain.Text   `json:"image_url"`
	Img      domain.Text   `json:"img"`
}

type repMeResponse struct {
	Rep    *wireRep    `json:"rep"`
	Stores []wireStore `json:"stores"`
}

type productsResponse struct {
	Items []wireProduct `json:"items"`
}

type orderResponse struct {
	OrderID domain.Text `json:"order_id"`
}

// RepMe is the operator profile and the stores assigned to them.
type RepMe struct {
	Rep    *domain.Rep
	Stores []domain.Store
}

func (w *wireRep) toDomain() *domain.Rep {
	if w == nil {
		return nil
	}
	return &domain.Rep{
		ID:         domain.CanonicalID(string(w.ID)),
		Name:       string(w.Name),
		Phone:      string(w.Phone),
		TelegramID: domain.CanonicalID(string(w.TelegramID)),
	}
}

func (w wireStore) toDomain() domain.Store {
	return domain.Store{
		ID:      domain.CanonicalID(string(w.ID)),
		Name:    string(w.Name),
		Address: string(w.Address),
		BinIIN:  string(w.BinIIN),
		Phone:   string(w.Phone),
	}
}

func (w wireProduct) toDomain() domain.Product {
	image := string(w.ImageURL)
	if image == "" {
		image = string(w.Img)
	}
	return domain.Product{
		ID:       domain.CanonicalID(string(w.ID)),
		Title:    string(w.Title),
		SKU:      string(w.SKU),
		Unit:     string(w.Unit),
		Category: string(w.Category),
		Price:    float64(w.Price),
		PackSize: int(w.PackSize),
		ImageURL: image,
	}
}
