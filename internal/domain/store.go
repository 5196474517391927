package domain

// Store is a retail outlet the operator can sell to.
type Store struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
	BinIIN  string `json:"bin_iin,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// Rep is the sales representative profile returned by the backend.
type Rep struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	TelegramID string `json:"telegram_id"`
}
