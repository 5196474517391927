package domain

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
	PaymentQR   PaymentMethod = "QR"
	// PaymentKaspi is settlement by Kaspi invoice.
	PaymentKaspi PaymentMethod = "Kaspi"
)

// PaymentMethods lists the methods in the order the payment dialog shows them.
var PaymentMethods = []PaymentMethod{PaymentCash, PaymentCard, PaymentQR, PaymentKaspi}

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentQR, PaymentKaspi:
		return true
	}
	return false
}

// Label is the operator-facing name of the method.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCash:
		return "Наличные"
	case PaymentCard:
		return "Карта"
	case PaymentQR:
		return "QR"
	case PaymentKaspi:
		return "Счёт Kaspi"
	default:
		return string(m)
	}
}

func (m PaymentMethod) String() string {
	return string(m)
}

type PaymentSelection struct {
	Method PaymentMethod `json:"method"`
	Txn    string        `json:"txn"`
}
