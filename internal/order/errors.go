package order

import (
	"errors"
	"fmt"
)

// Validation codes, also used as the HTTP error code.
const (
	CodeMissingStore         = "missing_store"
	CodeEmptyCart            = "empty_cart"
	CodeUnresolvedLineItem   = "unresolved_line_item"
	CodeMissingOperator      = "missing_operator"
	CodeInvalidQuantity      = "invalid_quantity"
	CodeInvalidPaymentMethod = "invalid_payment_method"
)

// ValidationError is returned by Build. Message is operator-facing; Line
// names the offending cart line when there is one.
type ValidationError struct {
	Code    string
	Message string
	Line    string
}

func (e *ValidationError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Line)
	}
	return e.Code
}

// Is matches any ValidationError with the same code, so callers can write
// errors.Is(err, order.ErrEmptyCart).
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrMissingStore = &ValidationError{
		Code:    CodeMissingStore,
		Message: "Выберите магазин",
	}
	ErrEmptyCart = &ValidationError{
		Code:    CodeEmptyCart,
		Message: "Корзина пуста",
	}
	ErrUnresolvedLineItem = &ValidationError{
		Code:    CodeUnresolvedLineItem,
		Message: "Не удалось определить ID для одного из товаров. Удалите его из корзины и добавьте заново.",
	}
	ErrMissingOperator = &ValidationError{
		Code:    CodeMissingOperator,
		Message: "Не найден telegram_id. Откройте в Telegram или добавьте ?tid=ВАШ_TELEGRAM_ID в адрес.",
	}
	ErrInvalidQuantity = &ValidationError{
		Code:    CodeInvalidQuantity,
		Message: "Количество должно быть целым числом не меньше 1",
	}
	ErrInvalidPaymentMethod = &ValidationError{
		Code:    CodeInvalidPaymentMethod,
		Message: "Неизвестный метод оплаты",
	}
)

var (
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrSubmissionFailed   = errors.New("order submission failed")
	ErrIllegalTransition  = errors.New("illegal transition of submission status")
)

func withLine(base *ValidationError, line string) *ValidationError {
	return &ValidationError{Code: base.Code, Message: base.Message, Line: line}
}
