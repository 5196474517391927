// Package receipt renders the printable sales receipt of a completed order.
package receipt

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/Platitedengi/idistr-mvp/internal/domain"
	"github.com/shopspring/decimal"
)

const Title = "ТОВАРНЫЙ ЧЕК"

//go:embed templates/receipt.html.tmpl
var templateFS embed.FS

var ErrMissingOrderID = errors.New("receipt requires a server order id")

// ShouldIssue reports whether a receipt is printed for the payment method.
// Only cash sales get one.
func ShouldIssue(method domain.PaymentMethod) bool {
	return method == domain.PaymentCash
}

// Input is everything a receipt shows. OrderID must be the id the backend
// returned.
type Input struct {
	OrderID  string
	IssuedAt time.Time
	Store    domain.Store
	Lines    []domain.CartLine
	Payment  domain.PaymentSelection
	Note     string
}

// Document is a rendered, self-contained HTML receipt.
type Document struct {
	OrderID  string
	IssuedAt time.Time
	Total    decimal.Decimal
	HTML     []byte
}

type Generator struct {
	tmpl      *template.Template
	loc       *time.Location
	autoPrint bool
}

type GeneratorOption func(*Generator)

// WithLocation sets the time zone the issue time is printed in.
func WithLocation(loc *time.Location) GeneratorOption {
	return func(g *Generator) { g.loc = loc }
}

// WithAutoPrint controls the print-on-open script. On by default.
func WithAutoPrint(on bool) GeneratorOption {
	return func(g *Generator) { g.autoPrint = on }
}

func NewGenerator(opts ...GeneratorOption) (*Generator, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/receipt.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse receipt template: %w", err)
	}
	g := &Generator{tmpl: tmpl, loc: time.Local, autoPrint: true}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

type row struct {
	N        int
	Title    string
	SKU      string
	Qty      int
	Price    string
	Subtotal string
}

type view struct {
	Title       string
	OrderID     string
	IssuedAt    string
	StoreName   string
	StorePhone  string
	StoreBinIIN string
	Rows        []row
	Total       string
	Method      string
	Txn         string
	Note        string
	AutoPrint   bool
}

func (g *Generator) Generate(in Input) (*Document, error) {
	if in.OrderID == "" {
		return nil, ErrMissingOrderID
	}
	issued := in.IssuedAt
	if issued.IsZero() {
		issued = time.Now()
	}

	v := view{
		Title:       Title,
		OrderID:     in.OrderID,
		IssuedAt:    issued.In(g.loc).Format("02.01.2006, 15:04:05"),
		StoreName:   orDefault(in.Store.Name, "Магазин"),
		StorePhone:  orDefault(in.Store.Phone, "—"),
		StoreBinIIN: orDefault(in.Store.BinIIN, "—"),
		Rows:        make([]row, 0, len(in.Lines)),
		Method:      in.Payment.Method.Label(),
		Txn:         in.Payment.Txn,
		Note:        in.Note,
		AutoPrint:   g.autoPrint,
	}

	total := decimal.Zero
	for i, line := range in.Lines {
		price := decimal.NewFromFloat(line.Price)
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Qty)))
		total = total.Add(subtotal)
		v.Rows = append(v.Rows, row{
			N:        i + 1,
			Title:    line.Title,
			SKU:      line.SKU,
			Qty:      line.Qty,
			Price:    FormatMoney(price),
			Subtotal: FormatMoney(subtotal),
		})
	}
	v.Total = FormatMoney(total)

	var buf bytes.Buffer
	if err := g.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render receipt %s: %w", in.OrderID, err)
	}

	return &Document{
		OrderID:  in.OrderID,
		IssuedAt: issued,
		Total:    total,
		HTML:     buf.Bytes(),
	}, nil
}

// FormatMoney prints whole amounts without a fraction and everything else
// with two decimal places.
func FormatMoney(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.String()
	}
	return d.StringFixed(2)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
