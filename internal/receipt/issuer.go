package receipt

import (
	"context"

	"github.com/Platitedengi/idistr-mvp/pkg/logger"
	"go.uber.org/zap"
)

// Issuer renders receipts for cash sales and hands them to every surface.
// A receipt failure never fails the order, so Issue only logs.
type Issuer struct {
	gen      *Generator
	surfaces []Surface
	log      *zap.Logger
}

func NewIssuer(gen *Generator, log *zap.Logger, surfaces ...Surface) *Issuer {
	return &Issuer{gen: gen, surfaces: surfaces, log: logger.OrNop(log)}
}

// Issue returns the rendered document, or nil when the payment method gets
// no receipt or rendering failed.
func (i *Issuer) Issue(ctx context.Context, in Input) *Document {
	if !ShouldIssue(in.Payment.Method) {
		return nil
	}
	log := logger.WithTrace(ctx, i.log).With(zap.String("order_id", in.OrderID))

	doc, err := i.gen.Generate(in)
	if err != nil {
		log.Error("receipt generation failed", zap.Error(err))
		return nil
	}

	for _, s := range i.surfaces {
		if err := s.Open(ctx, doc); err != nil {
			log.Warn("receipt surface unavailable", zap.Error(err))
		}
	}
	log.Info("receipt issued", zap.String("total", FormatMoney(doc.Total)))
	return doc
}
