package payment

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// LabeledPrice is one invoice row with an amount in minor units
type LabeledPrice struct {
	Label  string `json:"label"`
	Amount int64  `json:"amount"`
}

// InvoiceOptions are the provider settings copied onto every invoice
type InvoiceOptions struct {
	Title               string
	Description         string
	Currency            valueobject.Currency
	NeedName            bool
	NeedPhoneNumber     bool
	NeedEmail           bool
	NeedShippingAddress bool
}

// Invoice is the priced order request sent to the payment collaborator
type Invoice struct {
	Payload             string               `json:"payload"`
	UserID              int64                `json:"user_id"`
	Title               string               `json:"title"`
	Description         string               `json:"description"`
	Currency            valueobject.Currency `json:"currency"`
	Prices              []LabeledPrice       `json:"prices"`
	NeedName            bool                 `json:"need_name"`
	NeedPhoneNumber     bool                 `json:"need_phone_number"`
	NeedEmail           bool                 `json:"need_email"`
	NeedShippingAddress bool                 `json:"need_shipping_address"`
	IssuedAt            time.Time            `json:"issued_at"`

	// Items are the cart lines as priced at issue time. Settlement records
	// these, whatever the cart holds by then.
	Items []cart.Item `json:"-"`
}

// NewInvoice prices every cart line as round(line_total x 100) and keeps a
// copy of the lines
func NewInvoice(c *cart.ShoppingCart, opts InvoiceOptions) (*Invoice, error) {
	if c.NumProducts() == 0 {
		return nil, shared.ErrEmptyCart
	}
	items := c.Items()
	prices := make([]LabeledPrice, 0, len(items))
	for _, it := range items {
		prices = append(prices, LabeledPrice{
			Label:  fmt.Sprintf("%s x%d", it.DisplayName(), it.Quantity),
			Amount: valueobject.ToMinorUnits(it.Total()),
		})
	}
	return &Invoice{
		Payload:             uuid.NewString(),
		UserID:              c.UserID(),
		Title:               opts.Title,
		Description:         opts.Description,
		Currency:            opts.Currency,
		Prices:              prices,
		NeedName:            opts.NeedName,
		NeedPhoneNumber:     opts.NeedPhoneNumber,
		NeedEmail:           opts.NeedEmail,
		NeedShippingAddress: opts.NeedShippingAddress,
		IssuedAt:            time.Now(),
		Items:               items,
	}, nil
}

// TotalAmount sums the row amounts in minor units
func (i *Invoice) TotalAmount() int64 {
	var total int64
	for _, p := range i.Prices {
		total += p.Amount
	}
	return total
}

// PreCheckoutQuery is the collaborator asking whether to proceed with a charge
type PreCheckoutQuery struct {
	ID          string               `json:"id"`
	UserID      int64                `json:"user_id"`
	Payload     string               `json:"payload"`
	Currency    valueobject.Currency `json:"currency"`
	TotalAmount int64                `json:"total_amount"`
}

// SuccessfulPayment notifies that the charge went through
type SuccessfulPayment struct {
	UserID           int64                `json:"user_id"`
	Payload          string               `json:"payload"`
	Currency         valueobject.Currency `json:"currency"`
	TotalAmount      int64                `json:"total_amount"`
	ProviderChargeID string               `json:"provider_charge_id"`
}

// Check accepts the query only if it refers to this invoice and reports the
// exact total computed at issue time. A differing total is never corrected.
func (i *Invoice) Check(payload string, currency valueobject.Currency, totalAmount int64) error {
	if payload != i.Payload {
		return shared.NewDomainError(shared.CodeInvalidState, "Invoice is no longer valid")
	}
	if currency != i.Currency || totalAmount != i.TotalAmount() {
		return shared.ErrPriceMismatch
	}
	return nil
}
