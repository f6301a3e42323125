package quote

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrInvalidItem is returned when an item lacks a name or a positive price.
	ErrInvalidItem = errors.New("item requires a name and a positive unit price")
	// ErrIndexOutOfRange is returned for item indexes outside the quote.
	ErrIndexOutOfRange = errors.New("item index out of range")
	// ErrInvalidDiscount is returned for discounts outside 0..100.
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	// ErrUnknownAction is returned by Reduce for actions it does not handle.
	ErrUnknownAction = errors.New("unknown action")
)

var validate = validator.New()

// NoEdit marks a form that is not editing any item.
const NoEdit = -1

// Form is the editor state: the quote being built, the discount applied to
// it and the item currently being edited. Forms are values; Reduce returns a
// new Form and never touches the one it was given.
type Form struct {
	Quote           Quote   `json:"quote"`
	DiscountPercent float64 `json:"discount_percent"`
	Editing         int     `json:"editing"`
}

// NewForm returns an empty form.
func NewForm() Form {
	return Form{Editing: NoEdit}
}

// Total is the sum of line subtotals.
func (f Form) Total() float64 {
	return f.Quote.Total()
}

// FinalValue is the total after the discount.
func (f Form) FinalValue() float64 {
	return FinalValue(f.Total(), f.DiscountPercent)
}

// EditingItem returns the item under edit, if any.
func (f Form) EditingItem() (LineItem, bool) {
	if f.Editing < 0 || f.Editing >= len(f.Quote.LineItems) {
		return LineItem{}, false
	}
	return f.Quote.LineItems[f.Editing], true
}

// ItemInput is what the user types for a line item.
type ItemInput struct {
	Name           string  `json:"name" validate:"required"`
	Quantity       int     `json:"quantity" validate:"min=1"`
	UnitPrice      float64 `json:"unit_price" validate:"gt=0"`
	Specifications string  `json:"specifications"`
	Material       string  `json:"material"`
}

// LineItem turns the input into a priced item.
func (in ItemInput) LineItem() LineItem {
	return LineItem{
		Name:           in.Name,
		Quantity:       in.Quantity,
		Specifications: in.Specifications,
		Material:       in.Material,
		UnitPrice:      in.UnitPrice,
		Subtotal:       float64(in.Quantity) * in.UnitPrice,
	}
}

func (in ItemInput) validate() error {
	if err := validate.Struct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	return nil
}

// Action is a user intent applied to a Form by Reduce.
type Action interface {
	apply(f Form) (Form, error)
}

// Reduce applies a to a copy of f.
func Reduce(f Form, a Action) (Form, error) {
	if a == nil {
		return f, ErrUnknownAction
	}
	next := f
	next.Quote = f.Quote.Clone()
	return a.apply(next)
}

// SetClient replaces the client block.
type SetClient struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Project string `json:"project"`
}

func (a SetClient) apply(f Form) (Form, error) {
	f.Quote.ClientName = a.Name
	f.Quote.ClientPhone = a.Phone
	f.Quote.ClientAddress = a.Address
	f.Quote.ProjectName = a.Project
	return f, nil
}

// SetConditions replaces the conditions and free-text boxes.
type SetConditions struct {
	DeliveryTerm   string `json:"delivery_term"`
	PaymentTerms   string `json:"payment_terms"`
	ValidityPeriod string `json:"validity_period"`
	Notes          string `json:"notes"`
	IncludedItems  string `json:"included_items"`
	ExcludedItems  string `json:"excluded_items"`
}

func (a SetConditions) apply(f Form) (Form, error) {
	f.Quote.DeliveryTerm = a.DeliveryTerm
	f.Quote.PaymentTerms = a.PaymentTerms
	f.Quote.ValidityPeriod = a.ValidityPeriod
	f.Quote.Notes = a.Notes
	f.Quote.IncludedItems = a.IncludedItems
	f.Quote.ExcludedItems = a.ExcludedItems
	return f, nil
}

// AddItem appends a new item.
type AddItem struct {
	Item ItemInput `json:"item"`
}

func (a AddItem) apply(f Form) (Form, error) {
	if err := a.Item.validate(); err != nil {
		return f, err
	}
	f.Quote.LineItems = append(f.Quote.LineItems, a.Item.LineItem())
	return f, nil
}

// EditItem puts an existing item under edit.
type EditItem struct {
	Index int `json:"index"`
}

func (a EditItem) apply(f Form) (Form, error) {
	if a.Index < 0 || a.Index >= len(f.Quote.LineItems) {
		return f, ErrIndexOutOfRange
	}
	f.Editing = a.Index
	return f, nil
}

// CancelEdit leaves edit mode without changes.
type CancelEdit struct{}

func (CancelEdit) apply(f Form) (Form, error) {
	f.Editing = NoEdit
	return f, nil
}

// UpdateItem replaces the item at Index and leaves edit mode.
type UpdateItem struct {
	Index int       `json:"index"`
	Item  ItemInput `json:"item"`
}

func (a UpdateItem) apply(f Form) (Form, error) {
	if a.Index < 0 || a.Index >= len(f.Quote.LineItems) {
		return f, ErrIndexOutOfRange
	}
	if err := a.Item.validate(); err != nil {
		return f, err
	}
	f.Quote.LineItems[a.Index] = a.Item.LineItem()
	f.Editing = NoEdit
	return f, nil
}

// RemoveItem deletes the item at Index.
type RemoveItem struct {
	Index int `json:"index"`
}

func (a RemoveItem) apply(f Form) (Form, error) {
	if a.Index < 0 || a.Index >= len(f.Quote.LineItems) {
		return f, ErrIndexOutOfRange
	}
	items := f.Quote.LineItems
	f.Quote.LineItems = append(items[:a.Index:a.Index], items[a.Index+1:]...)
	switch {
	case f.Editing == a.Index:
		f.Editing = NoEdit
	case f.Editing > a.Index:
		f.Editing--
	}
	return f, nil
}

// SetDiscount sets the discount percentage.
type SetDiscount struct {
	Percent float64 `json:"percent" validate:"min=0,max=100"`
}

func (a SetDiscount) apply(f Form) (Form, error) {
	if err := validate.Struct(a); err != nil {
		return f, fmt.Errorf("%w: %v", ErrInvalidDiscount, err)
	}
	f.DiscountPercent = a.Percent
	return f, nil
}

// LoadQuote merges an imported or restored quote into the form. Non-empty
// text fields win over the current ones; line items are replaced.
type LoadQuote struct {
	Quote Quote `json:"quote"`
}

func (a LoadQuote) apply(f Form) (Form, error) {
	in := a.Quote
	q := &f.Quote
	mergeField(&q.ClientName, in.ClientName)
	mergeField(&q.ClientPhone, in.ClientPhone)
	mergeField(&q.ClientAddress, in.ClientAddress)
	mergeField(&q.ProjectName, in.ProjectName)
	mergeField(&q.DeliveryTerm, in.DeliveryTerm)
	mergeField(&q.PaymentTerms, in.PaymentTerms)
	mergeField(&q.ValidityPeriod, in.ValidityPeriod)
	mergeField(&q.Notes, in.Notes)
	mergeField(&q.IncludedItems, in.IncludedItems)
	mergeField(&q.ExcludedItems, in.ExcludedItems)
	q.LineItems = in.Clone().LineItems
	f.Editing = NoEdit
	return f, nil
}

func mergeField(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
