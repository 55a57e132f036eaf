package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Errors for the Sale domain
var (
	ErrUnsupportedQuantity = errors.New("cannot sell more than 20 identical items")
	ErrFutureSaleDate      = errors.New("sale date cannot be in the future")
	ErrNoItems             = errors.New("sale must contain at least one item")
)

// Quantity tier boundaries
const (
	MinQuantityPerProduct    = 1
	BasicDiscountMinQuantity = 4
	BasicDiscountMaxQuantity = 9
	HighDiscountMinQuantity  = 10
	MaxQuantityPerProduct    = 20
)

// Discount rates per tier
var (
	NoDiscountRate    = decimal.Zero
	BasicDiscountRate = decimal.NewFromFloat(0.10)
	HighDiscountRate  = decimal.NewFromFloat(0.20)
)

// DiscountTier maps an inclusive quantity range to a discount rate.
type DiscountTier struct {
	MinQuantity int
	MaxQuantity int
	Rate        decimal.Decimal
}

// DiscountPolicy computes quantity-tiered discounts. Tiers are
// evaluated in order; the first range containing the quantity wins.
type DiscountPolicy struct {
	tiers []DiscountTier
}

// NewDiscountPolicy creates a policy from an ordered tier list
func NewDiscountPolicy(tiers []DiscountTier) *DiscountPolicy {
	return &DiscountPolicy{tiers: tiers}
}

// DefaultDiscountPolicy returns the standard retail tier table:
// 1-3 no discount, 4-9 ten percent, 10-20 twenty percent.
func DefaultDiscountPolicy() *DiscountPolicy {
	return NewDiscountPolicy([]DiscountTier{
		{MinQuantity: MinQuantityPerProduct, MaxQuantity: BasicDiscountMinQuantity - 1, Rate: NoDiscountRate},
		{MinQuantity: BasicDiscountMinQuantity, MaxQuantity: BasicDiscountMaxQuantity, Rate: BasicDiscountRate},
		{MinQuantity: HighDiscountMinQuantity, MaxQuantity: MaxQuantityPerProduct, Rate: HighDiscountRate},
	})
}

// CalculateDiscount returns the discount amount for a line with the
// given quantity and unit price. Quantities outside every tier fail
// with ErrUnsupportedQuantity; quantities below 1 never match a tier.
func (p *DiscountPolicy) CalculateDiscount(quantity int, unitPrice decimal.Decimal) (decimal.Decimal, error) {
	for _, tier := range p.tiers {
		if quantity >= tier.MinQuantity && quantity <= tier.MaxQuantity {
			gross := decimal.NewFromInt(int64(quantity)).Mul(unitPrice)
			return gross.Mul(tier.Rate), nil
		}
	}
	return decimal.Zero, ErrUnsupportedQuantity
}
