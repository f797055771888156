// Package catalog holds the static mapping of resource identifiers to prices
// and the global amount bounds. The resource set is closed after load:
// lookups for unknown ids fail, they are never created on demand.
package catalog

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/solgate/solgate/types"
)

// Default global bounds, in display units of the base currency.
var (
	DefaultMinAmount = decimal.RequireFromString("0.001")
	DefaultMaxAmount = decimal.NewFromInt(1000)
)

// Catalog is an immutable set of resource descriptors. Safe for concurrent
// reads without synchronization.
type Catalog struct {
	resources map[string]types.ResourceDescriptor
	minAmount decimal.Decimal
	maxAmount decimal.Decimal
}

// New builds a catalog from the given descriptors and bounds. Every price
// must fall within [minAmount, maxAmount].
func New(resources []types.ResourceDescriptor, minAmount, maxAmount decimal.Decimal) (*Catalog, error) {
	if minAmount.GreaterThan(maxAmount) {
		return nil, types.NewError(types.ErrInvalidConfig,
			fmt.Sprintf("min amount %s exceeds max amount %s", minAmount, maxAmount))
	}

	byID := make(map[string]types.ResourceDescriptor, len(resources))
	for _, r := range resources {
		if r.ResourceID == "" {
			return nil, types.NewError(types.ErrInvalidConfig, "resource id cannot be empty")
		}
		if _, dup := byID[r.ResourceID]; dup {
			return nil, types.NewError(types.ErrInvalidConfig,
				fmt.Sprintf("duplicate resource id %q", r.ResourceID))
		}
		if r.Price.LessThan(minAmount) || r.Price.GreaterThan(maxAmount) {
			return nil, types.NewError(types.ErrInvalidConfig,
				fmt.Sprintf("price of %q outside bounds [%s, %s]", r.ResourceID, minAmount, maxAmount))
		}
		byID[r.ResourceID] = r
	}

	return &Catalog{
		resources: byID,
		minAmount: minAmount,
		maxAmount: maxAmount,
	}, nil
}

// NewWithDefaults builds a catalog from the stock resource table and the
// default bounds.
func NewWithDefaults() *Catalog {
	c, err := New(DefaultResources(), DefaultMinAmount, DefaultMaxAmount)
	if err != nil {
		// The stock table is static and always within bounds.
		panic(err)
	}
	return c
}

// DefaultResources returns the stock resource table.
func DefaultResources() []types.ResourceDescriptor {
	return []types.ResourceDescriptor{
		{ResourceID: "basic_content", Price: decimal.RequireFromString("0.05"), Description: "Access to basic content"},
		{ResourceID: "resource_1", Price: decimal.RequireFromString("0.1"), Description: "Access to resource 1"},
		{ResourceID: "resource_2", Price: decimal.RequireFromString("0.5"), Description: "Access to resource 2"},
		{ResourceID: "premium_content", Price: decimal.RequireFromString("1.0"), Description: "Access to premium content"},
		{ResourceID: "pro_content", Price: decimal.RequireFromString("2.0"), Description: "Access to pro content"},
	}
}

// Get looks up a resource descriptor by id.
func (c *Catalog) Get(resourceID string) (types.ResourceDescriptor, error) {
	r, ok := c.resources[resourceID]
	if !ok {
		return types.ResourceDescriptor{}, types.NewError(types.ErrUnknownResource,
			fmt.Sprintf("unknown resource: %s", resourceID))
	}
	return r, nil
}

// ValidateAmount checks that amount covers the resource's price and falls
// within the global bounds. Side-effect free.
func (c *Catalog) ValidateAmount(resourceID string, amount decimal.Decimal) error {
	r, err := c.Get(resourceID)
	if err != nil {
		return err
	}

	if amount.GreaterThan(c.maxAmount) {
		return types.NewError(types.ErrAmountTooHigh,
			fmt.Sprintf("amount %s exceeds maximum %s", amount, c.maxAmount))
	}
	if amount.LessThan(c.minAmount) {
		return types.NewError(types.ErrAmountTooLow,
			fmt.Sprintf("amount %s below minimum %s", amount, c.minAmount))
	}
	if amount.LessThan(r.Price) {
		return types.NewError(types.ErrAmountTooLow,
			fmt.Sprintf("amount %s below price %s of %s", amount, r.Price, resourceID))
	}

	return nil
}

// All returns every descriptor, ordered by resource id.
func (c *Catalog) All() []types.ResourceDescriptor {
	out := make([]types.ResourceDescriptor, 0, len(c.resources))
	for _, r := range c.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ResourceID < out[j].ResourceID })
	return out
}

// Bounds returns the global [min, max] amount bounds.
func (c *Catalog) Bounds() (min, max decimal.Decimal) {
	return c.minAmount, c.maxAmount
}
