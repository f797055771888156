package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solgate/solgate/types"
)

func TestGet(t *testing.T) {
	c := NewWithDefaults()

	r, err := c.Get("premium_content")
	require.NoError(t, err)
	assert.Equal(t, "premium_content", r.ResourceID)
	assert.True(t, r.Price.Equal(decimal.RequireFromString("1.0")))

	_, err = c.Get("no_such_resource")
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownResource, types.CodeOf(err))
}

func TestValidateAmount(t *testing.T) {
	c := NewWithDefaults()

	// exact price passes
	require.NoError(t, c.ValidateAmount("premium_content", decimal.RequireFromString("1.0")))

	// overpayment within bounds passes
	require.NoError(t, c.ValidateAmount("premium_content", decimal.RequireFromString("2.5")))

	// below price
	err := c.ValidateAmount("premium_content", decimal.RequireFromString("0.999999999"))
	require.Error(t, err)
	assert.Equal(t, types.ErrAmountTooLow, types.CodeOf(err))

	// above global maximum
	err = c.ValidateAmount("premium_content", decimal.NewFromInt(1001))
	require.Error(t, err)
	assert.Equal(t, types.ErrAmountTooHigh, types.CodeOf(err))

	// below global minimum
	err = c.ValidateAmount("premium_content", decimal.RequireFromString("0.0001"))
	require.Error(t, err)
	assert.Equal(t, types.ErrAmountTooLow, types.CodeOf(err))

	// unknown resources are never silently created
	err = c.ValidateAmount("no_such_resource", decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Equal(t, types.ErrUnknownResource, types.CodeOf(err))
}

func TestNewRejectsBadDescriptors(t *testing.T) {
	min := decimal.RequireFromString("0.001")
	max := decimal.NewFromInt(1000)

	_, err := New([]types.ResourceDescriptor{
		{ResourceID: "a", Price: decimal.NewFromInt(1)},
		{ResourceID: "a", Price: decimal.NewFromInt(2)},
	}, min, max)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfig, types.CodeOf(err))

	_, err = New([]types.ResourceDescriptor{
		{ResourceID: "too_cheap", Price: decimal.RequireFromString("0.0001")},
	}, min, max)
	require.Error(t, err)
	assert.Equal(t, types.ErrInvalidConfig, types.CodeOf(err))

	_, err = New(nil, max, min)
	require.Error(t, err)
}

func TestAllIsOrdered(t *testing.T) {
	c := NewWithDefaults()

	all := c.All()
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ResourceID, all[i].ResourceID)
	}
}
