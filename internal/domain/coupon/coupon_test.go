package coupon

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestRuleAmount(t *testing.T) {
	tests := []struct {
		name     string
		rule     Rule
		subtotal decimal.Decimal
		want     decimal.Decimal
	}{
		{
			name:     "percentage 10% of $50",
			rule:     Rule{Code: "SAVE10", Type: DiscountPercentage, Value: d("10")},
			subtotal: d("50"),
			want:     d("5.00"),
		},
		{
			name:     "percentage 15% of $29.97 rounds to cents",
			rule:     Rule{Code: "WELCOME", Type: DiscountPercentage, Value: d("15")},
			subtotal: d("29.97"),
			// 29.97 * 15% = 4.4955 -> 4.50
			want: d("4.50"),
		},
		{
			name:     "percentage of zero subtotal",
			rule:     Rule{Code: "SAVE5", Type: DiscountPercentage, Value: d("5")},
			subtotal: decimal.Zero,
			want:     d("0"),
		},
		{
			name:     "fixed $9 off $100",
			rule:     Rule{Code: "OVER9000", Type: DiscountFixed, Value: d("9")},
			subtotal: d("100"),
			want:     d("9.00"),
		},
		{
			name:     "fixed discount capped at subtotal",
			rule:     Rule{Code: "OVER9000", Type: DiscountFixed, Value: d("9")},
			subtotal: d("4.25"),
			want:     d("4.25"),
		},
		{
			name:     "unknown type yields zero",
			rule:     Rule{Code: "BAD", Type: DiscountType("bogus"), Value: d("10")},
			subtotal: d("100"),
			want:     d("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rule.Amount(tt.subtotal)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestTableResolver(t *testing.T) {
	resolver := NewTableResolver(DefaultRules())
	ctx := context.Background()

	t.Run("exact code", func(t *testing.T) {
		r, err := resolver.Resolve(ctx, "SAVE10")
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", r.Code)
		assert.Equal(t, DiscountPercentage, r.Type)
	})

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		r, err := resolver.Resolve(ctx, "save10")
		require.NoError(t, err)
		assert.Equal(t, "SAVE10", r.Code)
	})

	t.Run("surrounding whitespace tolerated", func(t *testing.T) {
		r, err := resolver.Resolve(ctx, "  welcome ")
		require.NoError(t, err)
		assert.Equal(t, "WELCOME", r.Code)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "UNKNOWN")
		require.ErrorIs(t, err, ErrInvalidCoupon)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, "")
		require.ErrorIs(t, err, ErrInvalidCoupon)
	})
}

func TestTableResolverLaterRuleWins(t *testing.T) {
	resolver := NewTableResolver([]Rule{
		{Code: "DEAL", Type: DiscountPercentage, Value: d("5")},
		{Code: "deal", Type: DiscountPercentage, Value: d("20")},
	})

	r, err := resolver.Resolve(context.Background(), "DEAL")
	require.NoError(t, err)
	assert.True(t, d("20").Equal(r.Value))
}
