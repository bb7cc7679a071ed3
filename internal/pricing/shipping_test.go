package pricing_test

import (
	"testing"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZones() []pricing.Zone {
	return []pricing.Zone{
		{Name: "inner", Fee: decimal.NewFromInt(20_000), Provinces: []string{"Hồ Chí Minh"}},
		{Name: "near", Fee: decimal.NewFromInt(30_000), Provinces: []string{"Bình Dương", "Đồng Nai"}},
		{Name: "far", Fee: decimal.NewFromInt(45_000), Provinces: []string{"Hà Nội"}},
	}
}

func TestShippingTableFee(t *testing.T) {
	table, err := pricing.NewShippingTable(dong, testZones(), nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		province string
		wantFee  int64
		wantZone string
		wantErr  error
	}{
		{name: "exact name: ok", province: "Hồ Chí Minh", wantFee: 20_000, wantZone: "inner"},
		{name: "city prefix and no diacritics: ok", province: "TP. Ho Chi Minh", wantFee: 20_000, wantZone: "inner"},
		{name: "province prefix, mixed case: ok", province: "Tỉnh  BÌNH dương", wantFee: 30_000, wantZone: "near"},
		{name: "d with stroke folded: ok", province: "dong nai", wantFee: 30_000, wantZone: "near"},
		{name: "far zone: ok", province: "ha noi", wantFee: 45_000, wantZone: "far"},
		{name: "unknown province: fail", province: "Atlantis", wantErr: domain.ErrUnresolvableAddress},
		{name: "empty province: fail", province: "  ", wantErr: domain.ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr := domain.Address{Line1: "1 Main St", Province: tt.province}

			fee, err := table.Fee(addr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, domain.KindValidation, domain.KindOf(err))
				return
			}
			require.NoError(t, err)

			assert.True(t, decimal.NewFromInt(tt.wantFee).Equal(fee.Amount))
			assert.Equal(t, "VND", fee.Currency.String())

			zone, err := table.ZoneName(addr)
			require.NoError(t, err)
			assert.Equal(t, tt.wantZone, zone)
		})
	}
}

func TestShippingTableDefaultFee(t *testing.T) {
	table, err := pricing.NewShippingTable(dong, testZones(), lo.ToPtr(decimal.NewFromInt(60_000)))
	require.NoError(t, err)

	fee, err := table.Fee(domain.Address{Line1: "1 Main St", Province: "Atlantis"})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(60_000).Equal(fee.Amount))
}

func TestNewShippingTable(t *testing.T) {
	tests := []struct {
		name      string
		zones     []pricing.Zone
		wantError string
	}{
		{
			name:      "no zones: fail",
			wantError: "no shipping zones configured",
		},
		{
			name: "duplicate province across zones: fail",
			zones: []pricing.Zone{
				{Name: "a", Fee: decimal.NewFromInt(1), Provinces: []string{"Hà Nội"}},
				{Name: "b", Fee: decimal.NewFromInt(2), Provinces: []string{"ha noi"}},
			},
			wantError: "zone[b]: province[ha noi] already belongs to zone[a]",
		},
		{
			name:      "negative fee: fail",
			zones:     []pricing.Zone{{Name: "a", Fee: decimal.NewFromInt(-1), Provinces: []string{"x"}}},
			wantError: "zone[a]: fee is negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pricing.NewShippingTable(dong, tt.zones, nil)
			require.EqualError(t, err, tt.wantError)
		})
	}
}
