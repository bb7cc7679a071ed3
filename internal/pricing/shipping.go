package pricing

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Zone is a set of provinces sharing one flat shipping fee.
type Zone struct {
	Name      string
	Fee       decimal.Decimal
	Provinces []string
}

type zoneFee struct {
	name string
	fee  decimal.Decimal
}

// ShippingTable resolves a shipping fee from the province of an address. It is immutable after
// construction and safe for concurrent use.
type ShippingTable struct {
	currency   currency.Unit
	byProvince map[string]zoneFee
	defaultFee *decimal.Decimal
}

// NewShippingTable builds the lookup table. A nil defaultFee makes unknown provinces fail with
// domain.ErrUnresolvableAddress.
func NewShippingTable(cur currency.Unit, zones []Zone, defaultFee *decimal.Decimal) (*ShippingTable, error) {
	if len(zones) == 0 && defaultFee == nil {
		return nil, errors.New("no shipping zones configured")
	}

	if defaultFee != nil && defaultFee.IsNegative() {
		return nil, errors.New("default fee is negative")
	}

	byProvince := make(map[string]zoneFee)

	for _, zone := range zones {
		if zone.Fee.IsNegative() {
			return nil, fmt.Errorf("zone[%s]: fee is negative", zone.Name)
		}

		for _, province := range zone.Provinces {
			key := normalizeProvince(province)
			if key == "" {
				return nil, fmt.Errorf("zone[%s]: empty province", zone.Name)
			}

			if existing, ok := byProvince[key]; ok {
				return nil, fmt.Errorf("zone[%s]: province[%s] already belongs to zone[%s]", zone.Name, province, existing.name)
			}

			byProvince[key] = zoneFee{name: zone.Name, fee: zone.Fee}
		}
	}

	return &ShippingTable{
		currency:   cur,
		byProvince: byProvince,
		defaultFee: defaultFee,
	}, nil
}

// Fee returns the shipping fee for the address.
func (t *ShippingTable) Fee(addr domain.Address) (domain.Money, error) {
	zone, err := t.resolve(addr)
	if err != nil {
		return domain.Money{}, err
	}

	return domain.NewMoney(zone.fee, t.currency).Round(), nil
}

// ZoneName returns the name of the zone the address belongs to, "default" for the fallback zone.
func (t *ShippingTable) ZoneName(addr domain.Address) (string, error) {
	zone, err := t.resolve(addr)
	if err != nil {
		return "", err
	}
	return zone.name, nil
}

func (t *ShippingTable) resolve(addr domain.Address) (zoneFee, error) {
	key := normalizeProvince(addr.Province)
	if key == "" {
		return zoneFee{}, domain.ErrInvalidAddress
	}

	if zone, ok := t.byProvince[key]; ok {
		return zone, nil
	}

	if t.defaultFee != nil {
		return zoneFee{name: "default", fee: *t.defaultFee}, nil
	}

	return zoneFee{}, fmt.Errorf("province[%s]: %w", addr.Province, domain.ErrUnresolvableAddress)
}

var provincePrefixes = []string{"thanh pho ", "tp. ", "tp ", "tinh "}

// normalizeProvince folds case, diacritics and spacing so "TP. Hồ Chí Minh" matches "ho chi minh".
func normalizeProvince(s string) string {
	// the chain keeps state, so it is built per call
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	folded = strings.NewReplacer("đ", "d", "Đ", "d").Replace(folded)
	folded = strings.Join(strings.Fields(strings.ToLower(folded)), " ")

	for _, prefix := range provincePrefixes {
		if strings.HasPrefix(folded, prefix) {
			folded = strings.TrimSpace(strings.TrimPrefix(folded, prefix))
			break
		}
	}

	return folded
}
