// internal/domain/catalog/feed.go
package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"dairy-subscription-service/internal/domain/pricing"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var feedJSON = jsoniter.Config{UseNumber: true}.Froze()

// Field aliases accepted from the upstream catalog, camelCase first.
var (
	variantIDKeys = []string{"variantId", "variant_id", "id"}
	mrpKeys       = []string{"mrp", "MRP"}
	buyOnceKeys   = []string{"buyOncePrice", "buy_once_price"}
	price3Keys    = []string{"price3Day", "price_3_day"}
	price15Keys   = []string{"price15Day", "price_15_day"}
	price30Keys   = []string{"price1Month", "price_1_month"}
)

// FeedResult is a decoded price feed. Rejected counts items without a usable
// variant id.
type FeedResult struct {
	Tables   []pricing.PriceTable
	Rejected int
}

// DecodePriceFeed normalizes an upstream price feed, either a bare array or
// a {"data": [...]} wrapper, into price tables. Tier values that are not
// numeric are dropped so they resolve as absent.
func DecodePriceFeed(body []byte) (*FeedResult, error) {
	items, err := feedItems(body)
	if err != nil {
		return nil, err
	}

	res := &FeedResult{Tables: make([]pricing.PriceTable, 0, len(items))}
	for _, item := range items {
		id, ok := variantID(item)
		if !ok {
			res.Rejected++
			continue
		}
		res.Tables = append(res.Tables, pricing.PriceTable{
			VariantID:    id,
			MRP:          decimalField(item, mrpKeys),
			BuyOncePrice: decimalField(item, buyOnceKeys),
			Price3Day:    decimalField(item, price3Keys),
			Price15Day:   decimalField(item, price15Keys),
			Price1Month:  decimalField(item, price30Keys),
		})
	}
	return res, nil
}

func feedItems(body []byte) ([]map[string]any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, xerrors.New("empty price feed").Mark(xerrors.ErrValidation)
	}

	var items []map[string]any
	switch trimmed[0] {
	case '[':
		if err := feedJSON.Unmarshal(trimmed, &items); err != nil {
			return nil, invalidFeed(err)
		}
	case '{':
		var wrapped struct {
			Data []map[string]any `json:"data"`
		}
		if err := feedJSON.Unmarshal(trimmed, &wrapped); err != nil {
			return nil, invalidFeed(err)
		}
		items = wrapped.Data
	default:
		return nil, xerrors.New("price feed is neither an array nor an object").
			WithHint(`send a JSON array or {"data": [...]}`).
			Mark(xerrors.ErrValidation)
	}
	return items, nil
}

func invalidFeed(err error) error {
	return xerrors.WithError(err).
		WithMessage("decode price feed").
		WithHint(`send a JSON array or {"data": [...]}`).
		Mark(xerrors.ErrValidation)
}

func lookup(item map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := item[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func variantID(item map[string]any) (int64, bool) {
	v, ok := lookup(item, variantIDKeys)
	if !ok {
		return 0, false
	}
	var id int64
	var err error
	switch t := v.(type) {
	case json.Number:
		id, err = t.Int64()
	case string:
		id, err = strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, false
	}
	return id, err == nil && id > 0
}

func decimalField(item map[string]any, keys []string) *decimal.Decimal {
	v, ok := lookup(item, keys)
	if !ok {
		return nil
	}
	var raw string
	switch t := v.(type) {
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.TrimSpace(t)
	default:
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	return &d
}
