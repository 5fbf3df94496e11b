// internal/service/catalog/catalog_service.go
package catalog

import (
	"context"

	"dairy-subscription-service/internal/config"
	"dairy-subscription-service/internal/domain/catalog"
	"dairy-subscription-service/internal/domain/pricing"
	"dairy-subscription-service/internal/domain/schedule"
	xerrors "dairy-subscription-service/internal/pkg/errors"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

type PriceTableReader interface {
	FindPriceTables(ctx context.Context, variantIDs []int64) (map[int64]pricing.PriceTable, error)
}

type PriceTableWriter interface {
	UpsertPriceTables(ctx context.Context, tables []pricing.PriceTable) ([]int64, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, variantIDs ...int64)
}

type CatalogService struct {
	reader   PriceTableReader
	writer   PriceTableWriter
	cache    CacheInvalidator
	business config.BusinessConfig
	logger   *zap.Logger
}

func NewCatalogService(reader PriceTableReader, writer PriceTableWriter, cache CacheInvalidator, business config.BusinessConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		reader:   reader,
		writer:   writer,
		cache:    cache,
		business: business,
		logger:   logger,
	}
}

// VariantPrices resolves the unit price of a variant for every configured
// period, with the patterns each period offers.
func (s *CatalogService) VariantPrices(ctx context.Context, variantID int64) (*catalog.VariantPrices, error) {
	tables, err := s.reader.FindPriceTables(ctx, []int64{variantID})
	if err != nil {
		return nil, xerrors.WithError(err).WithMessage("load price table").Mark(xerrors.ErrUnavailable)
	}
	pt, ok := tables[variantID]
	if !ok {
		return nil, xerrors.Newf("variant %d not found", variantID).
			WithHintf("variant %d is not available", variantID).
			Mark(xerrors.ErrNotFound)
	}

	out := &catalog.VariantPrices{
		VariantID:    variantID,
		BuyOncePrice: pricing.ResolveBuyOncePrice(pt),
		Currency:     s.business.Currency,
		Periods: lo.Map(s.business.Periods, func(days int, _ int) catalog.PeriodPrice {
			_, tier := pt.Tier(days)
			return catalog.PeriodPrice{
				PeriodDays:      days,
				UnitPrice:       pricing.ResolveUnitPrice(pt, days),
				IsTierPrice:     tier,
				OfferedPatterns: schedule.OfferedKinds(days),
			}
		}),
	}
	if mrp, ok := pt.ListPrice(); ok {
		out.MRP = &mrp
	}
	return out, nil
}

// ImportPriceFeed upserts the price tables of an upstream feed. Items for
// unknown variants are skipped and reported.
func (s *CatalogService) ImportPriceFeed(ctx context.Context, body []byte) (*catalog.PriceImportResult, error) {
	feed, err := catalog.DecodePriceFeed(body)
	if err != nil {
		return nil, err
	}

	result := &catalog.PriceImportResult{
		Received: len(feed.Tables) + feed.Rejected,
		Rejected: feed.Rejected,
	}
	if len(feed.Tables) == 0 {
		return result, nil
	}

	skipped, err := s.writer.UpsertPriceTables(ctx, feed.Tables)
	if err != nil {
		return nil, xerrors.WithError(err).WithMessage("store price tables").Mark(xerrors.ErrUnavailable)
	}
	result.Skipped = skipped
	result.Upserted = len(feed.Tables) - len(skipped)

	ids := lo.Map(feed.Tables, func(pt pricing.PriceTable, _ int) int64 { return pt.VariantID })
	s.cache.Invalidate(ctx, ids...)

	s.logger.Info("price feed imported",
		zap.Int("received", result.Received),
		zap.Int("upserted", result.Upserted),
		zap.Int("skipped", len(skipped)),
		zap.Int("rejected", result.Rejected),
	)
	return result, nil
}
