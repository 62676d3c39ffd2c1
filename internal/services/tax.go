package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yungbote/boostcart-backend/internal/data/repos"
	types "github.com/yungbote/boostcart-backend/internal/domain"
	domainagg "github.com/yungbote/boostcart-backend/internal/domain/aggregates"
	"github.com/yungbote/boostcart-backend/internal/domain/catalog"
	"github.com/yungbote/boostcart-backend/internal/platform/dbctx"
	"github.com/yungbote/boostcart-backend/internal/platform/logger"
)

type TaxService interface {
	// Current returns the global policy, creating it with the default rate on first access.
	Current(ctx context.Context) (*types.TaxPolicy, error)
	Set(ctx context.Context, rate decimal.Decimal) (*types.TaxPolicy, error)
}

type taxService struct {
	log         *logger.Logger
	policies    repos.TaxPolicyRepo
	defaultRate decimal.Decimal
}

func NewTaxService(log *logger.Logger, policies repos.TaxPolicyRepo, defaultRate decimal.Decimal) (TaxService, error) {
	if !catalog.ValidTaxRate(defaultRate) {
		return nil, fmt.Errorf("default tax rate %s outside [0, 1]", defaultRate)
	}
	return &taxService{
		log:         log.With("service", "TaxService"),
		policies:    policies,
		defaultRate: defaultRate,
	}, nil
}

func (s *taxService) Current(ctx context.Context) (*types.TaxPolicy, error) {
	return s.policies.GetOrCreate(dbctx.Context{Ctx: ctx}, s.defaultRate)
}

func (s *taxService) Set(ctx context.Context, rate decimal.Decimal) (*types.TaxPolicy, error) {
	const op = "Commerce.Tax.Set"
	if !catalog.ValidTaxRate(rate) || !rate.Equal(rate.Round(4)) {
		return nil, domainagg.Reject(domainagg.CodeValidation, domainagg.ReasonInvalidTaxRate, op, "tax_rate",
			fmt.Sprintf("tax rate %s must be within [0, 1] with at most 4 decimals", rate))
	}
	p, err := s.policies.Set(dbctx.Context{Ctx: ctx}, rate)
	if err != nil {
		return nil, err
	}
	s.log.Info("tax rate updated", "tax_rate", p.TaxRate.String())
	return p, nil
}
