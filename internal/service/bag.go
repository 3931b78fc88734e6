package service

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/academypay/academypay/internal/api/dto"
	"github.com/academypay/academypay/internal/domain/bag"
	"github.com/academypay/academypay/internal/domain/plan"
	"github.com/academypay/academypay/internal/domain/pricing"
	ierr "github.com/academypay/academypay/internal/errors"
	"github.com/academypay/academypay/internal/types"
)

// BagService converges a requested cart to a consistent, priceable bag.
// Every step can abort the whole operation; nothing is partially applied.
type BagService interface {
	AddToBag(ctx context.Context, req *dto.BagRequest) (*bag.Bag, error)
}

type bagService struct {
	ServiceParams
}

func NewBagService(params ServiceParams) BagService {
	return &bagService{ServiceParams: params}
}

func (s *bagService) AddToBag(ctx context.Context, req *dto.BagRequest) (*bag.Bag, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// resource selection must be well-typed before anything mutates
	selection, err := req.ResourceSelection()
	if err != nil {
		return nil, err
	}
	if !selection.IsZero() {
		if err := selection.Validate(); err != nil {
			return nil, err
		}
		exists, err := s.ResourceRepo.Exists(ctx, selection)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ierr.NewError("selected resource does not exist").
				WithHint("The selected resource could not be found").
				WithReportableDetails(map[string]any{
					"kind": selection.Kind,
					"ref":  selection.ID,
				}).
				Mark(ierr.ErrNotFound)
		}
	}

	b, err := s.loadOrCreateBag(ctx, req)
	if err != nil {
		return nil, err
	}
	if b.WasDelivered {
		return nil, ierr.NewError("bag was already delivered").
			WithHint("A delivered bag cannot be modified").
			WithReportableDetails(map[string]any{"bag_id": b.ID}).
			Mark(ierr.ErrInvalidOperation)
	}

	// an exploratory request starts over from a clean cart
	if req.Checking {
		b.Reset()
	}
	if !selection.IsZero() {
		b.Resource = selection
	}
	if req.CountryCode != "" {
		b.CountryCode = req.CountryCode
	}
	if req.ChosenPeriod != "" {
		b.ChosenPeriod = req.ChosenPeriod
	}
	b.HowManyInstallments = req.HowManyInstallments

	plans, err := s.resolvePlans(ctx, req.Plans)
	if err != nil {
		return nil, err
	}
	items, err := s.resolveServiceItems(ctx, req.ServiceItems)
	if err != nil {
		return nil, err
	}

	for _, p := range plans {
		if !lo.Contains(b.PlanIDs, p.ID) {
			b.PlanIDs = append(b.PlanIDs, p.ID)
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	attachedPlan, err := s.attachedPlan(ctx, b, plans)
	if err != nil {
		return nil, err
	}

	if req.Seats > 0 {
		if attachedPlan == nil {
			return nil, ierr.NewError("seats requested without a plan").
				WithHint("Attach a plan before adding seats").
				Mark(ierr.ErrValidation)
		}
		if !attachedPlan.SupportsSeats {
			return nil, ierr.NewError("plan does not support team seats").
				WithHint("The selected plan cannot be purchased with seats").
				WithReportableDetails(map[string]any{"plan": attachedPlan.Slug}).
				Mark(ierr.ErrValidation)
		}
		b.Seats = req.Seats
	}

	for _, reqItem := range req.ServiceItems {
		item := items[reqItem.Service]
		if attachedPlan == nil {
			return nil, ierr.NewError("add-on requested without a plan").
				WithHint("Attach a plan before adding service items").
				WithReportableDetails(map[string]any{"service": reqItem.Service}).
				Mark(ierr.ErrValidation)
		}
		addOn, ok := attachedPlan.AddOnFor(item.ID)
		if !ok {
			b.RemoveLineItem(item.ID)
			return nil, ierr.NewError("service is not sold with this plan").
				WithHint("The service item is not in the plan's add-on catalog").
				WithReportableDetails(map[string]any{
					"plan":    attachedPlan.Slug,
					"service": reqItem.Service,
				}).
				Mark(ierr.ErrValidation)
		}
		if addOn.MaxQuantity > 0 && reqItem.HowMany > addOn.MaxQuantity {
			b.RemoveLineItem(item.ID)
			return nil, ierr.NewError("add-on quantity above the plan's limit").
				WithHint("Requested quantity exceeds what the plan allows per purchase").
				WithReportableDetails(map[string]any{
					"service":      reqItem.Service,
					"how_many":     reqItem.HowMany,
					"max_quantity": addOn.MaxQuantity,
				}).
				Mark(ierr.ErrValidation)
		}
		if !b.HasLineItem(item.ID) {
			b.LineItems = append(b.LineItems, bag.LineItem{
				ServiceItemID: item.ID,
				HowMany:       reqItem.HowMany,
			})
		}
	}

	// re-check after attachments; a concurrent request may have raced
	if err := b.Validate(); err != nil {
		return nil, err
	}

	if attachedPlan != nil {
		chargeNow, err := s.mustChargeNow(ctx, attachedPlan, b.UserID)
		if err != nil {
			return nil, err
		}
		b.ChargeNow = chargeNow
		if b.CurrencyCode == "" {
			b.CurrencyCode = attachedPlan.CurrencyCode
		}
		if err := s.priceBag(ctx, b, attachedPlan); err != nil {
			return nil, err
		}
	}

	b.UpdatedAt = time.Now().UTC()
	if err := s.BagRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bagService) loadOrCreateBag(ctx context.Context, req *dto.BagRequest) (*bag.Bag, error) {
	if req.BagID != "" {
		b, err := s.BagRepo.Get(ctx, req.BagID)
		if err != nil {
			return nil, err
		}
		if b.UserID != req.UserID {
			return nil, ierr.NewError("bag belongs to another user").
				WithHint("Bag not found").
				Mark(ierr.ErrNotFound)
		}
		return b, nil
	}

	if existing, err := s.BagRepo.GetChecking(ctx, req.UserID); err == nil && existing != nil {
		return existing, nil
	}

	b := &bag.Bag{
		ID:           types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BAG),
		UserID:       req.UserID,
		Status:       types.BagStatusChecking,
		ChosenPeriod: types.BillingPeriodMonth,
		CountryCode:  req.CountryCode,
		BaseModel:    types.GetDefaultBaseModel(ctx),
	}
	if err := s.BagRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// resolvePlans resolves every plan reference, reporting the whole set of
// unresolved slugs together rather than one at a time.
func (s *bagService) resolvePlans(ctx context.Context, refs []string) ([]*plan.Plan, error) {
	plans := make([]*plan.Plan, 0, len(refs))
	var missing []string
	for _, ref := range refs {
		p, err := s.PlanRepo.GetByIDOrSlug(ctx, ref)
		if err != nil {
			missing = append(missing, ref)
			continue
		}
		plans = append(plans, p)
	}
	if len(missing) > 0 {
		return nil, ierr.NewError("some plans could not be resolved").
			WithHint("One or more requested plans do not exist").
			WithReportableDetails(map[string]any{"not_found": missing}).
			Mark(ierr.ErrNotFound)
	}
	return plans, nil
}

func (s *bagService) resolveServiceItems(ctx context.Context, reqs []dto.BagItemRequest) (map[string]*serviceItemRef, error) {
	items := make(map[string]*serviceItemRef, len(reqs))
	var missing []string
	for _, r := range reqs {
		item, err := s.ServiceItemRepo.Get(ctx, r.Service)
		if err != nil {
			missing = append(missing, r.Service)
			continue
		}
		items[r.Service] = &serviceItemRef{ID: item.ID}
	}
	if len(missing) > 0 {
		return nil, ierr.NewError("some service items could not be resolved").
			WithHint("One or more requested service items do not exist").
			WithReportableDetails(map[string]any{"not_found": missing}).
			Mark(ierr.ErrNotFound)
	}
	return items, nil
}

type serviceItemRef struct {
	ID string
}

// attachedPlan loads the single plan attached to the bag, preferring the
// rows already resolved this request.
func (s *bagService) attachedPlan(ctx context.Context, b *bag.Bag, resolved []*plan.Plan) (*plan.Plan, error) {
	if len(b.PlanIDs) == 0 {
		return nil, nil
	}
	planID := b.PlanIDs[0]
	for _, p := range resolved {
		if p.ID == planID {
			return p, nil
		}
	}
	return s.PlanRepo.Get(ctx, planID)
}

// mustChargeNow is the charge-now decision state machine for one plan and
// one buyer.
func (s *bagService) mustChargeNow(ctx context.Context, p *plan.Plan, userID string) (bool, error) {
	now := time.Now().UTC()

	hasPaidPath := p.HasAnyPrice() || p.HasFinancing()

	if !hasPaidPath {
		// pure free plan: only one trial per user
		used, err := s.SubscriptionRepo.ExistsForUserPlan(ctx, userID, p.ID)
		if err != nil {
			return false, err
		}
		if used {
			return false, ierr.NewError("free trial of this plan was already used").
				WithHint("You already used the free trial of this plan").
				WithReportableDetails(map[string]any{"plan": p.Slug}).
				Mark(ierr.ErrFreeTrialUsed)
		}
		return false, nil
	}

	live, err := s.SubscriptionRepo.GetActiveForUserPlan(ctx, userID, p.ID, now)
	if err != nil && !ierr.IsNotFound(err) {
		return false, err
	}
	if live != nil {
		return false, ierr.NewError("user already has a subscription to this plan").
			WithHint("You are already subscribed to this plan").
			WithReportableDetails(map[string]any{
				"plan":            p.Slug,
				"subscription_id": live.ID,
			}).
			Mark(ierr.ErrAlreadySubscribed)
	}

	if !p.Renewable {
		financed, err := s.PlanFinancingRepo.ExistsForUserPlan(ctx, userID, p.ID)
		if err != nil {
			return false, err
		}
		if financed {
			return false, ierr.NewError("user already has a plan financing for this plan").
				WithHint("You already financed this plan").
				WithReportableDetails(map[string]any{"plan": p.Slug}).
				Mark(ierr.ErrAlreadyFinanced)
		}
	}

	if !p.HasTrial() {
		return true, nil
	}

	// a trial plan charges up front only buyers who purchased it before
	purchasedBefore, err := s.SubscriptionRepo.ExistsForUserPlan(ctx, userID, p.ID)
	if err != nil {
		return false, err
	}
	return purchasedBefore, nil
}

// priceBag computes the country-adjusted net price for every period the
// plan offers. Coupons apply later, at the charge boundary.
func (s *bagService) priceBag(ctx context.Context, b *bag.Bag, p *plan.Plan) error {
	ratios, err := s.RatioSource.Ratios(ctx)
	if err != nil {
		return err
	}

	seatFactor := decimal.NewFromInt(1)
	if b.Seats > 1 {
		seatFactor = decimal.NewFromInt(int64(b.Seats))
	}

	for _, period := range []types.BillingPeriod{
		types.BillingPeriodMonth,
		types.BillingPeriodQuarter,
		types.BillingPeriodHalf,
		types.BillingPeriodYear,
	} {
		base := p.PriceForPeriod(period)
		if !base.IsPositive() {
			b.SetAmountForPeriod(period, decimal.Zero)
			continue
		}
		result := pricing.Price(base, b.CountryCode, p.PricingOverrides, ratios)
		if result.CurrencyCode != nil {
			b.CurrencyCode = *result.CurrencyCode
		}
		b.SetAmountForPeriod(period, result.Price.Mul(seatFactor))
	}
	return nil
}
