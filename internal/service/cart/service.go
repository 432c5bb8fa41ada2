package cart

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"storefront-cart/internal/domain"
	"storefront-cart/internal/pricing"
	cartrepo "storefront-cart/internal/repository/cart"
)

// ErrInvalidInput marks a request the caller can correct.
var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	repo       cartrepo.Repository
	products   productRepo
	promotions promotionRepo
	logger     *zap.Logger
	now        func() time.Time
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

type promotionRepo interface {
	GetByCode(ctx context.Context, code string) (*domain.PromotionRule, error)
}

func New(repo cartrepo.Repository, products productRepo, promotions promotionRepo, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		products:   products,
		promotions: promotions,
		logger:     logger.Named("cart_svc"),
		now:        time.Now,
	}
}

// View is a stored cart with totals computed at read time.
type View struct {
	Cart   domain.MemberCart
	Totals pricing.Totals
}

func (s *Service) Get(ctx context.Context, customerID string) (*View, error) {
	cart, err := s.repo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return &View{Cart: *cart, Totals: pricing.Calculate(cart.Items(), cart.Promotion)}, nil
}

// AddItem adds one unit of productID at its current price.
func (s *Service) AddItem(ctx context.Context, customerID, productID string) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return errors.Join(ErrInvalidInput, errors.New("productId required"))
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.repo.AddLine(ctx, customerID, *product); err != nil {
		return err
	}
	s.logger.Debug("line added", zap.String("customer_id", customerID), zap.String("product_id", productID))
	return nil
}

func (s *Service) RemoveItem(ctx context.Context, customerID, productID string) error {
	return s.repo.RemoveLine(ctx, customerID, strings.TrimSpace(productID))
}

func (s *Service) Clear(ctx context.Context, customerID string) error {
	return s.repo.Clear(ctx, customerID)
}

// ApplyPromotion validates code against the customer's cart and attaches
// it when valid, replacing any current promotion. An inapplicable code is
// reported in the result, not as an error.
func (s *Service) ApplyPromotion(ctx context.Context, customerID, code string) (domain.PromotionResult, error) {
	view, err := s.Get(ctx, customerID)
	if err != nil {
		return domain.PromotionResult{}, err
	}
	res, err := s.check(ctx, code, view.Totals.SubtotalCents)
	if err != nil || !res.Valid {
		return res, err
	}
	if err := s.repo.SetPromotion(ctx, customerID, res.Promotion.Code); err != nil {
		return domain.PromotionResult{}, err
	}
	s.logger.Info("promotion applied", zap.String("customer_id", customerID), zap.String("code", res.Promotion.Code))
	return res, nil
}

func (s *Service) RemovePromotion(ctx context.Context, customerID string) error {
	return s.repo.SetPromotion(ctx, customerID, "")
}

// ValidatePromotion checks code without a cart. The minimum subtotal is
// not enforced and the discount is reported as zero.
func (s *Service) ValidatePromotion(ctx context.Context, code string) (domain.PromotionResult, error) {
	return s.check(ctx, code, -1)
}

func (s *Service) check(ctx context.Context, code string, subtotalCents int64) (domain.PromotionResult, error) {
	code = domain.CanonicalCode(code)
	if code == "" {
		return domain.PromotionResult{Valid: false, Message: "Promotion code required"}, nil
	}
	rule, err := s.promotions.GetByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.PromotionResult{Valid: false, Message: "Promotion code not found"}, nil
	}
	if err != nil {
		return domain.PromotionResult{}, err
	}
	if ok, msg := rule.Check(subtotalCents, s.now()); !ok {
		return domain.PromotionResult{Valid: false, Message: msg}, nil
	}
	promo := rule.Promotion
	res := domain.PromotionResult{Valid: true, Promotion: &promo, Message: promo.Description}
	if subtotalCents > 0 {
		res.DiscountCents = pricing.Discount(subtotalCents, &promo)
	}
	return res, nil
}
