package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"storefront-cart/internal/domain"
)

// Kind is the detected catalog file type.
type Kind string

const (
	KindProducts   Kind = "products"
	KindPromotions Kind = "promotions"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type PromotionWriter interface {
	Upsert(ctx context.Context, rule domain.PromotionRule) error
}

// CSVImporter loads catalog CSV exports into the cart service's product
// and promotion tables.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	promotions PromotionWriter
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, promotions PromotionWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		promotions: promotions,
		logger:     logger.Named("importer"),
	}
}

// Run reads the header row, picks the file kind and upserts every row.
// It returns the number of rows written.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)

	kind := kindFromHeaders(index)
	switch {
	case kind == KindProducts && i.products == nil:
		return 0, errors.New("product file given but no product writer configured")
	case kind == KindPromotions && i.promotions == nil:
		return 0, errors.New("promotion file given but no promotion writer configured")
	case kind == "":
		return 0, errors.New("unrecognised catalog headers")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++
		if blank(record) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		if kind == KindProducts {
			err = i.saveProduct(ctx, record, index)
		} else {
			err = i.savePromotion(ctx, record, index)
		}
		if err != nil {
			return imported, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	i.logger.Info("catalog imported", zap.String("kind", string(kind)), zap.Int("rows", imported))
	return imported, nil
}

func (i *CSVImporter) saveProduct(ctx context.Context, record []string, index map[string]int) error {
	p := domain.Product{
		ID:         pick(record, index, "id"),
		Title:      pick(record, index, "title"),
		Image:      pick(record, index, "image"),
		Category:   pick(record, index, "category"),
		SellerID:   pick(record, index, "seller.id"),
		SellerName: pick(record, index, "seller.name"),
		Currency:   strings.ToUpper(pick(record, index, "currency")),
	}
	if p.ID == "" || p.Title == "" {
		return fmt.Errorf("product row missing id or title (id %q)", p.ID)
	}
	var err error
	if p.PriceCents, err = cents(pick(record, index, "price.cents")); err != nil || p.PriceCents <= 0 {
		return fmt.Errorf("invalid price for product %q", p.ID)
	}
	if raw := pick(record, index, "originalPrice.cents"); raw != "" {
		if p.OriginalPriceCents, err = cents(raw); err != nil {
			return fmt.Errorf("invalid original price for product %q: %w", p.ID, err)
		}
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", p.ID, err)
	}
	return nil
}

func (i *CSVImporter) savePromotion(ctx context.Context, record []string, index map[string]int) error {
	code := domain.CanonicalCode(pick(record, index, "code"))
	if code == "" {
		return errors.New("promotion row missing code")
	}
	kind := domain.DiscountType(strings.ToLower(pick(record, index, "discountType")))
	if kind != domain.DiscountPercentage && kind != domain.DiscountFixed {
		return fmt.Errorf("promotion %q: unknown discount type %q", code, kind)
	}
	value, err := decimal.NewFromString(pick(record, index, "discountValue"))
	if err != nil || value.IsNegative() {
		return fmt.Errorf("promotion %q: invalid discount value", code)
	}

	rule := domain.PromotionRule{
		Promotion: domain.Promotion{
			Code:          code,
			DiscountType:  kind,
			DiscountValue: value,
			Description:   pick(record, index, "description"),
		},
		Active: true,
	}
	if raw := pick(record, index, "minSubtotal.cents"); raw != "" {
		if rule.MinSubtotalCents, err = cents(raw); err != nil {
			return fmt.Errorf("promotion %q: invalid minimum subtotal: %w", code, err)
		}
	}
	if raw := pick(record, index, "active"); raw != "" {
		if rule.Active, err = strconv.ParseBool(raw); err != nil {
			return fmt.Errorf("promotion %q: invalid active flag: %w", code, err)
		}
	}
	if raw := pick(record, index, "expiresAt"); raw != "" {
		exp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return fmt.Errorf("promotion %q: invalid expiry: %w", code, err)
		}
		rule.ExpiresAt = &exp
	}

	if err := i.promotions.Upsert(ctx, rule); err != nil {
		return fmt.Errorf("upsert promotion %q: %w", code, err)
	}
	return nil
}

// DetectKind peeks at the header row.
func DetectKind(r io.Reader) (Kind, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	headers, err := csv.NewReader(strings.NewReader(line)).Read()
	if err != nil {
		return "", fmt.Errorf("read headers: %w", err)
	}
	kind := kindFromHeaders(headerIndex(headers))
	if kind == "" {
		return "", errors.New("unrecognised catalog headers")
	}
	return kind, nil
}

func kindFromHeaders(index map[string]int) Kind {
	if _, ok := index["code"]; ok {
		if _, ok := index["discountType"]; ok {
			return KindPromotions
		}
	}
	if _, ok := index["id"]; ok {
		if _, ok := index["price.cents"]; ok {
			return KindProducts
		}
	}
	return ""
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func cents(raw string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
