package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"grocery/internal/domain"
	"grocery/internal/repository"
)

const suggestionLimit = 10

// ProductService каталог: витрина через кэш, админка напрямую в хранилище
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	cache      CatalogCache
	logger     *zap.Logger
}

func NewProductService(products repository.ProductRepository, categories repository.CategoryRepository, cache CatalogCache, logger *zap.Logger) *ProductService {
	if cache == nil {
		cache = NoCache{}
	}
	return &ProductService{products: products, categories: categories, cache: cache, logger: logger}
}

// ProductInput поля товара, которые задаёт админ
type ProductInput struct {
	Name        string
	Description string
	Category    string
	Images      []string
	Variations  []domain.Variation
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name is required")
	}
	if len(in.Variations) == 0 {
		return domain.Invalid("at least one variation is required")
	}
	seen := make(map[string]struct{}, len(in.Variations))
	for _, v := range in.Variations {
		if strings.TrimSpace(v.Size) == "" {
			return domain.Invalid("variation size is required")
		}
		if _, dup := seen[v.Size]; dup {
			return domain.Invalid(fmt.Sprintf("duplicate variation size %q", v.Size))
		}
		seen[v.Size] = struct{}{}
		if v.Price.IsNegative() {
			return domain.Invalid("price must not be negative")
		}
		if v.Stock < 0 {
			return domain.Invalid("stock must not be negative")
		}
	}
	return nil
}

// List витрина с фильтрами
func (s *ProductService) List(ctx context.Context, f repository.ProductFilter) ([]domain.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		return nil, domain.Invalid("min_price is greater than max_price")
	}
	return s.cache.Products(ctx, filterKey(f), func(ctx context.Context) ([]domain.Product, error) {
		return s.products.List(ctx, f)
	})
}

// Suggest подсказки по названию, не больше десяти
func (s *ProductService) Suggest(ctx context.Context, q string) ([]domain.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []domain.Product{}, nil
	}
	return s.List(ctx, repository.ProductFilter{NameSubstring: q, Limit: suggestionLimit})
}

func (s *ProductService) Get(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, domain.Invalid("product id is required")
	}
	return s.cache.Product(ctx, id, func(ctx context.Context) (*domain.Product, error) {
		return s.products.GetByID(ctx, id)
	})
}

// AdminList список без кэша, чтобы админ видел актуальные остатки
func (s *ProductService) AdminList(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx, repository.ProductFilter{})
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := domain.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Images:      in.Images,
		Variations:  in.Variations,
	}
	if err := s.products.Create(ctx, &p); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return &p, nil
}

// Update полностью заменяет описание и фасовки товара
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := domain.Product{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Category:    strings.TrimSpace(in.Category),
		Images:      in.Images,
		Variations:  in.Variations,
	}
	if err := s.products.Update(ctx, &p); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// SetStock абсолютный остаток фасовки
func (s *ProductService) SetStock(ctx context.Context, id, size string, stock int64) (*domain.Product, error) {
	if size == "" {
		return nil, domain.Invalid("size is required")
	}
	if err := s.products.SetStock(ctx, id, size, stock); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.products.GetByID(ctx, id)
}

func (s *ProductService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *ProductService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.Invalid("category name is required")
	}
	c := domain.Category{Name: name}
	if err := s.categories.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// invalidate сбрасывает кэш; сбой кэша не отменяет записанное изменение
func (s *ProductService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", zap.Strings("product_ids", ids), zap.Error(err))
	}
}

func filterKey(f repository.ProductFilter) string {
	dec := func(d *decimal.Decimal) string {
		if d == nil {
			return ""
		}
		return d.String()
	}
	return fmt.Sprintf("q=%s|c=%s|min=%s|max=%s|l=%d",
		strings.ToLower(f.NameSubstring), strings.ToLower(f.Category), dec(f.MinPrice), dec(f.MaxPrice), f.Limit)
}
