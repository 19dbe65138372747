package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalog implements catalog.Provider and catalog.StockKeeper using GORM
type GormCatalog struct {
	db     *gorm.DB
	locale valueobject.MoneyLocale
}

// NewGormCatalog creates a new GormCatalog
func NewGormCatalog(db *gorm.DB, locale valueobject.MoneyLocale) *GormCatalog {
	return &GormCatalog{db: db, locale: locale}
}

// BrowseProducts filters by category, then by text, then paginates
func (r *GormCatalog) BrowseProducts(ctx context.Context, q catalog.BrowseQuery) (catalog.SearchPage, error) {
	q = q.Normalized()
	query := r.db.WithContext(ctx).Model(&models.ProductModel{})
	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}
	if q.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(q.Query)) + "%"
		query = query.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR (description <> '' AND LOWER(description) LIKE ? ESCAPE '\')`,
			pattern, pattern,
		)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return catalog.SearchPage{}, err
	}

	page := catalog.SearchPage{
		PageNum:  q.PageNum,
		PageSize: q.PageSize,
		Total:    int(total),
		Products: []catalog.Product{},
	}
	if q.PageSize == 0 && q.PageNum > 1 {
		return page, nil
	}
	if q.PageSize > 0 {
		query = query.Offset(q.Offset()).Limit(q.PageSize)
	}

	var rows []models.ProductModel
	if err := query.
		Preload("Variants", orderVariants).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return catalog.SearchPage{}, err
	}
	for i := range rows {
		page.Products = append(page.Products, *rows[i].ToDomain())
	}
	return page, nil
}

// GetProduct finds a product by its ID
func (r *GormCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	var row models.ProductModel
	if err := r.db.WithContext(ctx).
		Preload("Variants", orderVariants).
		First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, productNotFound(id)
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// GetCategory finds a category by its ID, with its direct children
func (r *GormCatalog) GetCategory(ctx context.Context, id int64) (*catalog.Category, error) {
	var row models.CategoryModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, categoryNotFound(id)
		}
		return nil, err
	}
	children, err := r.childIDs(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	c := row.ToDomain(children[id])
	return &c, nil
}

// GetCategories returns top-level categories, or the direct children of parentID
func (r *GormCatalog) GetCategories(ctx context.Context, parentID *int64) ([]catalog.Category, error) {
	query := r.db.WithContext(ctx).Model(&models.CategoryModel{})
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}

	var rows []models.CategoryModel
	if err := query.Order("sort_order ASC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	children, err := r.childIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]catalog.Category, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].ToDomain(children[rows[i].ID]))
	}
	return out, nil
}

// GetMoneyLocale returns the same locale for every user
func (r *GormCatalog) GetMoneyLocale(context.Context, int64) (valueobject.MoneyLocale, error) {
	return r.locale, nil
}

// DecrementStock removes quantity units with a single conditional UPDATE, so
// concurrent decrements of one row never race. A shortfall zeroes the stock.
func (r *GormCatalog) DecrementStock(ctx context.Context, productID int64, variantID *int64, quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Quantity must be positive")
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target *gorm.DB
		if variantID == nil {
			target = tx.Model(&models.ProductModel{}).Where("id = ?", productID)
		} else {
			target = tx.Model(&models.ProductVariantModel{}).Where("product_id = ? AND id = ?", productID, *variantID)
		}
		target = target.Session(&gorm.Session{})

		result := target.
			Where("stock >= ?", quantity).
			Update("stock", gorm.Expr("stock - ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := target.Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if variantID != nil {
				return variantNotFound(productID, *variantID)
			}
			return productNotFound(productID)
		}
		if err := target.Update("stock", 0).Error; err != nil {
			return err
		}
		return shared.ErrInsufficientStock
	})
}

// Import inserts categories and products, skipping rows whose ids exist
func (r *GormCatalog) Import(ctx context.Context, categories []catalog.Category, products []*catalog.Product) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range categories {
			var m models.CategoryModel
			m.FromDomain(&categories[i])
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
				return err
			}
		}
		for _, p := range products {
			if err := p.Validate(); err != nil {
				return err
			}
			var m models.ProductModel
			m.FromDomain(p)
			variants := m.Variants
			m.Variants = nil
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&m).Error; err != nil {
				return err
			}
			if len(variants) > 0 {
				if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&variants).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// CountProducts returns the number of stored products
func (r *GormCatalog) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).Count(&n).Error
	return n, err
}

func (r *GormCatalog) childIDs(ctx context.Context, parentIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(parentIDs))
	if len(parentIDs) == 0 {
		return out, nil
	}
	var rows []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Select("id", "parent_id").
		Where("parent_id IN ?", parentIDs).
		Order("sort_order ASC, id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[*row.ParentID] = append(out[*row.ParentID], row.ID)
	}
	return out, nil
}

func orderVariants(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}

func variantNotFound(productID, variantID int64) error {
	return shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Variant %d not found on product %d", variantID, productID))
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var (
	_ catalog.Provider    = (*GormCatalog)(nil)
	_ catalog.StockKeeper = (*GormCatalog)(nil)
)
