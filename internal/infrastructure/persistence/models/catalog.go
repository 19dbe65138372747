package models

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CategoryModel is the persistence model for a catalog category.
// Subcategory ids are not stored; they are derived from parent_id.
type CategoryModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"type:varchar(100);not null"`
	ParentID  *int64 `gorm:"index"`
	SortOrder int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the model to a domain category with the given children
func (m *CategoryModel) ToDomain(subcategoryIDs []int64) catalog.Category {
	return catalog.Category{
		ID:             m.ID,
		Name:           m.Name,
		ParentID:       m.ParentID,
		SubcategoryIDs: subcategoryIDs,
		SortOrder:      m.SortOrder,
	}
}

// FromDomain populates the model from a domain category
func (m *CategoryModel) FromDomain(c *catalog.Category) {
	m.ID = c.ID
	m.Name = c.Name
	m.ParentID = c.ParentID
	m.SortOrder = c.SortOrder
}

// ProductModel is the persistence model for a catalog product
type ProductModel struct {
	ID          int64                 `gorm:"primaryKey;autoIncrement:false"`
	Name        string                `gorm:"type:varchar(200);not null"`
	Description string                `gorm:"type:text"`
	CategoryID  int64                 `gorm:"not null;index"`
	Price       decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Stock       int                   `gorm:"not null;default:0"`
	Discount    decimal.Decimal       `gorm:"type:decimal(5,4);not null;default:0"`
	Images      []string              `gorm:"type:text;serializer:json"`
	IsDigital   bool                  `gorm:"not null;default:false"`
	SortOrder   int                   `gorm:"not null;default:0;index"`
	Variants    []ProductVariantModel `gorm:"foreignKey:ProductID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		CategoryID:  m.CategoryID,
		Price:       m.Price,
		Stock:       m.Stock,
		Discount:    m.Discount,
		Images:      m.Images,
		IsDigital:   m.IsDigital,
		SortOrder:   m.SortOrder,
	}
	for _, v := range m.Variants {
		p.Variants = append(p.Variants, v.ToDomain())
	}
	return p
}

// FromDomain populates the model from a domain product
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.Name = p.Name
	m.Description = p.Description
	m.CategoryID = p.CategoryID
	m.Price = p.Price
	m.Stock = p.Stock
	m.Discount = p.Discount
	m.Images = p.Images
	m.IsDigital = p.IsDigital
	m.SortOrder = p.SortOrder
	m.Variants = make([]ProductVariantModel, len(p.Variants))
	for i := range p.Variants {
		m.Variants[i].FromDomain(p.ID, p.Variants[i])
	}
}

// ProductVariantModel is keyed by (product_id, id)
type ProductVariantModel struct {
	ProductID int64  `gorm:"primaryKey;autoIncrement:false"`
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Title     string `gorm:"type:varchar(100);not null"`
	Stock     int    `gorm:"not null;default:0"`
	Image     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ProductVariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the model to a domain variant
func (m ProductVariantModel) ToDomain() catalog.ProductVariant {
	return catalog.ProductVariant{
		ProductID: m.ProductID,
		ID:        m.ID,
		Title:     m.Title,
		Stock:     m.Stock,
		Image:     m.Image,
	}
}

// FromDomain populates the model from a domain variant
func (m *ProductVariantModel) FromDomain(productID int64, v catalog.ProductVariant) {
	m.ProductID = productID
	m.ID = v.ID
	m.Title = v.Title
	m.Stock = v.Stock
	m.Image = v.Image
}
