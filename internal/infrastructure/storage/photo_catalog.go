package storage

import (
	"context"
	"net/url"

	"github.com/storefront/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// PhotoSigner turns an object key into a fetchable URL
type PhotoSigner interface {
	PresignPhoto(ctx context.Context, key string) (string, error)
}

// PhotoCatalog decorates a catalog.Provider so that product images stored as
// bare object keys come back as presigned URLs. Absolute URLs pass through.
type PhotoCatalog struct {
	catalog.Provider
	signer PhotoSigner
	logger *zap.Logger
}

// NewPhotoCatalog wraps provider
func NewPhotoCatalog(provider catalog.Provider, signer PhotoSigner, logger *zap.Logger) *PhotoCatalog {
	return &PhotoCatalog{Provider: provider, signer: signer, logger: logger}
}

// GetProduct returns the product with signed image URLs
func (c *PhotoCatalog) GetProduct(ctx context.Context, id int64) (*catalog.Product, error) {
	p, err := c.Provider.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p = p.Clone()
	c.sign(ctx, p)
	return p, nil
}

// BrowseProducts returns the page with signed image URLs
func (c *PhotoCatalog) BrowseProducts(ctx context.Context, q catalog.BrowseQuery) (catalog.SearchPage, error) {
	page, err := c.Provider.BrowseProducts(ctx, q)
	if err != nil {
		return page, err
	}
	products := make([]catalog.Product, len(page.Products))
	for i := range page.Products {
		p := page.Products[i].Clone()
		c.sign(ctx, p)
		products[i] = *p
	}
	page.Products = products
	return page, nil
}

// sign keeps an image unchanged when signing fails, so a storage outage
// degrades to broken pictures rather than failed requests
func (c *PhotoCatalog) sign(ctx context.Context, p *catalog.Product) {
	for i, ref := range p.Images {
		if !IsObjectKey(ref) {
			continue
		}
		signed, err := c.signer.PresignPhoto(ctx, ref)
		if err != nil {
			c.logger.Warn("Failed to sign product photo",
				zap.Int64("product_id", p.ID),
				zap.String("key", ref),
				zap.Error(err),
			)
			continue
		}
		p.Images[i] = signed
	}
}

// IsObjectKey reports whether ref is a storage key rather than an absolute URL
func IsObjectKey(ref string) bool {
	if ref == "" {
		return false
	}
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == ""
}

var _ catalog.Provider = (*PhotoCatalog)(nil)
