package recommendation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/recommendation"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultSeparator goes between product entries in the catalog snapshot
const DefaultSeparator = "\n\n--------------------\n\n"

// Config holds recommendation settings
type Config struct {
	Separator   string
	MaxProducts int // zero means the whole catalog
	Timeout     time.Duration
}

// Service asks the recommender for products matching a free-text request.
// Collaborator failures degrade to shared.ErrCollaboratorFailure.
type Service struct {
	provider    catalog.Provider
	recommender recommendation.Recommender
	config      Config
	logger      *zap.Logger
}

// NewService creates a new recommendation Service. A nil recommender
// disables the feature.
func NewService(provider catalog.Provider, recommender recommendation.Recommender, config Config, logger *zap.Logger) *Service {
	if config.Separator == "" {
		config.Separator = DefaultSeparator
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &Service{
		provider:    provider,
		recommender: recommender,
		config:      config,
		logger:      logger,
	}
}

// Enabled reports whether a recommender is configured
func (s *Service) Enabled() bool {
	return s != nil && s.recommender != nil
}

// Snapshot renders the candidate products as text
func (s *Service) Snapshot(ctx context.Context) (string, error) {
	q := catalog.NewBrowseQuery()
	q.PageSize = s.config.MaxProducts
	page, err := s.provider.BrowseProducts(ctx, q)
	if err != nil {
		return "", err
	}

	specs := make([]string, 0, len(page.Products))
	for _, p := range page.Products {
		specs = append(specs, fmt.Sprintf("Product ID: %d\nProduct name: %s\nPrice: %s\nDescription: %s",
			p.ID, p.Name, p.Price.StringFixed(2), p.Description))
	}
	return strings.Join(specs, s.config.Separator), nil
}

// Recommend returns the recommended products that exist in the catalog.
// An empty result with a nil error means nothing matched.
func (s *Service) Recommend(ctx context.Context, userID int64, request string) ([]recommendation.Recommendation, error) {
	if !s.Enabled() {
		return nil, shared.ErrNotConfigured
	}

	snapshot, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	recs, err := s.recommender.Recommend(callCtx, snapshot, request)
	if err != nil {
		s.logger.Error("recommendation request failed",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", shared.ErrCollaboratorFailure, err)
	}

	known := make([]recommendation.Recommendation, 0, len(recs))
	for _, r := range recs {
		product, err := s.provider.GetProduct(ctx, r.ID)
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Debug("recommender returned unknown product", zap.Int64("product_id", r.ID))
			continue
		}
		if err != nil {
			return nil, err
		}
		known = append(known, recommendation.Recommendation{ID: product.ID, Name: product.Name})
	}
	return known, nil
}
