package recommendation

import "context"

// Recommendation is one product suggested by the recommender
type Recommendation struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Recommender ranks catalog products for a free-text request.
// catalogSnapshot lists the candidate products as text.
type Recommender interface {
	Recommend(ctx context.Context, catalogSnapshot, request string) ([]Recommendation, error)
}
