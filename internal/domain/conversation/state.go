package conversation

// State is the pending multi-turn exchange of a user
type State string

const (
	StateIdle                          State = "IDLE"
	StateAwaitingSearchQuery           State = "AWAITING_SEARCH_QUERY"
	StateAwaitingSearchQueryInCategory State = "AWAITING_SEARCH_QUERY_IN_CATEGORY"
	StateAwaitingRecommendationRequest State = "AWAITING_RECOMMENDATION_REQUEST"
)

// IsValid checks if the state is known
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateAwaitingSearchQuery, StateAwaitingSearchQueryInCategory, StateAwaitingRecommendationRequest:
		return true
	}
	return false
}

// IsWaiting returns true if the next text message is consumed as a payload
func (s State) IsWaiting() bool {
	return s != StateIdle && s != ""
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}
