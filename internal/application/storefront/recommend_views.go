package storefront

import (
	"fmt"
	"strings"

	"github.com/storefront/backend/internal/domain/conversation"
	"go.uber.org/zap"
)

func (d *Dispatcher) startRecommendation(req *request) error {
	if !d.recommendationsEnabled() {
		return req.send(reply(d.texts.RecommendationsDisabled), d.mainMenu())
	}
	return req.send(reply(d.texts.RecommendationPrompt))
}

func (d *Dispatcher) recommend(req *request, text string) error {
	if !d.recommendationsEnabled() {
		return req.send(reply(d.texts.RecommendationsDisabled), d.mainMenu())
	}

	recs, err := d.recommendations.Recommend(req.ctx, req.userID(), strings.TrimSpace(text))
	if err != nil {
		d.logger.Warn("no recommendations", zap.Int64("user_id", req.userID()), zap.Error(err))
	}
	if err != nil || len(recs) == 0 {
		return req.send(reply(d.texts.NoRecommendations, backToMainMenu(d.texts)))
	}

	var b strings.Builder
	b.WriteString(d.texts.RecommendationsHeader)
	rows := make([][]Button, 0, len(recs)+1)
	for _, r := range recs {
		fmt.Fprintf(&b, "\n- %d: %s", r.ID, r.Name)
		rows = append(rows, row(Button{
			Label: r.Name,
			Data:  conversation.BuildCallback(conversation.CallbackProduct, r.ID) + ":" + conversation.FlagNewMessage,
		}))
	}
	rows = append(rows, backToMainMenu(d.texts))
	return req.send(reply(b.String(), rows...))
}
