package offer

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/devlinkhq/client-gateway/internal/model"
	"github.com/devlinkhq/client-gateway/pkg/logger"
)

// Defaults used when an offer payload omits optional fields or cannot be
// parsed at all. Extraction never fails: a malformed payload degrades to a
// generic zero-priced order rather than breaking the render or accept path.
const (
	FallbackDescription = "Custom development work"
	FallbackAmount      = "0.00"
	DefaultDeliveryDays = 1
	DefaultRevisions    = 0
)

// Params are the offer parameters needed to book an order.
type Params struct {
	OfferID         string
	Description     string
	Amount          string
	DeliveryDays    int
	Revisions       int
	MeetingIncluded bool
}

// ExtractParams decodes an offer payload tolerantly. Missing optional
// fields take defaults; a payload that does not decode at all yields the
// generic fallback and a logged warning.
func ExtractParams(raw json.RawMessage, log *logger.Logger) Params {
	params := Params{
		Description:  FallbackDescription,
		Amount:       FallbackAmount,
		DeliveryDays: DefaultDeliveryDays,
		Revisions:    DefaultRevisions,
	}

	if len(raw) == 0 {
		log.Warn("offer payload missing, using fallback parameters")
		return params
	}

	var payload model.Offer
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Warn("malformed offer payload, using fallback parameters", zap.Error(err))
		return params
	}

	params.OfferID = payload.ID
	if payload.Description != "" {
		params.Description = payload.Description
	}
	if payload.Amount != "" {
		params.Amount = payload.Amount
	}
	if payload.DeliveryDays > 0 {
		params.DeliveryDays = payload.DeliveryDays
	}
	if payload.Revisions > 0 {
		params.Revisions = payload.Revisions
	}
	params.MeetingIncluded = payload.MeetingIncluded
	return params
}
