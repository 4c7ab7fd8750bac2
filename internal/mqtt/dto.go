package mqtt

import (
	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/history"
)

// PredictionMessage is the JSON payload published for every served prediction.
// Field names are part of the published contract.
type PredictionMessage struct {
	ID         int64                `json:"id"`
	Label      string               `json:"label"`
	Confidence float64              `json:"confidence"`
	RiskLevel  classifier.RiskLevel `json:"risk_level"`
	Timestamp  string               `json:"timestamp"`
	Details    *string              `json:"details"`
}

// NewPredictionMessage combines the stored entry with the prediction it summarizes.
func NewPredictionMessage(e history.Entry, p classifier.Prediction) PredictionMessage {
	return PredictionMessage{
		ID:         e.ID,
		Label:      p.Label,
		Confidence: p.Confidence,
		RiskLevel:  p.RiskLevel,
		Timestamp:  p.Timestamp,
		Details:    p.Details,
	}
}
