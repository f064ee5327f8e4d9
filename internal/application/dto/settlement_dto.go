package dto

import "time"

// SelectSettlementRequest selección de productor para liquidación.
type SelectSettlementRequest struct {
	ProducerID string `json:"producer_id"`
}

// SettlementSnapshotResponse foto congelada de la liquidación: ids y total
// exactos fijados en el momento de la selección.
type SettlementSnapshotResponse struct {
	ProducerID string    `json:"producer_id"`
	EventIDs   []string  `json:"event_ids"`
	Count      int       `json:"count"`
	Total      string    `json:"total"`
	Display    string    `json:"display"`
	FrozenAt   time.Time `json:"frozen_at"`
}

// SettlementStatusResponse fase actual de la liquidación de un productor.
type SettlementStatusResponse struct {
	ProducerID string                      `json:"producer_id"`
	Phase      string                      `json:"phase"`
	Snapshot   *SettlementSnapshotResponse `json:"snapshot,omitempty"`
}
