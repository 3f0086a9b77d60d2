package domain

import "time"

// ContractVersion versions the report field names and enum values.
const ContractVersion = "1"

type ValidationRun struct {
	ID              string           `json:"id"`
	ContractVersion string           `json:"contractVersion"`
	DocumentCount   int              `json:"documentCount"`
	Report          ValidationReport `json:"report"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// ValidationRequest is the message body accepted by the asynchronous worker.
type ValidationRequest struct {
	RequestID string               `json:"requestId,omitempty"`
	Documents []DocumentExtraction `json:"documents"`
}
