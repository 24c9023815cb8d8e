package dto

import (
	"time"

	"github.com/dblab-dev/dblab/internal/domain/entities"
	"github.com/dblab-dev/dblab/internal/domain/services"
	"github.com/dblab-dev/dblab/internal/domain/values"
)

// ResolveResponse contains the outcome of a configuration resolution.
type ResolveResponse struct {
	Config   *entities.ResolvedConfig
	Metadata *entities.EngineMetadata

	// Record is nil when the instance has no document yet
	Record *entities.InstanceRecord

	// Results holds one entry per rule when the request was ReportOnly
	Results []services.RuleResult

	Response ResponseMetadata
}

// Passed reports whether every evaluated rule passed.
func (r *ResolveResponse) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// InstanceResponse contains the result of an instance lifecycle action.
type InstanceResponse struct {
	Ref    entities.InstanceRef
	Status values.InstanceStatus

	// RecordedStatus is the status held in the instance document
	RecordedStatus values.InstanceStatus

	// Created is true when this action wrote the instance document
	Created  bool
	Response ResponseMetadata
}

// InstanceSummary is one row of a listing.
type InstanceSummary struct {
	CreatedAt time.Time
	Ref       entities.InstanceRef
	ID        string
	Version   string
	Status    values.InstanceStatus
	Error     string
}

// RunSQLResponse contains the result of run-sql.
type RunSQLResponse struct {
	DatabasePath string
	Files        []string
	Executed     int
}

// ResponseMetadata contains metadata about the response.
type ResponseMetadata struct {
	// RequestID from the original request
	RequestID string

	// ProcessedAt is when the request was processed
	ProcessedAt time.Time

	// Duration is how long the request took
	Duration time.Duration
}
