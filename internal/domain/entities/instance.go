package entities

import (
	"time"
)

// InstanceFileName is the name of the persisted instance document.
const InstanceFileName = "instance.yml"

// Top-level sections of an instance document.
const (
	StateSection   = "state"
	RuntimeSection = "runtime"
)

// Metadata keys written once at creation that are not configuration.
const (
	KeyID        = "id"
	KeyCreatedAt = "created_at"
)

// Well-known state keys.
const (
	StateStatus   = "status"
	StateLastUp   = "last_up"
	StateLastDown = "last_down"
)

// InstanceRef identifies an instance of an engine.
type InstanceRef struct {
	Engine   string
	Instance string
}

// String returns "engine/instance".
func (r InstanceRef) String() string {
	return r.Engine + "/" + r.Instance
}

// InstanceRecord is the persisted document of one instance.
// Only the state and runtime sections change after creation.
type InstanceRecord struct {
	Document FlatDocument
	Ref      InstanceRef
}

// NewInstanceRecord wraps a parsed instance document.
func NewInstanceRecord(ref InstanceRef, doc FlatDocument) *InstanceRecord {
	if doc == nil {
		doc = NewFlatDocument()
	}
	return &InstanceRecord{Ref: ref, Document: doc}
}

// Fixed returns the attributes locked at creation: everything except the
// state and runtime sections and the bookkeeping keys.
func (r *InstanceRecord) Fixed() FlatDocument {
	fixed := r.Document.Without(StateSection, RuntimeSection)
	delete(fixed, KeyID)
	delete(fixed, KeyCreatedAt)
	return fixed
}

// Runtime returns the persisted mutable overrides with the section prefix removed.
func (r *InstanceRecord) Runtime() FlatDocument {
	return r.Document.Subtree(RuntimeSection)
}

// State returns the state block with the section prefix removed.
func (r *InstanceRecord) State() FlatDocument {
	return r.Document.Subtree(StateSection)
}

// Status returns the recorded status, or "" when none was written yet.
func (r *InstanceRecord) Status() string {
	return r.Document.Get(StateSection + "." + StateStatus)
}

// ID returns the instance identifier assigned at creation.
func (r *InstanceRecord) ID() string {
	return r.Document.Get(KeyID)
}

// CreatedAt parses the creation timestamp.
func (r *InstanceRecord) CreatedAt() (time.Time, error) {
	return time.Parse(time.RFC3339, r.Document.Get(KeyCreatedAt))
}
