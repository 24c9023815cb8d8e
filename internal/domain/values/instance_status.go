// Package values contains domain value objects that wrap primitive types
// with validation.
package values

import (
	"database/sql/driver"
	"fmt"
)

// InstanceStatus is the lifecycle status recorded in an instance document.
type InstanceStatus string

const (
	// StatusCreated is recorded between document creation and the first status write.
	StatusCreated InstanceStatus = "created"
	// StatusRunning indicates the last "up" succeeded
	StatusRunning InstanceStatus = "running"
	// StatusStopped indicates the last "down" succeeded
	StatusStopped InstanceStatus = "stopped"
	// StatusMissing indicates no instance document exists
	StatusMissing InstanceStatus = "missing"
	// StatusUnknown indicates the runtime could not be inspected
	StatusUnknown InstanceStatus = "unknown"
)

// ParseInstanceStatus converts a stored status into an InstanceStatus.
// An empty value maps to StatusCreated.
func ParseInstanceStatus(s string) (InstanceStatus, error) {
	if s == "" {
		return StatusCreated, nil
	}
	status := InstanceStatus(s)
	if err := status.Validate(); err != nil {
		return "", err
	}
	return status, nil
}

// IsActive returns true if the instance is expected to be running
func (s InstanceStatus) IsActive() bool {
	return s == StatusRunning
}

// Validate returns an error if the status value is invalid
func (s InstanceStatus) Validate() error {
	switch s {
	case StatusCreated, StatusRunning, StatusStopped, StatusMissing, StatusUnknown:
		return nil
	default:
		return fmt.Errorf("invalid instance status: %s", s)
	}
}

// String returns the string representation
func (s InstanceStatus) String() string {
	return string(s)
}

// Value implements driver.Valuer for database/sql
func (s InstanceStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Scan implements sql.Scanner for database/sql
func (s *InstanceStatus) Scan(value interface{}) error {
	if value == nil {
		*s = ""
		return nil
	}

	var raw string
	switch v := value.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("cannot scan %T into InstanceStatus", value)
	}

	status, err := ParseInstanceStatus(raw)
	if err != nil {
		return err
	}
	*s = status
	return nil
}
