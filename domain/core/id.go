package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific identifier types. Sections, tests, protocols and trend
// parameters are named by stable keys rather than generated IDs so that
// catalog entries and stored verdicts line up across sessions.
type (
	SectionID   string
	TestID      string
	ProtocolID  string
	ParameterID string
	VerdictID   ID
)

// String conversions for domain IDs
func (id SectionID) String() string   { return string(id) }
func (id TestID) String() string      { return string(id) }
func (id ProtocolID) String() string  { return string(id) }
func (id ParameterID) String() string { return string(id) }
func (id VerdictID) String() string   { return ID(id).String() }

// NewVerdictID creates a fresh verdict identifier
func NewVerdictID() VerdictID {
	return VerdictID(NewID())
}

// ParseSectionID parses a string into SectionID
func ParseSectionID(s string) (SectionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("section ID cannot be empty")
	}
	return SectionID(s), nil
}

// ParseProtocolID parses a string into ProtocolID
func ParseProtocolID(s string) (ProtocolID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("protocol ID cannot be empty")
	}
	return ProtocolID(s), nil
}

// ParseParameterID parses a string into ParameterID
func ParseParameterID(s string) (ParameterID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("parameter ID cannot be empty")
	}
	return ParameterID(s), nil
}
