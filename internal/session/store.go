// Package session holds the explicit application state for one QC
// survey: facility metadata and the verdicts accumulated per section.
// State is passed into operations as a collaborator rather than living
// in package globals.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"sync"

	"goqc/domain/core"
	"goqc/domain/qc"
)

// FacilityInfo is the facility and scanner identity recorded with a
// survey. Free text and categorical fields only; nothing here feeds
// evaluation.
type FacilityInfo struct {
	Facility     string `json:"facility"`
	Address      string `json:"address"`
	Location     string `json:"location"`
	XrayLicense  string `json:"xray_license"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Serial       string `json:"serial"`
	Physicist    string `json:"physicist"`
	SurveyDate   string `json:"survey_date,omitempty"`
}

// Store is the in-memory QC state: facility info plus verdicts keyed by
// section and protocol. Reads and writes are mutex-guarded so the store
// can sit behind a multi-request server; evaluation itself stays pure.
type Store struct {
	mu       sync.RWMutex
	facility FacilityInfo
	verdicts map[string]qc.Verdict
}

// NewStore creates an empty store with the given facility identity
func NewStore(facility FacilityInfo) *Store {
	return &Store{
		facility: facility,
		verdicts: make(map[string]qc.Verdict),
	}
}

func storeKey(section core.SectionID, protocol core.ProtocolID) string {
	if protocol == "" {
		return section.String()
	}
	return section.String() + "|" + protocol.String()
}

// Facility returns the recorded facility info
func (s *Store) Facility() FacilityInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.facility
}

// SetFacility replaces the recorded facility info
func (s *Store) SetFacility(info FacilityInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.facility = info
}

// Save stores a verdict, replacing any earlier verdict for the same
// section and protocol.
func (s *Store) Save(_ context.Context, verdict qc.Verdict) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts[storeKey(verdict.Section, verdict.Protocol)] = verdict
	return nil
}

// Get returns the verdict for a section and protocol, or NotFound
func (s *Store) Get(_ context.Context, section core.SectionID, protocol core.ProtocolID) (*qc.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verdicts[storeKey(section, protocol)]
	if !ok {
		return nil, core.ErrVerdictNotFound
	}
	return &v, nil
}

// ListBySection returns all verdicts for one section, protocol-sorted
func (s *Store) ListBySection(_ context.Context, section core.SectionID) ([]qc.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []qc.Verdict
	for _, v := range s.verdicts {
		if v.Section == section {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Protocol < out[j].Protocol })
	return out, nil
}

// ListAll returns every stored verdict, ordered by section then protocol
func (s *Store) ListAll(_ context.Context) ([]qc.Verdict, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]qc.Verdict, 0, len(s.verdicts))
	for _, v := range s.verdicts {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		return out[i].Protocol < out[j].Protocol
	})
	return out, nil
}

// Delete removes the verdict for a section and protocol
func (s *Store) Delete(_ context.Context, section core.SectionID, protocol core.ProtocolID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verdicts, storeKey(section, protocol))
	return nil
}

// Clear removes every stored verdict
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verdicts = make(map[string]qc.Verdict)
}

// snapshot is the serialized shape of a store. Verdicts are keyed the
// same way they are stored, so export and import round-trip losslessly.
type snapshot struct {
	Facility FacilityInfo          `json:"facility"`
	Verdicts map[string]qc.Verdict `json:"verdicts"`
}

// Export serializes the store to its structured mapping
func (s *Store) Export() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.MarshalIndent(snapshot{
		Facility: s.facility,
		Verdicts: s.verdicts,
	}, "", "  ")
}

// Import replaces the store contents from an exported mapping. A
// payload that does not deserialize into the expected shape is rejected
// with a malformed-import error and the existing state is preserved.
func (s *Store) Import(data []byte) error {
	var snap snapshot
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&snap); err != nil {
		return core.NewMalformedImportError(err.Error())
	}
	if snap.Verdicts == nil {
		return core.NewMalformedImportError("missing verdicts mapping")
	}
	for key, v := range snap.Verdicts {
		if v.Section == "" {
			return core.NewMalformedImportError("verdict " + key + " has no section")
		}
		if v.Overall.Severity() != qc.WorstStatus(v.Results).Severity() {
			return core.NewMalformedImportError("verdict " + key + " overall status does not match its results")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.facility = snap.Facility
	s.verdicts = snap.Verdicts
	return nil
}
