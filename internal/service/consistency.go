package service

import (
	"context"
	"fmt"
)

// ViolationKind names a broken occupancy or numbering rule.
type ViolationKind string

const (
	// DanglingAssignment: a patient names a chair that does not exist.
	DanglingAssignment ViolationKind = "dangling_assignment"
	// OccupantMismatch: a patient names a chair whose occupant is someone else or nobody.
	OccupantMismatch ViolationKind = "occupant_mismatch"
	// SharedChair: more than one patient names the same chair.
	SharedChair ViolationKind = "shared_chair"
	// AvailableWithOccupant: a chair is available yet has an occupant.
	AvailableWithOccupant ViolationKind = "available_with_occupant"
	// OrphanOccupant: a chair's occupant is missing or does not name the chair back.
	OrphanOccupant ViolationKind = "orphan_occupant"
	// DuplicateNumber: two chairs share a number.
	DuplicateNumber ViolationKind = "duplicate_number"
)

// Violation is one finding of CheckConsistency.
type Violation struct {
	Kind      ViolationKind `json:"kind"`
	ChairID   string        `json:"chairId,omitempty"`
	PatientID string        `json:"patientId,omitempty"`
	Detail    string        `json:"detail"`
}

// CheckConsistency reads both collections once and reports every broken rule.
// It changes nothing; an empty result means the data is consistent.
func (s *AssignmentServiceImpl) CheckConsistency(ctx context.Context) ([]Violation, error) {
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	chairs, err := s.chairs.List(ctx)
	if err != nil {
		return nil, err
	}

	out := []Violation{}
	chairByID := make(map[string]int, len(chairs))
	for i, c := range chairs {
		chairByID[c.ID] = i
	}
	patientByID := make(map[string]int, len(patients))
	for i, p := range patients {
		patientByID[p.ID] = i
	}

	holders := map[string][]string{}
	for _, p := range patients {
		if p.AssignedChairID == "" {
			continue
		}
		holders[p.AssignedChairID] = append(holders[p.AssignedChairID], p.ID)
		i, ok := chairByID[p.AssignedChairID]
		if !ok {
			out = append(out, Violation{Kind: DanglingAssignment, ChairID: p.AssignedChairID, PatientID: p.ID,
				Detail: "assigned chair does not exist"})
			continue
		}
		if c := chairs[i]; c.OccupantPatientID != p.ID {
			out = append(out, Violation{Kind: OccupantMismatch, ChairID: c.ID, PatientID: p.ID,
				Detail: fmt.Sprintf("chair occupant is %q", c.OccupantPatientID)})
		}
	}
	for chairID, ids := range holders {
		if len(ids) > 1 {
			out = append(out, Violation{Kind: SharedChair, ChairID: chairID,
				Detail: fmt.Sprintf("assigned to %d patients: %v", len(ids), ids)})
		}
	}

	numbers := map[int]string{}
	for _, c := range chairs {
		if first, dup := numbers[c.Number]; dup {
			out = append(out, Violation{Kind: DuplicateNumber, ChairID: c.ID,
				Detail: fmt.Sprintf("number %d also used by chair %q", c.Number, first)})
		} else {
			numbers[c.Number] = c.ID
		}
		if !c.Occupied() {
			continue
		}
		if c.Available {
			out = append(out, Violation{Kind: AvailableWithOccupant, ChairID: c.ID, PatientID: c.OccupantPatientID,
				Detail: "chair is available but has an occupant"})
		}
		i, ok := patientByID[c.OccupantPatientID]
		if !ok || patients[i].AssignedChairID != c.ID {
			out = append(out, Violation{Kind: OrphanOccupant, ChairID: c.ID, PatientID: c.OccupantPatientID,
				Detail: "occupant does not reference this chair"})
		}
	}

	sortViolations(out)
	return out, nil
}
