package models

import "time"

// Scan types accepted by the scan route.
const (
	ScanTypeGate      = "gate"
	ScanTypeCafeteria = "cafeteria"
)

// Scan results recorded in the access log.
const (
	ScanResultPass = "pass"
	ScanResultFail = "fail"
)

// ScanEvent is the live-feed payload pushed to connected admin clients
// after each scan decision.
type ScanEvent struct {
	Status   ScanStatus       `json:"status"`
	ScanType string           `json:"scan_type"`
	GateID   string           `json:"gate_id,omitempty"`
	Reason   string           `json:"reason,omitempty"`
	Attendee *AttendeeSummary `json:"attendee,omitempty"`
	At       time.Time        `json:"at"`
}

type ScanRequest struct {
	ScannedToken string `json:"scannedToken"`
	GateID       string `json:"gateId"`
	ScanType     string `json:"scanType"`
}

type ScanStatus string

const (
	ScanStatusUnknown ScanStatus = "unknown"
	ScanStatusFail    ScanStatus = "fail"
	ScanStatusPass    ScanStatus = "pass"
)

// ScanOutcome is the single response shape for all three scan results. The
// scan service is the only producer; handlers render it verbatim.
type ScanOutcome struct {
	Status           ScanStatus       `json:"status"`
	Message          string           `json:"message,omitempty"`
	RegistrationLink string           `json:"registrationLink,omitempty"`
	Attendee         *AttendeeSummary `json:"attendee,omitempty"`
	RemainingCount   *int             `json:"remainingCount,omitempty"`
	Used             *int             `json:"used,omitempty"`
	Allowance        *int             `json:"allowance,omitempty"`

	// Reason is the machine-readable code also written to the access log.
	// Not serialized; callers branch on Status.
	Reason string `json:"-"`
}
