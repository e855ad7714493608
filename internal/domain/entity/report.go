package entity

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Role selects which keeper duty a process performs.
type Role string

const (
	RoleOpen    Role = "open"
	RoleClose   Role = "close"
	RoleMonitor Role = "monitor_keeper"
)

// ParseRole validates a role name given on the command line.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleOpen, RoleClose, RoleMonitor:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q (want open, close or monitor_keeper)", s)
	}
}

// CheckpointKey is where a role records its last successful cycle.
func (r Role) CheckpointKey() string {
	return string(r) + "_checkpoint"
}

// HaltedKey marks that an alert was already raised for a stalled role.
func (r Role) HaltedKey() string {
	return string(r) + "_halted_1"
}

// DropReason explains why an item left the pipeline before submission.
type DropReason string

const (
	DropAlreadyResolved DropReason = "already_resolved"
	DropReadFailed      DropReason = "read_failed"
	DropUnknownAsset    DropReason = "unknown_asset"
	DropUnknownFeed     DropReason = "unknown_feed"
	DropMissingPrice    DropReason = "missing_price"
	DropMissingFee      DropReason = "missing_fee"
	DropDuplicate       DropReason = "duplicate"
	DropOverCap         DropReason = "over_cap"
)

// ItemDecision is the per-item outcome of a cycle.
type ItemDecision struct {
	ItemID string
	Kept   bool
	Reason DropReason
}

// SubmitOutcome is how a settlement transaction ended.
type SubmitOutcome string

const (
	SubmitConfirmed   SubmitOutcome = "confirmed"
	SubmitUnconfirmed SubmitOutcome = "unconfirmed"
	SubmitNonceTooLow SubmitOutcome = "nonce_too_low"
	SubmitInFlight    SubmitOutcome = "in_flight"
	SubmitSkipped     SubmitOutcome = "skipped"
)

// SubmitResult describes a settlement transaction attempt.
type SubmitResult struct {
	Outcome  SubmitOutcome
	TxHash   common.Hash
	Nonce    uint64
	GasPrice string
	Events   []string
}

// CycleReport summarises one resolver cycle.
type CycleReport struct {
	Role       Role
	CycleID    string
	StartedAt  time.Time
	Listed     int
	Candidates int
	Decisions  []ItemDecision
	Submit     SubmitResult
}

// Drop records a dropped item.
func (r *CycleReport) Drop(itemID string, reason DropReason) {
	r.Decisions = append(r.Decisions, ItemDecision{ItemID: itemID, Reason: reason})
}

// Keep records an item that made it into the batch.
func (r *CycleReport) Keep(itemID string) {
	r.Decisions = append(r.Decisions, ItemDecision{ItemID: itemID, Kept: true})
}

// Kept counts the items that reached the batch.
func (r *CycleReport) Kept() int {
	n := 0
	for _, d := range r.Decisions {
		if d.Kept {
			n++
		}
	}
	return n
}

// Dropped counts dropped items per reason.
func (r *CycleReport) Dropped() map[DropReason]int {
	out := make(map[DropReason]int)
	for _, d := range r.Decisions {
		if !d.Kept {
			out[d.Reason]++
		}
	}
	return out
}
