// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package event defines the append-only guardian activity log.
//
// Every committed state transition in the vault engine emits exactly one
// event. Each event variant carries a strongly typed payload with the
// target id, the acting account and the resulting counts, so an external
// consumer can reconstruct the full state machine from the log alone.
// Events are read-only for consumers; nothing outside the engine appends.
package event

import "github.com/luxfi/ids"

// Event is the tagged union of all activity-log entries. Implementations
// are value types registered with the state codec.
type Event interface {
	// Type returns the stable wire name of the event variant.
	Type() string
}

// Envelope wraps an event with its position and time of commit.
type Envelope struct {
	// Index is the position of this event in its vault's log, starting
	// at 0 and increasing by exactly 1 per committed transition.
	Index uint64 `serialize:"true" json:"index"`

	// Timestamp is the Unix-seconds time at which the transition
	// committed.
	Timestamp uint64 `serialize:"true" json:"timestamp"`

	Payload Event `serialize:"true" json:"payload"`
}

// GuardianMinted records a new guardian membership.
type GuardianMinted struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	Guardian     ids.ShortID `serialize:"true" json:"guardian"`
	MembershipID uint64      `serialize:"true" json:"membershipID"`
}

func (*GuardianMinted) Type() string {
	return "guardian_minted"
}

// GuardianBurned records removal of a guardian membership.
type GuardianBurned struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	Guardian     ids.ShortID `serialize:"true" json:"guardian"`
	MembershipID uint64      `serialize:"true" json:"membershipID"`
}

func (*GuardianBurned) Type() string {
	return "guardian_burned"
}

// RequestCreated records a new pending signature request.
type RequestCreated struct {
	Request ids.ID      `serialize:"true" json:"request"`
	Vault   ids.ID      `serialize:"true" json:"vault"`
	Creator ids.ShortID `serialize:"true" json:"creator"`
	Quorum  uint32      `serialize:"true" json:"quorum"`
}

func (*RequestCreated) Type() string {
	return "request_created"
}

// SignatureAdded records one guardian approval on a pending request.
type SignatureAdded struct {
	Request    ids.ID      `serialize:"true" json:"request"`
	Signer     ids.ShortID `serialize:"true" json:"signer"`
	Signatures uint32      `serialize:"true" json:"signatures"`
	Quorum     uint32      `serialize:"true" json:"quorum"`
}

func (*SignatureAdded) Type() string {
	return "approval"
}

// RequestApproved records a request reaching its quorum.
type RequestApproved struct {
	Request    ids.ID `serialize:"true" json:"request"`
	Signatures uint32 `serialize:"true" json:"signatures"`
}

func (*RequestApproved) Type() string {
	return "request_approved"
}

// RequestRejected records a pending request being rejected.
type RequestRejected struct {
	Request ids.ID      `serialize:"true" json:"request"`
	Caller  ids.ShortID `serialize:"true" json:"caller"`
}

func (*RequestRejected) Type() string {
	return "rejection"
}

// RequestExecuted records an approved request being consumed by the queue.
type RequestExecuted struct {
	Request      ids.ID `serialize:"true" json:"request"`
	WithdrawalID uint64 `serialize:"true" json:"withdrawalID"`
}

func (*RequestExecuted) Type() string {
	return "request_executed"
}

// WithdrawalQueued records a withdrawal entering the time-lock queue.
type WithdrawalQueued struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Token        ids.ID      `serialize:"true" json:"token"`
	Amount       uint64      `serialize:"true" json:"amount"`
	Recipient    ids.ShortID `serialize:"true" json:"recipient"`
	ReadyAt      uint64      `serialize:"true" json:"readyAt"`
}

func (*WithdrawalQueued) Type() string {
	return "withdrawal_queued"
}

// WithdrawalExecuted records funds leaving the vault.
type WithdrawalExecuted struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Token        ids.ID      `serialize:"true" json:"token"`
	Amount       uint64      `serialize:"true" json:"amount"`
	Recipient    ids.ShortID `serialize:"true" json:"recipient"`
	Caller       ids.ShortID `serialize:"true" json:"caller"`
}

func (*WithdrawalExecuted) Type() string {
	return "withdrawal_executed"
}

// WithdrawalCancelled records an owner cancellation.
type WithdrawalCancelled struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Caller       ids.ShortID `serialize:"true" json:"caller"`
}

func (*WithdrawalCancelled) Type() string {
	return "withdrawal_cancelled"
}

// FreezeVoteCast records a guardian freeze vote. WithdrawalID 0 targets
// the whole vault.
type FreezeVoteCast struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Guardian     ids.ShortID `serialize:"true" json:"guardian"`
	Votes        uint32      `serialize:"true" json:"votes"`
	Threshold    uint32      `serialize:"true" json:"threshold"`
	Frozen       bool        `serialize:"true" json:"frozen"`
}

func (*FreezeVoteCast) Type() string {
	return "freeze_vote"
}

// UnfreezeVoteCast records a guardian unfreeze vote on a frozen target.
type UnfreezeVoteCast struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Guardian     ids.ShortID `serialize:"true" json:"guardian"`
	Votes        uint32      `serialize:"true" json:"votes"`
	Threshold    uint32      `serialize:"true" json:"threshold"`
	Unfrozen     bool        `serialize:"true" json:"unfrozen"`
}

func (*UnfreezeVoteCast) Type() string {
	return "unfreeze_vote"
}

// FreezeVoteRetracted records a guardian withdrawing a freeze vote from a
// target that is not frozen.
type FreezeVoteRetracted struct {
	Vault        ids.ID      `serialize:"true" json:"vault"`
	WithdrawalID uint64      `serialize:"true" json:"withdrawalID"`
	Guardian     ids.ShortID `serialize:"true" json:"guardian"`
	Votes        uint32      `serialize:"true" json:"votes"`
}

func (*FreezeVoteRetracted) Type() string {
	return "freeze_vote_retracted"
}

// Deposited records a ledger credit to a vault.
type Deposited struct {
	Vault  ids.ID `serialize:"true" json:"vault"`
	Token  ids.ID `serialize:"true" json:"token"`
	Amount uint64 `serialize:"true" json:"amount"`
}

func (*Deposited) Type() string {
	return "deposited"
}

// Spent records an immediate below-threshold owner spend.
type Spent struct {
	Vault     ids.ID      `serialize:"true" json:"vault"`
	Token     ids.ID      `serialize:"true" json:"token"`
	Amount    uint64      `serialize:"true" json:"amount"`
	Recipient ids.ShortID `serialize:"true" json:"recipient"`
}

func (*Spent) Type() string {
	return "spent"
}

// ConfigChanged records an owner updating one policy parameter. The change
// applies only to operations after this event; queued withdrawals keep the
// values snapshotted at queue time.
type ConfigChanged struct {
	Vault     ids.ID `serialize:"true" json:"vault"`
	Parameter string `serialize:"true" json:"parameter"`
	Value     uint64 `serialize:"true" json:"value"`
}

func (*ConfigChanged) Type() string {
	return "config_changed"
}
