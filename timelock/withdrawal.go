// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package timelock implements the queued-withdrawal time-lock state
// machine.
//
// A withdrawal enters the queue with a maturation time snapshotted from
// the vault's configured delay, may be frozen and unfrozen by guardian
// vote while queued, becomes permissionlessly executable once mature and
// unfrozen, and can be cancelled by the owner at any point before a
// terminal state. Executed and cancelled are mutually exclusive terminal
// flags: once either is set the record never mutates again.
package timelock

import (
	"errors"
	"time"

	"github.com/luxfi/ids"
)

var (
	// ErrNotReady is returned when execution is attempted before the
	// withdrawal's maturation time. An expected outcome, not a fault:
	// automated executors poll until it clears.
	ErrNotReady = errors.New("withdrawal time-lock has not matured")

	// ErrFrozen is returned when execution is attempted on a frozen
	// withdrawal or in a frozen vault, regardless of maturation.
	ErrFrozen = errors.New("withdrawal is frozen")

	// ErrAlreadyExecuted is returned by any mutation of an executed
	// withdrawal.
	ErrAlreadyExecuted = errors.New("withdrawal already executed")

	// ErrAlreadyCancelled is returned by any mutation of a cancelled
	// withdrawal.
	ErrAlreadyCancelled = errors.New("withdrawal already cancelled")

	// ErrInsufficientQuorum is returned when queueing is attempted
	// without an approved signature request.
	ErrInsufficientQuorum = errors.New("signatures do not meet required quorum")

	// ErrInvalidAmount is returned when a zero-amount withdrawal is
	// queued.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds is returned when the vault's token balance
	// cannot cover the withdrawal at execution time.
	ErrInsufficientFunds = errors.New("insufficient vault balance")
)

// Status is the externally visible state of a withdrawal, derived with
// the precedence executed > cancelled > frozen > ready > pending.
type Status uint8

const (
	StatusPending Status = iota
	StatusReady
	StatusFrozen
	StatusExecuted
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFrozen:
		return "frozen"
	case StatusExecuted:
		return "executed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Withdrawal is one queued spend. Ids are monotonically increasing per
// vault, starting at 1; id 0 is reserved to address the vault itself in
// freeze votes.
type Withdrawal struct {
	Vault     ids.ID      `serialize:"true" json:"vault"`
	ID        uint64      `serialize:"true" json:"id"`
	Token     ids.ID      `serialize:"true" json:"token"`
	Amount    uint64      `serialize:"true" json:"amount"`
	Recipient ids.ShortID `serialize:"true" json:"recipient"`
	Reason    string      `serialize:"true" json:"reason"`
	Category  string      `serialize:"true" json:"category"`

	// QueuedAt and ReadyAt are Unix seconds. ReadyAt - QueuedAt equals
	// the vault's time-lock delay as configured at queue time; later
	// configuration changes never move ReadyAt.
	QueuedAt uint64 `serialize:"true" json:"queuedAt"`
	ReadyAt  uint64 `serialize:"true" json:"readyAt"`

	Frozen      bool   `serialize:"true" json:"isFrozen"`
	FreezeVotes uint32 `serialize:"true" json:"freezeVotes"`

	Executed  bool `serialize:"true" json:"isExecuted"`
	Cancelled bool `serialize:"true" json:"isCancelled"`

	// Signers are the guardians whose signatures approved this
	// withdrawal, in signing order.
	Signers []ids.ShortID `serialize:"true" json:"signers"`
}

// New queues a withdrawal at [now] with the maturation delay captured
// from the vault configuration in force at queue time.
func New(
	vault ids.ID,
	id uint64,
	token ids.ID,
	amount uint64,
	recipient ids.ShortID,
	reason string,
	category string,
	signers []ids.ShortID,
	now uint64,
	delay time.Duration,
) (*Withdrawal, error) {
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	return &Withdrawal{
		Vault:     vault,
		ID:        id,
		Token:     token,
		Amount:    amount,
		Recipient: recipient,
		Reason:    reason,
		Category:  category,
		QueuedAt:  now,
		ReadyAt:   now + uint64(delay/time.Second),
		Signers:   signers,
	}, nil
}

// Terminal reports whether the withdrawal reached a final state.
func (w *Withdrawal) Terminal() bool {
	return w.Executed || w.Cancelled
}

// terminalErr returns the error describing which terminal state the
// withdrawal is in.
func (w *Withdrawal) terminalErr() error {
	if w.Executed {
		return ErrAlreadyExecuted
	}
	return ErrAlreadyCancelled
}

// Status derives the externally visible state at time [now].
func (w *Withdrawal) Status(now uint64) Status {
	switch {
	case w.Executed:
		return StatusExecuted
	case w.Cancelled:
		return StatusCancelled
	case w.Frozen:
		return StatusFrozen
	case now >= w.ReadyAt:
		return StatusReady
	default:
		return StatusPending
	}
}

// TimeRemaining returns the seconds left until maturation, clamped at 0.
func (w *Withdrawal) TimeRemaining(now uint64) uint64 {
	if now >= w.ReadyAt {
		return 0
	}
	return w.ReadyAt - now
}

// Execute marks the withdrawal executed at time [now]. [vaultFrozen]
// carries the whole-vault freeze state, which gates execution exactly
// like a per-withdrawal freeze. The freeze check precedes the time check:
// a frozen withdrawal reports ErrFrozen even when mature.
func (w *Withdrawal) Execute(now uint64, vaultFrozen bool) error {
	switch {
	case w.Terminal():
		return w.terminalErr()
	case w.Frozen || vaultFrozen:
		return ErrFrozen
	case now < w.ReadyAt:
		return ErrNotReady
	}
	w.Executed = true
	return nil
}

// Cancel marks the withdrawal cancelled. Owner authority overrides
// guardian freezes for cancellation, so the freeze state is deliberately
// not consulted.
func (w *Withdrawal) Cancel() error {
	if w.Terminal() {
		return w.terminalErr()
	}
	w.Cancelled = true
	return nil
}

// SetFrozen updates the freeze overlay from the target's ballot. Terminal
// withdrawals never mutate.
func (w *Withdrawal) SetFrozen(frozen bool, votes uint32) error {
	if w.Terminal() {
		return w.terminalErr()
	}
	w.Frozen = frozen
	w.FreezeVotes = votes
	return nil
}
