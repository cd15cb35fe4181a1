// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the per-vault policy parameters.
//
// A Config is copied into every operation that consults it. In particular
// the time-lock delay is snapshotted into a withdrawal at queue time, so
// later configuration changes never move the readyAt of an already queued
// withdrawal.
package config

import (
	"errors"
	"time"
)

var (
	errZeroQuorum          = errors.New("required quorum must be at least 1")
	errZeroFreezeThreshold = errors.New("freeze threshold must be at least 1")
	errNegativeDelay       = errors.New("time-lock delay must not be negative")
)

// Config contains the policy parameters of a single vault.
type Config struct {
	// TimeLockDelay is the mandatory delay between queuing a withdrawal
	// and it becoming executable.
	TimeLockDelay time.Duration `serialize:"true" json:"timeLockDelay"`

	// LargeTxThreshold is the amount at or above which a spend must go
	// through the quorum-approved, time-locked queue. Owner spends below
	// the threshold settle immediately.
	LargeTxThreshold uint64 `serialize:"true" json:"largeTxThreshold"`

	// FreezeThreshold is the number of guardian votes needed to freeze a
	// queued withdrawal or the whole vault.
	FreezeThreshold uint32 `serialize:"true" json:"freezeThreshold"`

	// UnfreezeThreshold is the number of guardian votes needed to clear a
	// freeze. Currently configured equal to FreezeThreshold by default but
	// independently settable.
	UnfreezeThreshold uint32 `serialize:"true" json:"unfreezeThreshold"`

	// RequiredQuorum is the number of unique guardian signatures needed to
	// approve a withdrawal request.
	RequiredQuorum uint32 `serialize:"true" json:"requiredQuorum"`
}

// DefaultConfig returns the policy applied to a vault created without
// explicit parameters.
func DefaultConfig() Config {
	return Config{
		TimeLockDelay:     48 * time.Hour,
		LargeTxThreshold:  1_000_000,
		FreezeThreshold:   2,
		UnfreezeThreshold: 2,
		RequiredQuorum:    2,
	}
}

// Validate checks that the configured thresholds are usable.
func (c Config) Validate() error {
	switch {
	case c.RequiredQuorum < 1:
		return errZeroQuorum
	case c.FreezeThreshold < 1 || c.UnfreezeThreshold < 1:
		return errZeroFreezeThreshold
	case c.TimeLockDelay < 0:
		return errNegativeDelay
	default:
		return nil
	}
}
