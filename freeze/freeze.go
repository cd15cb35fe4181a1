// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package freeze implements guardian emergency-freeze voting.
//
// Each target (a queued withdrawal, or a whole vault) carries a Ballot
// with two tallies: freeze votes and unfreeze votes. A guardian address is
// present in at most one of the two sets at any time. When either tally
// reaches its threshold the target flips state and both sets are cleared
// entirely, so stale votes never carry over into the next round.
package freeze

import (
	"bytes"
	"errors"
	"sort"

	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

var (
	// ErrAlreadyVoted is returned when the voter is already counted in
	// the tally being added to.
	ErrAlreadyVoted = errors.New("guardian already voted")

	// ErrNoVoteToRetract is returned for an unfreeze vote on a target
	// that is not frozen by a guardian with no freeze vote outstanding.
	ErrNoVoteToRetract = errors.New("no freeze vote to retract")
)

// UnfreezeOutcome identifies which branch an unfreeze vote took. The same
// entry point means "retract my freeze vote" on an unfrozen target and
// "cast an unfreeze vote" on a frozen one.
type UnfreezeOutcome uint8

const (
	// Retracted: the guardian's freeze vote was removed from an unfrozen
	// target.
	Retracted UnfreezeOutcome = iota
	// Recorded: an unfreeze vote was added but the threshold is not met.
	Recorded
	// Unfrozen: the unfreeze tally reached its threshold and the target
	// flipped; both vote sets are now empty.
	Unfrozen
)

func (o UnfreezeOutcome) String() string {
	switch o {
	case Retracted:
		return "retracted"
	case Recorded:
		return "recorded"
	case Unfrozen:
		return "unfrozen"
	default:
		return "unknown"
	}
}

// Ballot tallies freeze and unfreeze votes for one target.
type Ballot struct {
	freezeVoters      set.Set[ids.ShortID]
	unfreezeVoters    set.Set[ids.ShortID]
	freezeThreshold   uint32
	unfreezeThreshold uint32
	frozen            bool
}

func New(freezeThreshold, unfreezeThreshold uint32) *Ballot {
	return &Ballot{
		freezeVoters:      make(set.Set[ids.ShortID], freezeThreshold),
		unfreezeVoters:    make(set.Set[ids.ShortID], unfreezeThreshold),
		freezeThreshold:   freezeThreshold,
		unfreezeThreshold: unfreezeThreshold,
	}
}

// Frozen reports whether the target is currently frozen.
func (b *Ballot) Frozen() bool {
	return b.frozen
}

// FreezeVotes returns the current freeze tally.
func (b *Ballot) FreezeVotes() uint32 {
	return uint32(b.freezeVoters.Len())
}

// UnfreezeVotes returns the current unfreeze tally.
func (b *Ballot) UnfreezeVotes() uint32 {
	return uint32(b.unfreezeVoters.Len())
}

// FreezeThreshold returns the configured freeze threshold.
func (b *Ballot) FreezeThreshold() uint32 {
	return b.freezeThreshold
}

// HasFreezeVote reports whether [guardian] has an outstanding freeze vote.
func (b *Ballot) HasFreezeVote(guardian ids.ShortID) bool {
	return b.freezeVoters.Contains(guardian)
}

// VoteFreeze adds [guardian] to the freeze tally. It returns true when
// this vote flips the target to frozen, at which point both vote sets are
// cleared.
func (b *Ballot) VoteFreeze(guardian ids.ShortID) (bool, error) {
	if b.freezeVoters.Contains(guardian) {
		return false, ErrAlreadyVoted
	}

	// A guardian is in at most one tally per target.
	b.unfreezeVoters.Remove(guardian)
	b.freezeVoters.Add(guardian)

	if !b.frozen && uint32(b.freezeVoters.Len()) >= b.freezeThreshold {
		b.flip(true)
		return true, nil
	}
	return false, nil
}

// VoteUnfreeze is the single public unfreeze entry point. It dispatches on
// the current frozen state: retract-my-freeze-vote when unfrozen, cast an
// unfreeze vote when frozen.
func (b *Ballot) VoteUnfreeze(guardian ids.ShortID) (UnfreezeOutcome, error) {
	if !b.frozen {
		return Retracted, b.retractFreezeVote(guardian)
	}
	return b.castUnfreezeVote(guardian)
}

// retractFreezeVote removes the guardian's outstanding freeze vote from an
// unfrozen target.
func (b *Ballot) retractFreezeVote(guardian ids.ShortID) error {
	if !b.freezeVoters.Contains(guardian) {
		return ErrNoVoteToRetract
	}
	b.freezeVoters.Remove(guardian)
	return nil
}

// castUnfreezeVote adds an unfreeze vote to a frozen target, flipping it
// back to unfrozen when the tally reaches the unfreeze threshold.
func (b *Ballot) castUnfreezeVote(guardian ids.ShortID) (UnfreezeOutcome, error) {
	if b.unfreezeVoters.Contains(guardian) {
		return Recorded, ErrAlreadyVoted
	}

	b.freezeVoters.Remove(guardian)
	b.unfreezeVoters.Add(guardian)

	if uint32(b.unfreezeVoters.Len()) >= b.unfreezeThreshold {
		b.flip(false)
		return Unfrozen, nil
	}
	return Recorded, nil
}

// flip changes the frozen state and clears both tallies entirely. Votes
// are never decremented across a state change.
func (b *Ballot) flip(frozen bool) {
	b.frozen = frozen
	b.freezeVoters.Clear()
	b.unfreezeVoters.Clear()
}

// Record is the serializable form of a Ballot. Voter slices are sorted so
// the encoding is deterministic.
type Record struct {
	FreezeVoters      []ids.ShortID `serialize:"true"`
	UnfreezeVoters    []ids.ShortID `serialize:"true"`
	FreezeThreshold   uint32        `serialize:"true"`
	UnfreezeThreshold uint32        `serialize:"true"`
	Frozen            bool          `serialize:"true"`
}

// Record returns the serializable form of this ballot.
func (b *Ballot) Record() *Record {
	freezeVoters := b.freezeVoters.List()
	unfreezeVoters := b.unfreezeVoters.List()
	sortVoters(freezeVoters)
	sortVoters(unfreezeVoters)
	return &Record{
		FreezeVoters:      freezeVoters,
		UnfreezeVoters:    unfreezeVoters,
		FreezeThreshold:   b.freezeThreshold,
		UnfreezeThreshold: b.unfreezeThreshold,
		Frozen:            b.frozen,
	}
}

func sortVoters(voters []ids.ShortID) {
	sort.Slice(voters, func(i, j int) bool {
		return bytes.Compare(voters[i][:], voters[j][:]) < 0
	})
}

// FromRecord rebuilds a ballot from its serialized form.
func FromRecord(r *Record) *Ballot {
	b := New(r.FreezeThreshold, r.UnfreezeThreshold)
	b.frozen = r.Frozen
	b.freezeVoters.Add(r.FreezeVoters...)
	b.unfreezeVoters.Add(r.UnfreezeVoters...)
	return b
}
