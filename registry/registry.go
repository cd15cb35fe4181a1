// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package registry tracks guardian memberships per vault.
//
// Memberships have soulbound semantics: they are minted and burned by the
// vault owner and can never be transferred or approved to another address.
// The registry is the only component allowed to mutate membership state;
// everything else reads through the query methods.
package registry

import (
	"errors"

	"github.com/luxfi/database"
	"github.com/luxfi/ids"
	"github.com/luxfi/math/set"
)

var (
	// ErrInvalidAddress is returned when the guardian or vault id is the
	// zero value.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNotFound is returned when a membership does not exist.
	ErrNotFound = errors.New("membership not found")

	// ErrNotGuardian is returned when an address holds no membership in the
	// vault at call time.
	ErrNotGuardian = errors.New("caller is not a guardian of this vault")

	// ErrSoulbound is returned by any attempt to transfer or approve a
	// membership. This is a hard invariant of the token, not a policy
	// toggle.
	ErrSoulbound = errors.New("soulbound membership cannot be transferred")
)

// Membership is one guardian↔vault association. Repeated mints for the
// same (guardian, vault) pair create distinct memberships; the registry
// deliberately does not deduplicate.
type Membership struct {
	ID       uint64      `serialize:"true" json:"id"`
	Vault    ids.ID      `serialize:"true" json:"vault"`
	Guardian ids.ShortID `serialize:"true" json:"guardian"`
	MintedAt uint64      `serialize:"true" json:"mintedAt"`
}

// State is the persistence the registry writes through. The guardian→vaults
// and vault→guardians indexes must be kept consistent by the same
// add/delete call; see state.State for the canonical implementation.
type State interface {
	AddMembership(*Membership) error
	GetMembership(membershipID uint64) (*Membership, error)
	DeleteMembership(*Membership) error
	GetVaultsForGuardian(guardian ids.ShortID) (set.Set[ids.ID], error)
	GetGuardiansForVault(vault ids.ID) (set.Set[ids.ShortID], error)
	NextMembershipID() (uint64, error)
}

// Registry owns guardian membership for every vault.
type Registry struct {
	state State
}

func New(state State) *Registry {
	return &Registry{state: state}
}

// Mint creates a new membership of [guardian] in [vault] at time [now].
// Caller authorization (vault owner only) is enforced by the engine.
func (r *Registry) Mint(vault ids.ID, guardian ids.ShortID, now uint64) (*Membership, error) {
	if guardian == ids.ShortEmpty || vault == ids.Empty {
		return nil, ErrInvalidAddress
	}

	membershipID, err := r.state.NextMembershipID()
	if err != nil {
		return nil, err
	}

	membership := &Membership{
		ID:       membershipID,
		Vault:    vault,
		Guardian: guardian,
		MintedAt: now,
	}
	if err := r.state.AddMembership(membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// Burn removes membership [membershipID] from [vault]. It fails with
// ErrNotFound if the membership does not exist or belongs to a different
// vault.
func (r *Registry) Burn(vault ids.ID, membershipID uint64) (*Membership, error) {
	membership, err := r.state.GetMembership(membershipID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	case membership.Vault != vault:
		return nil, ErrNotFound
	}

	if err := r.state.DeleteMembership(membership); err != nil {
		return nil, err
	}
	return membership, nil
}

// Transfer always fails: memberships are soulbound.
func (*Registry) Transfer(uint64, ids.ShortID) error {
	return ErrSoulbound
}

// Approve always fails: memberships are soulbound.
func (*Registry) Approve(uint64, ids.ShortID) error {
	return ErrSoulbound
}

// IsGuardian reports whether [guardian] currently holds at least one
// membership in [vault]. Membership is re-checked on every consensus call;
// it is never cached by callers.
func (r *Registry) IsGuardian(vault ids.ID, guardian ids.ShortID) (bool, error) {
	guardians, err := r.state.GetGuardiansForVault(vault)
	if err != nil {
		return false, err
	}
	return guardians.Contains(guardian), nil
}

// GetVaultsForGuardian returns the vaults guarded by [guardian]. An
// address with no memberships yields an empty set, not an error.
func (r *Registry) GetVaultsForGuardian(guardian ids.ShortID) (set.Set[ids.ID], error) {
	return r.state.GetVaultsForGuardian(guardian)
}

// GetGuardiansForVault returns the guardian addresses of [vault]. A vault
// with no guardians yields an empty set, not an error.
func (r *Registry) GetGuardiansForVault(vault ids.ID) (set.Set[ids.ShortID], error) {
	return r.state.GetGuardiansForVault(vault)
}
