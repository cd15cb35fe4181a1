// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"

	"github.com/luxfi/vault/registry"
	"github.com/luxfi/vault/state"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(state.New(memdb.New()))
}

func TestMintAndQuery(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)
	vault := ids.GenerateTestID()
	guardian := ids.GenerateTestShortID()

	m, err := r.Mint(vault, guardian, 1000)
	require.NoError(err)
	require.Equal(vault, m.Vault)
	require.Equal(guardian, m.Guardian)
	require.Equal(uint64(1000), m.MintedAt)

	ok, err := r.IsGuardian(vault, guardian)
	require.NoError(err)
	require.True(ok)

	vaults, err := r.GetVaultsForGuardian(guardian)
	require.NoError(err)
	require.True(vaults.Contains(vault))

	guardians, err := r.GetGuardiansForVault(vault)
	require.NoError(err)
	require.True(guardians.Contains(guardian))
}

func TestMintZeroAddresses(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)

	_, err := r.Mint(ids.GenerateTestID(), ids.ShortEmpty, 0)
	require.ErrorIs(err, registry.ErrInvalidAddress)

	_, err = r.Mint(ids.Empty, ids.GenerateTestShortID(), 0)
	require.ErrorIs(err, registry.ErrInvalidAddress)
}

// Duplicate mints for the same vault/guardian pair are deliberately
// permitted and tracked as independent memberships. Whether the registry
// should instead deduplicate (one membership per pair) is an open product
// question; this test pins the permissive behavior until that is decided.
func TestDuplicateMintsAreIndependent(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)
	vault := ids.GenerateTestID()
	guardian := ids.GenerateTestShortID()

	// Minting the same pair twice creates two distinct memberships.
	m1, err := r.Mint(vault, guardian, 0)
	require.NoError(err)
	m2, err := r.Mint(vault, guardian, 0)
	require.NoError(err)
	require.NotEqual(m1.ID, m2.ID)

	// Burning one leaves the guardian active through the other.
	_, err = r.Burn(vault, m1.ID)
	require.NoError(err)

	ok, err := r.IsGuardian(vault, guardian)
	require.NoError(err)
	require.True(ok)

	// Burning the last one removes the association.
	_, err = r.Burn(vault, m2.ID)
	require.NoError(err)

	ok, err = r.IsGuardian(vault, guardian)
	require.NoError(err)
	require.False(ok)
}

func TestBurnUnknownMembership(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)

	_, err := r.Burn(ids.GenerateTestID(), 42)
	require.ErrorIs(err, registry.ErrNotFound)
}

func TestBurnWrongVault(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)
	vault := ids.GenerateTestID()
	guardian := ids.GenerateTestShortID()

	m, err := r.Mint(vault, guardian, 0)
	require.NoError(err)

	_, err = r.Burn(ids.GenerateTestID(), m.ID)
	require.ErrorIs(err, registry.ErrNotFound)

	// The membership is untouched.
	ok, err := r.IsGuardian(vault, guardian)
	require.NoError(err)
	require.True(ok)
}

func TestSoulbound(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)
	m, err := r.Mint(ids.GenerateTestID(), ids.GenerateTestShortID(), 0)
	require.NoError(err)

	require.ErrorIs(r.Transfer(m.ID, ids.GenerateTestShortID()), registry.ErrSoulbound)
	require.ErrorIs(r.Approve(m.ID, ids.GenerateTestShortID()), registry.ErrSoulbound)
}

func TestQueriesOnEmptyRegistry(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)

	vaults, err := r.GetVaultsForGuardian(ids.GenerateTestShortID())
	require.NoError(err)
	require.Empty(vaults)

	guardians, err := r.GetGuardiansForVault(ids.GenerateTestID())
	require.NoError(err)
	require.Empty(guardians)

	ok, err := r.IsGuardian(ids.GenerateTestID(), ids.GenerateTestShortID())
	require.NoError(err)
	require.False(ok)
}

func TestGuardianOfMultipleVaults(t *testing.T) {
	require := require.New(t)

	r := newTestRegistry(t)
	guardian := ids.GenerateTestShortID()
	vault1 := ids.GenerateTestID()
	vault2 := ids.GenerateTestID()

	_, err := r.Mint(vault1, guardian, 0)
	require.NoError(err)
	_, err = r.Mint(vault2, guardian, 0)
	require.NoError(err)

	vaults, err := r.GetVaultsForGuardian(guardian)
	require.NoError(err)
	require.Equal(2, vaults.Len())
	require.True(vaults.Contains(vault1))
	require.True(vaults.Contains(vault2))
}
