// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"

	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/event"
	"github.com/luxfi/vault/freeze"
	"github.com/luxfi/vault/quorum"
	"github.com/luxfi/vault/timelock"
)

func newTestVault() *Vault {
	return &Vault{
		ID:               ids.GenerateTestID(),
		Owner:            ids.GenerateTestShortID(),
		Config:           config.DefaultConfig(),
		CreatedAt:        1000,
		NextWithdrawalID: 1,
	}
}

func TestVaultRoundTrip(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	v := newTestVault()
	v.NextEventIndex = 3
	v.NextNonce = 7

	require.NoError(s.PutVault(v))

	got, err := s.GetVault(v.ID)
	require.NoError(err)
	require.Equal(v, got)

	_, err = s.GetVault(ids.GenerateTestID())
	require.ErrorIs(err, database.ErrNotFound)
}

func TestCommitAndAbort(t *testing.T) {
	require := require.New(t)

	base := memdb.New()
	s := New(base)
	v := newTestVault()

	require.NoError(s.PutVault(v))
	s.Abort()

	_, err := s.GetVault(v.ID)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(s.PutVault(v))
	require.NoError(s.Commit())

	// Visible through a fresh overlay over the same base.
	reopened := New(base)
	got, err := reopened.GetVault(v.ID)
	require.NoError(err)
	require.Equal(v.ID, got.ID)
}

func TestWithdrawalsScopedByVault(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	vault1 := ids.GenerateTestID()
	vault2 := ids.GenerateTestID()

	for i := uint64(1); i <= 3; i++ {
		w, err := timelock.New(vault1, i, ids.GenerateTestID(), 100*i, ids.GenerateTestShortID(), "", "", nil, 0, time.Hour)
		require.NoError(err)
		require.NoError(s.PutWithdrawal(w))
	}
	other, err := timelock.New(vault2, 1, ids.GenerateTestID(), 999, ids.GenerateTestShortID(), "", "", nil, 0, time.Hour)
	require.NoError(err)
	require.NoError(s.PutWithdrawal(other))

	withdrawals, err := s.GetWithdrawals(vault1)
	require.NoError(err)
	require.Len(withdrawals, 3)
	// Queue order: big-endian ids iterate in ascending order.
	for i, w := range withdrawals {
		require.Equal(uint64(i+1), w.ID)
	}

	got, err := s.GetWithdrawal(vault1, 2)
	require.NoError(err)
	require.Equal(uint64(200), got.Amount)

	_, err = s.GetWithdrawal(vault1, 9)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestRequestRoundTrip(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	r, err := quorum.NewRequest(
		ids.GenerateTestID(),
		quorum.Intent{
			Vault:     ids.GenerateTestID(),
			Token:     ids.GenerateTestID(),
			Amount:    5_000_000,
			Recipient: ids.GenerateTestShortID(),
			Reason:    "audit retainer",
			Category:  "services",
			Nonce:     4,
		},
		2,
		ids.GenerateTestShortID(),
		1000,
	)
	require.NoError(err)

	_, err = r.AddSignature(ids.GenerateTestShortID(), []byte{0xde, 0xad})
	require.NoError(err)

	require.NoError(s.PutRequest(r))
	got, err := s.GetRequest(r.ID)
	require.NoError(err)
	require.Equal(r, got)
}

func TestBallotRoundTrip(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	vault := ids.GenerateTestID()

	b := freeze.New(2, 2)
	guardian := ids.GenerateTestShortID()
	_, err := b.VoteFreeze(guardian)
	require.NoError(err)

	require.NoError(s.PutBallot(vault, 1, b.Record()))

	rec, err := s.GetBallot(vault, 1)
	require.NoError(err)
	restored := freeze.FromRecord(rec)
	require.True(restored.HasFreezeVote(guardian))
	require.Equal(uint32(1), restored.FreezeVotes())

	require.NoError(s.DeleteBallot(vault, 1))
	_, err = s.GetBallot(vault, 1)
	require.ErrorIs(err, database.ErrNotFound)
}

func TestBalances(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	vault := ids.GenerateTestID()
	token := ids.GenerateTestID()

	// Missing entries read as zero.
	balance, err := s.GetBalance(vault, token)
	require.NoError(err)
	require.Zero(balance)

	require.NoError(s.PutBalance(vault, token, 12_345))
	balance, err = s.GetBalance(vault, token)
	require.NoError(err)
	require.Equal(uint64(12_345), balance)

	// Balances are per token.
	balance, err = s.GetBalance(vault, ids.GenerateTestID())
	require.NoError(err)
	require.Zero(balance)
}

func TestCounters(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())

	id1, err := s.NextMembershipID()
	require.NoError(err)
	require.Equal(uint64(1), id1)

	id2, err := s.NextMembershipID()
	require.NoError(err)
	require.Equal(uint64(2), id2)

	// Vault sequence is an independent counter.
	seq, err := s.NextVaultSeq()
	require.NoError(err)
	require.Equal(uint64(1), seq)
}

func TestEventLog(t *testing.T) {
	require := require.New(t)

	s := New(memdb.New())
	vault := ids.GenerateTestID()

	for i := uint64(0); i < 5; i++ {
		require.NoError(s.AddEvent(vault, &event.Envelope{
			Index:     i,
			Timestamp: 1000 + i,
			Payload: &event.Deposited{
				Vault:  vault,
				Token:  ids.GenerateTestID(),
				Amount: i,
			},
		}))
	}

	events, err := s.GetEvents(vault, 0, 10)
	require.NoError(err)
	require.Len(events, 5)
	for i, env := range events {
		require.Equal(uint64(i), env.Index)
		require.Equal("deposited", env.Payload.Type())
	}

	// Pagination: start offset and max count both bind.
	events, err = s.GetEvents(vault, 2, 2)
	require.NoError(err)
	require.Len(events, 2)
	require.Equal(uint64(2), events[0].Index)
	require.Equal(uint64(3), events[1].Index)

	// Other vaults see nothing.
	events, err = s.GetEvents(ids.GenerateTestID(), 0, 10)
	require.NoError(err)
	require.Empty(events)
}
