// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
)

func newTestRequest(t *testing.T, requiredQuorum uint32) *Request {
	t.Helper()

	intent := Intent{
		Vault:     ids.GenerateTestID(),
		Token:     ids.GenerateTestID(),
		Amount:    5_000_000,
		Recipient: ids.GenerateTestShortID(),
		Reason:    "ops payout",
		Category:  "operations",
	}
	r, err := NewRequest(ids.GenerateTestID(), intent, requiredQuorum, ids.GenerateTestShortID(), 1000)
	require.NoError(t, err)
	return r
}

func TestNewRequestRejectsZeroQuorum(t *testing.T) {
	require := require.New(t)

	_, err := NewRequest(ids.GenerateTestID(), Intent{}, 0, ids.GenerateTestShortID(), 0)
	require.ErrorIs(err, ErrInvalidQuorum)
}

func TestAddSignatureReachesQuorum(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 2)
	require.Equal(StatusPending, r.Status)

	approved, err := r.AddSignature(ids.GenerateTestShortID(), []byte{1})
	require.NoError(err)
	require.False(approved)
	require.Equal(StatusPending, r.Status)

	// The flip to approved happens in the same call that reaches the
	// quorum.
	approved, err = r.AddSignature(ids.GenerateTestShortID(), []byte{2})
	require.NoError(err)
	require.True(approved)
	require.Equal(StatusApproved, r.Status)
}

func TestAddSignatureDuplicateSigner(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 3)
	signer := ids.GenerateTestShortID()

	_, err := r.AddSignature(signer, []byte{1})
	require.NoError(err)

	_, err = r.AddSignature(signer, []byte{1})
	require.ErrorIs(err, ErrDuplicateSigner)
	require.Len(r.Signatures, 1)
}

func TestAddSignatureAfterApproval(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 1)
	approved, err := r.AddSignature(ids.GenerateTestShortID(), []byte{1})
	require.NoError(err)
	require.True(approved)

	_, err = r.AddSignature(ids.GenerateTestShortID(), []byte{2})
	require.ErrorIs(err, ErrInvalidStatus)
}

func TestRejectOnlyWhilePending(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 1)
	require.NoError(r.Reject())
	require.Equal(StatusRejected, r.Status)

	// Rejection is terminal.
	require.ErrorIs(r.Reject(), ErrInvalidStatus)
	_, err := r.AddSignature(ids.GenerateTestShortID(), []byte{1})
	require.ErrorIs(err, ErrInvalidStatus)
}

func TestMarkExecuted(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 1)

	// Pending requests cannot be executed.
	require.ErrorIs(r.MarkExecuted(7), ErrInvalidStatus)

	_, err := r.AddSignature(ids.GenerateTestShortID(), []byte{1})
	require.NoError(err)

	require.NoError(r.MarkExecuted(7))
	require.Equal(StatusExecuted, r.Status)
	require.Equal(uint64(7), r.ExecutionRef)

	// Executed is terminal.
	require.ErrorIs(r.MarkExecuted(8), ErrInvalidStatus)
	require.ErrorIs(r.Reject(), ErrInvalidStatus)
}

func TestSigners(t *testing.T) {
	require := require.New(t)

	r := newTestRequest(t, 3)
	signer1 := ids.GenerateTestShortID()
	signer2 := ids.GenerateTestShortID()

	_, err := r.AddSignature(signer1, []byte{1})
	require.NoError(err)
	_, err = r.AddSignature(signer2, []byte{2})
	require.NoError(err)

	require.Equal([]ids.ShortID{signer1, signer2}, r.Signers())
	require.True(r.HasSigner(signer1))
	require.False(r.HasSigner(ids.GenerateTestShortID()))
}
