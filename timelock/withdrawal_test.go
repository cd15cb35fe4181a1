// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package timelock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/ids"
)

const testDelay = 48 * time.Hour

func newTestWithdrawal(t *testing.T, now uint64) *Withdrawal {
	t.Helper()

	w, err := New(
		ids.GenerateTestID(),
		1,
		ids.GenerateTestID(),
		2_000_000,
		ids.GenerateTestShortID(),
		"quarterly grant",
		"grants",
		[]ids.ShortID{ids.GenerateTestShortID(), ids.GenerateTestShortID()},
		now,
		testDelay,
	)
	require.NoError(t, err)
	return w
}

func TestNewSnapshotsReadyAt(t *testing.T) {
	require := require.New(t)

	now := uint64(10_000)
	w := newTestWithdrawal(t, now)

	require.Equal(now, w.QueuedAt)
	require.Equal(now+uint64(testDelay/time.Second), w.ReadyAt)
}

func TestNewRejectsZeroAmount(t *testing.T) {
	require := require.New(t)

	_, err := New(
		ids.GenerateTestID(),
		1,
		ids.GenerateTestID(),
		0,
		ids.GenerateTestShortID(),
		"",
		"",
		nil,
		0,
		testDelay,
	)
	require.ErrorIs(err, ErrInvalidAmount)
}

func TestExecuteBeforeMaturity(t *testing.T) {
	require := require.New(t)

	now := uint64(10_000)
	w := newTestWithdrawal(t, now)

	require.ErrorIs(w.Execute(now, false), ErrNotReady)
	require.ErrorIs(w.Execute(w.ReadyAt-1, false), ErrNotReady)
	require.False(w.Executed)

	// Boundary: ready exactly at ReadyAt.
	require.NoError(w.Execute(w.ReadyAt, false))
	require.True(w.Executed)
}

func TestExecuteTwice(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.NoError(w.Execute(w.ReadyAt, false))
	require.ErrorIs(w.Execute(w.ReadyAt, false), ErrAlreadyExecuted)
}

func TestFreezeBlocksMatureWithdrawal(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.NoError(w.SetFrozen(true, 2))

	// Frozen wins over mature: the error says frozen, not ready.
	require.ErrorIs(w.Execute(w.ReadyAt+1000, false), ErrFrozen)

	require.NoError(w.SetFrozen(false, 0))
	require.NoError(w.Execute(w.ReadyAt+1000, false))
}

func TestVaultFreezeBlocksExecute(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.ErrorIs(w.Execute(w.ReadyAt, true), ErrFrozen)
	require.NoError(w.Execute(w.ReadyAt, false))
}

func TestCancelIgnoresFreeze(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.NoError(w.SetFrozen(true, 3))

	require.NoError(w.Cancel())
	require.True(w.Cancelled)

	require.ErrorIs(w.Cancel(), ErrAlreadyCancelled)
	require.ErrorIs(w.Execute(w.ReadyAt, false), ErrAlreadyCancelled)
}

func TestCancelAfterExecute(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.NoError(w.Execute(w.ReadyAt, false))
	require.ErrorIs(w.Cancel(), ErrAlreadyExecuted)
}

func TestSetFrozenOnTerminal(t *testing.T) {
	require := require.New(t)

	w := newTestWithdrawal(t, 0)
	require.NoError(w.Cancel())
	require.ErrorIs(w.SetFrozen(true, 1), ErrAlreadyCancelled)
}

func TestStatusPrecedence(t *testing.T) {
	require := require.New(t)

	now := uint64(10_000)
	w := newTestWithdrawal(t, now)

	require.Equal(StatusPending, w.Status(now))
	require.Equal(StatusReady, w.Status(w.ReadyAt))

	require.NoError(w.SetFrozen(true, 2))
	// Frozen shadows ready.
	require.Equal(StatusFrozen, w.Status(w.ReadyAt))

	require.NoError(w.SetFrozen(false, 0))
	require.NoError(w.Execute(w.ReadyAt, false))
	require.Equal(StatusExecuted, w.Status(w.ReadyAt))
}

func TestTimeRemaining(t *testing.T) {
	require := require.New(t)

	now := uint64(10_000)
	w := newTestWithdrawal(t, now)

	require.Equal(uint64(testDelay/time.Second), w.TimeRemaining(now))
	require.Equal(uint64(1), w.TimeRemaining(w.ReadyAt-1))
	require.Zero(w.TimeRemaining(w.ReadyAt))
	require.Zero(w.TimeRemaining(w.ReadyAt+5000))
}
