// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/hex"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	vault "github.com/luxfi/vault"
	"github.com/luxfi/vault/utils/json"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	engine, err := vault.New(memdb.New(), log.NoLog{}, metric.NewNoOpRegistry(), nil)
	require.NoError(t, err)
	engine.Clock().Set(time.Unix(1_700_000_000, 0))
	return NewService(engine)
}

func createTestVault(t *testing.T, service *Service, owner ids.ShortID) string {
	t.Helper()

	reply := CreateVaultReply{}
	require.NoError(t, service.CreateVault(&http.Request{}, &CreateVaultArgs{
		Owner:             owner.String(),
		TimeLockDelay:     json.Uint64(48 * 60 * 60),
		LargeTxThreshold:  json.Uint64(1_000_000),
		FreezeThreshold:   json.Uint32(2),
		UnfreezeThreshold: json.Uint32(2),
		RequiredQuorum:    json.Uint32(2),
	}, &reply))
	require.NotEmpty(t, reply.VaultID)
	return reply.VaultID
}

func TestServicePing(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	reply := PingReply{}
	require.NoError(service.Ping(&http.Request{}, &PingArgs{}, &reply))
	require.True(reply.Success)
}

func TestServiceVersion(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	reply := VersionReply{}
	require.NoError(service.Version(&http.Request{}, &VersionArgs{}, &reply))
	require.Equal(vault.Version.String(), reply.Version)
}

func TestServiceCreateAndGetVault(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	owner := ids.GenerateTestShortID()
	vaultID := createTestVault(t, service, owner)

	reply := GetVaultReply{}
	require.NoError(service.GetVault(&http.Request{}, &GetVaultArgs{VaultID: vaultID}, &reply))
	require.Equal(vaultID, reply.VaultID)
	require.Equal(owner.String(), reply.Owner)
	require.Equal(json.Uint32(2), reply.RequiredQuorum)
	require.False(reply.Frozen)
}

func TestServiceRejectsMalformedIDs(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)

	err := service.GetVault(&http.Request{}, &GetVaultArgs{VaultID: "not-an-id"}, &GetVaultReply{})
	require.ErrorContains(err, "invalid vault ID")

	err = service.MintGuardian(&http.Request{}, &MintGuardianArgs{
		VaultID:  ids.GenerateTestID().String(),
		Guardian: "not-an-address",
		Caller:   ids.GenerateTestShortID().String(),
	}, &MintGuardianReply{})
	require.ErrorContains(err, "invalid guardian")
}

func TestServiceDepositAndBalance(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	vaultID := createTestVault(t, service, ids.GenerateTestShortID())
	token := ids.GenerateTestID().String()

	depositReply := DepositReply{}
	require.NoError(service.Deposit(&http.Request{}, &DepositArgs{
		VaultID: vaultID,
		Token:   token,
		Amount:  json.Uint64(5_000_000),
	}, &depositReply))
	require.Equal(json.Uint64(5_000_000), depositReply.Balance)

	balanceReply := GetBalanceReply{}
	require.NoError(service.GetBalance(&http.Request{}, &GetBalanceArgs{
		VaultID: vaultID,
		Token:   token,
	}, &balanceReply))
	require.Equal(json.Uint64(5_000_000), balanceReply.Balance)
}

// TestServiceWithdrawalFlow drives the whole request lifecycle through
// the RPC surface: guardians are minted, a request is created and
// signed to quorum, queued, and executed after the delay.
func TestServiceWithdrawalFlow(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	keys := secp256k1.TestKeys()
	owner := keys[0].Address()
	vaultID := createTestVault(t, service, owner)
	token := ids.GenerateTestID().String()

	for _, key := range keys[1:4] {
		mintReply := MintGuardianReply{}
		require.NoError(service.MintGuardian(&http.Request{}, &MintGuardianArgs{
			VaultID:  vaultID,
			Guardian: key.Address().String(),
			Caller:   owner.String(),
		}, &mintReply))
	}

	require.NoError(service.Deposit(&http.Request{}, &DepositArgs{
		VaultID: vaultID,
		Token:   token,
		Amount:  json.Uint64(10_000_000),
	}, &DepositReply{}))

	createReply := CreateRequestReply{}
	require.NoError(service.CreateRequest(&http.Request{}, &CreateRequestArgs{
		VaultID:   vaultID,
		Token:     token,
		Amount:    json.Uint64(2_000_000),
		Recipient: ids.GenerateTestShortID().String(),
		Reason:    "vendor invoice",
		Category:  "operations",
		Creator:   owner.String(),
	}, &createReply))

	signedBytes, err := hex.DecodeString(createReply.SignedBytes)
	require.NoError(err)

	for i, key := range keys[1:3] {
		sig, err := key.SignHash(hash.ComputeHash256(signedBytes))
		require.NoError(err)

		sigReply := AddSignatureReply{}
		require.NoError(service.AddSignature(&http.Request{}, &AddSignatureArgs{
			RequestID: createReply.RequestID,
			Signer:    key.Address().String(),
			Signature: hex.EncodeToString(sig),
		}, &sigReply))
		require.Equal(json.Uint32(uint32(i+1)), sigReply.Signatures)
		require.Equal(i == 1, sigReply.Approved)
	}

	queueReply := QueueReply{}
	require.NoError(service.Queue(&http.Request{}, &QueueArgs{
		VaultID:   vaultID,
		RequestID: createReply.RequestID,
	}, &queueReply))
	require.Equal(json.Uint64(1), queueReply.WithdrawalID)

	service.engine.Clock().Advance(48 * time.Hour)

	execReply := ExecuteReply{}
	require.NoError(service.Execute(&http.Request{}, &ExecuteArgs{
		VaultID:      vaultID,
		WithdrawalID: queueReply.WithdrawalID,
		Caller:       owner.String(),
	}, &execReply))

	balanceReply := GetBalanceReply{}
	require.NoError(service.GetBalance(&http.Request{}, &GetBalanceArgs{
		VaultID: vaultID,
		Token:   token,
	}, &balanceReply))
	require.Equal(json.Uint64(8_000_000), balanceReply.Balance)
}

func TestServiceGetEventsPaging(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	vaultID := createTestVault(t, service, ids.GenerateTestShortID())
	token := ids.GenerateTestID().String()

	for _, amount := range []json.Uint64{1_000, 2_000} {
		require.NoError(service.Deposit(&http.Request{}, &DepositArgs{
			VaultID: vaultID,
			Token:   token,
			Amount:  amount,
		}, &DepositReply{}))
	}

	// A zero maxCount falls back to the default page size.
	reply := GetEventsReply{}
	require.NoError(service.GetEvents(&http.Request{}, &GetEventsArgs{
		VaultID: vaultID,
	}, &reply))
	require.Len(reply.Events, 2)
	require.Equal(json.Uint64(0), reply.Events[0].Index)
	require.Equal("deposited", reply.Events[0].Type)

	reply = GetEventsReply{}
	require.NoError(service.GetEvents(&http.Request{}, &GetEventsArgs{
		VaultID:  vaultID,
		Start:    json.Uint64(1),
		MaxCount: json.Uint32(1),
	}, &reply))
	require.Len(reply.Events, 1)
	require.Equal(json.Uint64(1), reply.Events[0].Index)
}

func TestServiceNewServer(t *testing.T) {
	require := require.New(t)

	service := newTestService(t)
	handler, err := NewServer(service.engine)
	require.NoError(err)
	require.NotNil(handler)
}
