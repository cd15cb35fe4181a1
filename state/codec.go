// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"math"

	"github.com/luxfi/codec"
	"github.com/luxfi/codec/linearcodec"
	"github.com/luxfi/vault/event"
	"github.com/luxfi/vault/quorum"
	"github.com/luxfi/vault/utils/wrappers"
)

const CodecVersion = 0

// Codec serializes every record family the vault state persists. Event
// payloads are an interface, so each variant registers with the linear
// codec; the registration order is part of the wire format and must never
// change.
var Codec codec.Manager

func init() {
	Codec = codec.NewManager(math.MaxInt)
	lc := linearcodec.NewDefault()

	errs := wrappers.Errs{}
	errs.Add(
		lc.RegisterType(&event.GuardianMinted{}),
		lc.RegisterType(&event.GuardianBurned{}),
		lc.RegisterType(&event.RequestCreated{}),
		lc.RegisterType(&event.SignatureAdded{}),
		lc.RegisterType(&event.RequestApproved{}),
		lc.RegisterType(&event.RequestRejected{}),
		lc.RegisterType(&event.RequestExecuted{}),
		lc.RegisterType(&event.WithdrawalQueued{}),
		lc.RegisterType(&event.WithdrawalExecuted{}),
		lc.RegisterType(&event.WithdrawalCancelled{}),
		lc.RegisterType(&event.FreezeVoteCast{}),
		lc.RegisterType(&event.UnfreezeVoteCast{}),
		lc.RegisterType(&event.FreezeVoteRetracted{}),
		lc.RegisterType(&event.Deposited{}),
		lc.RegisterType(&event.Spent{}),
		lc.RegisterType(&event.ConfigChanged{}),
		Codec.RegisterCodec(CodecVersion, lc),
	)
	if errs.Errored() {
		panic(errs.Err)
	}
}

// IntentBytes is the canonical byte form of a spending intent. Guardians
// sign the hash of these bytes, and the request id is derived from them.
func IntentBytes(intent *quorum.Intent) ([]byte, error) {
	return Codec.Marshal(CodecVersion, intent)
}
