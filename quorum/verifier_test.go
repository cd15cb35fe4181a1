// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package quorum

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luxfi/crypto/hash"
	"github.com/luxfi/crypto/secp256k1"
)

func TestSecp256k1VerifierRecoversSigner(t *testing.T) {
	require := require.New(t)

	keys := secp256k1.TestKeys()
	key := keys[0]
	signedBytes := []byte("spend 5000000 to treasury")

	sig, err := key.SignHash(hash.ComputeHash256(signedBytes))
	require.NoError(err)

	verifier := NewSecp256k1Verifier()
	recovered, err := verifier.Verify(signedBytes, sig)
	require.NoError(err)
	require.Equal(key.Address(), recovered)
}

func TestSecp256k1VerifierWrongBytes(t *testing.T) {
	require := require.New(t)

	keys := secp256k1.TestKeys()
	key := keys[0]

	sig, err := key.SignHash(hash.ComputeHash256([]byte("original intent")))
	require.NoError(err)

	// A signature over different bytes recovers a different address or
	// fails outright; either way it must not authenticate the signer.
	verifier := NewSecp256k1Verifier()
	recovered, err := verifier.Verify([]byte("tampered intent"), sig)
	if err == nil {
		require.NotEqual(key.Address(), recovered)
	} else {
		require.ErrorIs(err, ErrInvalidSignature)
	}
}

func TestSecp256k1VerifierMalformedSignature(t *testing.T) {
	require := require.New(t)

	verifier := NewSecp256k1Verifier()
	_, err := verifier.Verify([]byte("anything"), []byte{0x01, 0x02})
	require.ErrorIs(err, ErrInvalidSignature)
}
