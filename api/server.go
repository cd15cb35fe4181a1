// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"

	"github.com/gorilla/rpc/v2"

	vault "github.com/luxfi/vault"
	"github.com/luxfi/vault/utils/json"
)

// NewServer returns an http.Handler serving the vault JSON-RPC API under
// the "vault" namespace.
func NewServer(engine *vault.Engine) (http.Handler, error) {
	codec := json.NewCodec()

	server := rpc.NewServer()
	server.RegisterCodec(codec, "application/json")
	server.RegisterCodec(codec, "application/json;charset=UTF-8")
	if err := server.RegisterService(NewService(engine), "vault"); err != nil {
		return nil, err
	}
	return server, nil
}
