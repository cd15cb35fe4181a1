// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package json

import (
	"net/http"

	"github.com/gorilla/rpc/v2"
	"github.com/gorilla/rpc/v2/json2"
)

// NewCodec returns a json2 codec that reports handler errors as plain
// strings instead of internal error types.
func NewCodec() rpc.Codec {
	return codec{json2.NewCodec()}
}

type codec struct {
	*json2.Codec
}

func (c codec) NewRequest(r *http.Request) rpc.CodecRequest {
	return codecRequest{c.Codec.NewRequest(r)}
}

type codecRequest struct {
	rpc.CodecRequest
}

func (c codecRequest) WriteError(w http.ResponseWriter, status int, err error) {
	c.CodecRequest.WriteError(w, status, &json2.Error{
		Code:    json2.E_INTERNAL,
		Message: err.Error(),
	})
}
