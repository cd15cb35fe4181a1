// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package json provides string-quoted JSON encodings for the unsigned
// integer types used throughout the vault API. Amounts and timestamps are
// always transported as strings to avoid precision loss in JavaScript
// consumers. The protocol has no floating-point quantities.
package json

import "strconv"

const Null = "null"

// unquote strips a surrounding pair of double quotes, if present.
func unquote(str string) string {
	if len(str) >= 2 {
		if last := len(str) - 1; str[0] == '"' && str[last] == '"' {
			return str[1:last]
		}
	}
	return str
}

// Uint32 is a uint32 that JSON marshals as a string.
type Uint32 uint32

func (u Uint32) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint32) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == Null {
		return nil
	}
	val, err := strconv.ParseUint(unquote(str), 10, 32)
	*u = Uint32(val)
	return err
}

// Uint64 is a uint64 that JSON marshals as a string.
type Uint64 uint64

func (u Uint64) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(u), 10) + `"`), nil
}

func (u *Uint64) UnmarshalJSON(b []byte) error {
	str := string(b)
	if str == Null {
		return nil
	}
	val, err := strconv.ParseUint(unquote(str), 10, 64)
	*u = Uint64(val)
	return err
}
