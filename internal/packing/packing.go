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

// Package packing holds small generic helpers shared by the property
// tests that exercise spec.md §8's round-trip invariants across every
// fixed-width integer type the codec supports.
package packing

import (
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Unsigned is any Go unsigned integer width the codec packs
// little-endian.
type Unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// LittleEndian packs v into its natural byte width, least significant
// byte first, generically over every unsigned width the codec
// supports — used by tests that walk all of them with one helper
// instead of one copy-pasted case per width.
func LittleEndian[T Unsigned](v T) []byte {
	width := widthOf(v)
	out := make([]byte, width)
	for i := 0; i < width; i++ {
		out[i] = byte(v >> (8 * i))
	}
	return out
}

func widthOf[T Unsigned](v T) int {
	switch any(v).(type) {
	case uint8:
		return 1
	case uint16:
		return 2
	case uint32:
		return 4
	case uint64:
		return 8
	default:
		return 8
	}
}

// EqualParts reports whether two slices of byte slices hold
// byte-identical parts in the same order, used by the fixvec/table
// round-trip properties (spec.md §8 items 1-2).
func EqualParts(a, b [][]byte) bool {
	return slices.EqualFunc(a, b, slices.Equal[byte])
}

// SortedUnsignedKeys returns ks sorted ascending, generic over every
// unsigned width, for tests that need deterministic map iteration
// order when building fixtures.
func SortedUnsignedKeys[T constraints.Unsigned](ks []T) []T {
	out := slices.Clone(ks)
	slices.Sort(out)
	return out
}
