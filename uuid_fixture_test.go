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

import (
	"testing"

	"github.com/google/uuid"
)

// uuid.UUID is itself a plain [16]byte array type, which makes it a
// convenient stand-in for Molecule's array[byte;16] shape without
// inventing a synthetic fixed-size array fixture: its reflect.Kind is
// Array the same way [32]byte is, so it exercises exactly the same
// encodeArray/decodeArray path as any other fixed-size byte array
// field, such as a CKB code_hash.
type withUUID struct {
	ID   uuid.UUID
	Name string
}

func TestUUIDArrayFieldRoundTrip(t *testing.T) {
	want := withUUID{ID: uuid.New(), Name: "widget"}
	encoded, err := Encode(want, false)
	if err != nil {
		t.Fatal(err)
	}
	var got withUUID
	if err := Decode(encoded, false, &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != want.ID || got.Name != want.Name {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestUUIDArrayStructMode(t *testing.T) {
	type fixedPair struct {
		A uuid.UUID
		B uuid.UUID
	}
	a, b := uuid.New(), uuid.New()
	want := fixedPair{A: a, B: b}
	encoded, err := Encode(want, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) != 32 {
		t.Fatalf("struct mode of two UUIDs should be exactly 32 bytes, got %d", len(encoded))
	}
	var got fixedPair
	if err := Decode(encoded, true, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
