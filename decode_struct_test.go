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
	"errors"
	"testing"
)

func TestStructRoundTrip(t *testing.T) {
	type point struct {
		X int32
		Y int32
	}
	want := point{X: -5, Y: 1234}
	encoded, err := Encode(want, true)
	if err != nil {
		t.Fatal(err)
	}
	var got point
	if err := Decode(encoded, true, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStructRejectsTrailingBytes(t *testing.T) {
	type point struct {
		X int32
	}
	var got point
	err := Decode([]byte{1, 0, 0, 0, 2, 0, 0, 0}, true, &got)
	if !errors.Is(err, ErrMismatchedLength) {
		t.Errorf("want ErrMismatchedLength, got %v", err)
	}
}

func TestStructRejectsVariableSizeField(t *testing.T) {
	type bad struct {
		B []byte
	}
	var got bad
	err := Decode([]byte{0, 0, 0, 0}, true, &got)
	if !errors.Is(err, ErrInvalidStructField) {
		t.Errorf("want ErrInvalidStructField, got %v", err)
	}
}

func TestStructArrayRoundTrip(t *testing.T) {
	type withArray struct {
		A [4]uint8
	}
	want := withArray{A: [4]uint8{1, 2, 3, 4}}
	encoded, err := Encode(want, true)
	if err != nil {
		t.Fatal(err)
	}
	var got withArray
	if err := Decode(encoded, true, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestStructNestedStruct(t *testing.T) {
	type inner struct {
		A uint8
		B uint8
	}
	type outer struct {
		I inner
		C uint16
	}
	want := outer{I: inner{A: 1, B: 2}, C: 300}
	encoded, err := Encode(want, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(encoded) != 4 {
		t.Fatalf("struct mode should be exactly 4 bytes, got %d: %x", len(encoded), encoded)
	}
	var got outer
	if err := Decode(encoded, true, &got); err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}
