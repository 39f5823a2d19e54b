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

func TestErrorStringIncludesPath(t *testing.T) {
	e := newErr(MismatchedLength, "want %d, got %d", 4, 2).withPath("Tx").withPath("Inputs[3]")
	got := e.Error()
	want := "molecule: MismatchedLength at Inputs[3].Tx: want 4, got 2"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorIsMatchesKindOnly(t *testing.T) {
	e := newErr(InvalidChar, "bad scalar %d", 0xD800).withPath("C")
	if !errors.Is(e, ErrInvalidChar) {
		t.Errorf("errors.Is should match on kind regardless of path/message")
	}
	if errors.Is(e, ErrOverflow) {
		t.Errorf("errors.Is should not match a different kind")
	}
}

func TestErrorUnwrap(t *testing.T) {
	e := newErr(Message, "inner failure")
	if errors.Unwrap(e) == nil {
		t.Errorf("Unwrap should return the wrapped error")
	}
}

func TestKindStringUnknown(t *testing.T) {
	var k Kind = 999
	if k.String() != "UnknownKind" {
		t.Errorf("got %q", k.String())
	}
}
