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

import "testing"

func TestParseFieldTag(t *testing.T) {
	cases := []struct {
		raw      string
		fallback string
		want     fieldTag
	}{
		{"", "Field", fieldTag{name: "Field"}},
		{"-", "Field", fieldTag{name: "Field", skip: true}},
		{"renamed", "Field", fieldTag{name: "renamed"}},
		{"renamed,struct", "Field", fieldTag{name: "renamed", adapter: adapterStruct}},
		{",dynvec", "Field", fieldTag{name: "Field", adapter: adapterDynvec}},
		{"x,big_array", "Field", fieldTag{name: "x", adapter: adapterBigArray}},
		{"x,map", "Field", fieldTag{name: "x", adapter: adapterMap}},
		{"x,unknown", "Field", fieldTag{name: "x", adapter: adapterNone}},
	}
	for _, c := range cases {
		got := parseFieldTag(c.raw, c.fallback)
		if got != c.want {
			t.Errorf("parseFieldTag(%q, %q) = %+v, want %+v", c.raw, c.fallback, got, c.want)
		}
	}
}

func TestUnionRegistryLookup(t *testing.T) {
	reg := NewUnionRegistry()
	type payload struct{ V uint8 }
	reg.RegisterType(42, true, func() any { return &payload{} })

	p, structMode, ok := reg.Lookup(42)
	if !ok {
		t.Fatal("expected tag 42 to be registered")
	}
	if !structMode {
		t.Error("expected struct mode true")
	}
	if _, isPayload := p.(*payload); !isPayload {
		t.Errorf("got %T, want *payload", p)
	}

	if _, _, ok := reg.Lookup(43); ok {
		t.Error("tag 43 should not be registered")
	}
}

func TestUnionRegistryNilIsEmpty(t *testing.T) {
	var reg *UnionRegistry
	if _, _, ok := reg.Lookup(1); ok {
		t.Error("nil registry should never resolve a tag")
	}
}
