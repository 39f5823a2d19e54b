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

func TestLoadOptionsRoundTrip(t *testing.T) {
	doc := []byte("maxDepth: 12\nlossyUTF8: true\n")
	opt, err := LoadOptions(doc)
	if err != nil {
		t.Fatal(err)
	}
	if opt.MaxDepth != 12 {
		t.Errorf("MaxDepth: got %d, want 12", opt.MaxDepth)
	}
	if !opt.LossyUTF8 {
		t.Error("LossyUTF8: got false, want true")
	}
}

func TestLoadOptionsMaxDepthFallsBackToDefault(t *testing.T) {
	opt, err := LoadOptions([]byte("lossyUTF8: false\n"))
	if err != nil {
		t.Fatal(err)
	}
	if opt.MaxDepth != defaultMaxDepth {
		t.Errorf("MaxDepth: got %d, want default %d", opt.MaxDepth, defaultMaxDepth)
	}
	if opt.maxDepth() != defaultMaxDepth {
		t.Errorf("maxDepth(): got %d, want %d", opt.maxDepth(), defaultMaxDepth)
	}
}

func TestLoadOptionsRejectsMalformedYAML(t *testing.T) {
	_, err := LoadOptions([]byte("maxDepth: [this is not an int\n"))
	if err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

// TestDecodeUnionFallsBackToOptionsRegistry drives the decodeUnion
// path where the destination's own VariantFor rejects the tag and
// decode must fall through to an explicit Options.Unions lookup —
// the "small registry keyed by marker name" mechanism that lets a
// customized union be resolved without the destination type knowing
// every tag itself.
func TestDecodeUnionFallsBackToOptionsRegistry(t *testing.T) {
	const externalTag uint32 = 0xAABBCCDD

	reg := NewUnionRegistry()
	reg.RegisterType(externalTag, true, func() any { return new(registryProbe) })

	encoded, err := EncodeWithOptions(registryUnion{tag: externalTag, payload: registryProbe{V: 7}}, false, nil)
	if err != nil {
		t.Fatal(err)
	}

	var got registryUnion
	if err := DecodeWithOptions(encoded, false, &got, &Options{Unions: reg}); err != nil {
		t.Fatal(err)
	}
	if got.tag != externalTag {
		t.Fatalf("got tag %x, want %x", got.tag, externalTag)
	}
	probe, ok := got.payload.(registryProbe)
	if !ok || probe.V != 7 {
		t.Fatalf("got payload %+v, want registryProbe{V:7}", got.payload)
	}

	// Without the registry attached, the same tag is unresolvable.
	var unresolved registryUnion
	err = Decode(encoded, false, &unresolved)
	if err == nil {
		t.Fatal("expected an error decoding an unregistered tag with no Options.Unions attached")
	}
}

type registryProbe struct {
	V uint32
}

// registryUnion implements Union/UnionValue but always rejects
// VariantFor itself, forcing decodeUnion to consult Options.Unions.
type registryUnion struct {
	tag     uint32
	payload any
}

func (u registryUnion) MoleculeVariant() (tag uint32, payload any, structMode bool) {
	return u.tag, u.payload, true
}

func (u *registryUnion) VariantFor(tag uint32) (payloadPtr any, structMode bool, ok bool) {
	return nil, false, false
}

func (u *registryUnion) AssignVariant(tag uint32, payload any) {
	u.tag = tag
	u.payload = payload
}
