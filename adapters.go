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

import "strings"

// adapterKind is a field-adapter marker recognized through the
// `molecule:"..."` struct tag. It overrides the default composite
// handling that would otherwise be chosen by the field's Go type.
type adapterKind int

const (
	adapterNone adapterKind = iota
	adapterStruct
	adapterDynvec
	adapterBigArray
	adapterMap
)

// fieldTag is the parsed form of a `molecule:"name,adapter"` tag.
type fieldTag struct {
	name    string
	adapter adapterKind
	skip    bool
}

// parseFieldTag mirrors ion/marshal.go's use of strings.Cut on the
// `ion:"name,omitempty"` tag, generalized to molecule's adapter names.
func parseFieldTag(raw string, fallback string) fieldTag {
	ft := fieldTag{name: fallback}
	if raw == "" {
		return ft
	}
	name, rest, hasRest := strings.Cut(raw, ",")
	if name == "-" && !hasRest {
		ft.skip = true
		return ft
	}
	if name != "" {
		ft.name = name
	}
	if hasRest {
		switch rest {
		case "struct":
			ft.adapter = adapterStruct
		case "dynvec":
			ft.adapter = adapterDynvec
		case "big_array":
			ft.adapter = adapterBigArray
		case "map":
			ft.adapter = adapterMap
		}
	}
	return ft
}

// Union is implemented by Go types that represent a Molecule union: a
// 4-byte tag followed by the encoded payload of the selected variant.
// MoleculeVariant returns the tag to encode, the payload value, and
// whether that variant's own schema type is a molecule struct rather
// than a table. A union's variants are not all the same shape — one
// variant may be declared `struct` and another `table` in the same
// schema — so the shape travels with the variant, not with the union
// as a whole.
type Union interface {
	MoleculeVariant() (tag uint32, payload any, structMode bool)
}

// UnionValue is implemented by destination types representing a
// Molecule union during decode. Go has no run-time enum reflection,
// so — per spec.md §9's "decoder must be driven by the target
// schema" rule — the destination type itself must know how to map a
// wire tag to a concrete payload: VariantFor returns a pointer to the
// zero payload value to decode into and that variant's shape (ok=false
// for an unrecognized tag), and AssignVariant stores the fully-decoded
// payload back onto the receiver alongside the tag that produced it.
type UnionValue interface {
	VariantFor(tag uint32) (payloadPtr any, structMode bool, ok bool)
	AssignVariant(tag uint32, payload any)
}

// UnionFactory constructs the zero value that should receive a decoded
// variant's payload for a given tag, along with that variant's shape.
type UnionFactory func(tag uint32) (payloadPtr any, structMode bool, ok bool)

// UnionRegistry maps customized union tags to the Go value that should
// receive the decoded payload, implementing C5 item 5 ("customized
// union tag"). decodeUnion in decode_table.go consults the registry
// attached to Options only for a tag the destination's own VariantFor
// does not recognize; a sequential union whose VariantFor handles every
// position 0..N-1 never reaches it.
type UnionRegistry struct {
	factories map[uint32]UnionFactory
}

// NewUnionRegistry returns an empty registry.
func NewUnionRegistry() *UnionRegistry {
	return &UnionRegistry{factories: make(map[uint32]UnionFactory)}
}

// Register associates a customized tag with a factory that produces
// the Go value to decode the payload into.
func (r *UnionRegistry) Register(tag uint32, f UnionFactory) {
	if r.factories == nil {
		r.factories = make(map[uint32]UnionFactory)
	}
	r.factories[tag] = f
}

// RegisterType is a convenience wrapper around Register for the common
// case where every decode of this tag should produce a fresh pointer
// to the same concrete Go type with a fixed shape.
func (r *UnionRegistry) RegisterType(tag uint32, structMode bool, newPayloadPtr func() any) {
	r.Register(tag, func(uint32) (any, bool, bool) { return newPayloadPtr(), structMode, true })
}

// Lookup resolves a customized union tag to a fresh payload pointer and
// its shape. It is meant to be called from a UnionValue.VariantFor
// implementation that wants to delegate to a shared registry instead
// of a fixed type switch.
func (r *UnionRegistry) Lookup(tag uint32) (payloadPtr any, structMode bool, ok bool) {
	if r == nil || r.factories == nil {
		return nil, false, false
	}
	f, ok := r.factories[tag]
	if !ok {
		return nil, false, false
	}
	return f(tag)
}
