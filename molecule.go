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

// Package molecule implements the Molecule binary serialization format
// used throughout the Nervos/CKB ecosystem: a canonical, schema-driven
// format with no in-band type tags, where the layout of every byte is
// derived from the target Go type plus a small set of struct-tag field
// adapters.
//
// Molecule has no self-describing decode: Decode always needs a
// destination value whose type drives the parse, the same way
// encoding/json needs a destination for Unmarshal, except here the
// wire bytes carry no keys or type markers to fall back on at all.
package molecule

import "sigs.k8s.io/yaml"

// Char is a Unicode scalar value stored as Molecule's plain 4-byte
// little-endian int32 on the wire. It decodes exactly like an int32
// field except that the decoded value is additionally validated to be
// a legal Unicode scalar (not a surrogate half, not above U+10FFFF);
// plain int32 fields skip that check. Use Char instead of int32/rune
// wherever a schema's comment calls a field a Unicode code point.
type Char int32

// Options controls recursion limits, lossy-UTF8 decoding, and the
// customized-union registry consulted for field adapter 5
// ("customized union tag").
type Options struct {
	// MaxDepth bounds recursive descent through nested composites.
	// spec.md leaves this as an open question (the reference
	// implementation has no limit); this package defaults to 64,
	// deep enough for any realistic CKB schema and shallow enough to
	// never come close to exhausting a goroutine stack on adversarial
	// input. Zero means "use the default", not "unbounded" — there is
	// no unbounded mode.
	MaxDepth int

	// LossyUTF8, when true, replaces malformed UTF-8 byte sequences in
	// decoded Molecule strings with the replacement character. When
	// false, the string bytes are stored in the Go string unchanged;
	// malformed UTF-8 is not rejected in either mode.
	LossyUTF8 bool

	// Unions resolves customized union tags (field adapter 5) during
	// decode. It is consulted only when the destination's own
	// UnionValue.VariantFor does not recognize the wire tag.
	Unions *UnionRegistry
}

const defaultMaxDepth = 64

// DefaultOptions returns the Options used by Encode and Decode.
func DefaultOptions() *Options {
	return &Options{MaxDepth: defaultMaxDepth}
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return defaultMaxDepth
	}
	return o.MaxDepth
}

func (o *Options) lossyUTF8() bool { return o != nil && o.LossyUTF8 }

func (o *Options) unions() *UnionRegistry {
	if o == nil {
		return nil
	}
	return o.Unions
}

// yamlOptions is the on-disk shape accepted by LoadOptions. It exists
// separately from Options because UnionRegistry has no meaningful YAML
// representation; customized union factories must still be registered
// in Go code and attached after loading.
type yamlOptions struct {
	MaxDepth  int  `json:"maxDepth,omitempty"`
	LossyUTF8 bool `json:"lossyUTF8,omitempty"`
}

// LoadOptions parses a small YAML configuration document (maxDepth,
// lossyUTF8) into an *Options, using sigs.k8s.io/yaml the way
// Kubernetes-style Go tooling loads YAML: through its JSON tags, by
// converting YAML to JSON and unmarshaling that. This is meant for
// test fixtures and integration harnesses that want to describe a
// family of decode configurations declaratively rather than building
// Options by hand; it is not part of the wire format.
func LoadOptions(doc []byte) (*Options, error) {
	var y yamlOptions
	if err := yaml.Unmarshal(doc, &y); err != nil {
		return nil, newErr(Message, "LoadOptions: %w", err)
	}
	opt := DefaultOptions()
	if y.MaxDepth > 0 {
		opt.MaxDepth = y.MaxDepth
	}
	opt.LossyUTF8 = y.LossyUTF8
	return opt, nil
}

// Encode serializes v into Molecule bytes using the default Options.
// isStruct selects whether the top-level value is encoded as a
// Molecule struct (headerless, fixed-size) or a table (headered,
// offset-indexed); nested values follow the mode rules in spec.md §4.2.
func Encode(v any, isStruct bool) ([]byte, error) {
	return EncodeWithOptions(v, isStruct, nil)
}

// EncodeWithOptions is Encode with an explicit Options.
func EncodeWithOptions(v any, isStruct bool, opt *Options) ([]byte, error) {
	e := &encoder{opt: opt}
	return e.encodeTop(v, isStruct)
}

// Decode parses data into out using the default Options. out must be a
// non-nil pointer. isStruct must match the mode the bytes were encoded
// with; Molecule carries no marker to recover it from the bytes alone.
func Decode(data []byte, isStruct bool, out any) error {
	return DecodeWithOptions(data, isStruct, out, nil)
}

// DecodeWithOptions is Decode with an explicit Options.
func DecodeWithOptions(data []byte, isStruct bool, out any, opt *Options) error {
	d := &decodeCtx{opt: opt}
	return d.decodeTop(data, isStruct, out)
}
