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
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"reflect"

	"golang.org/x/exp/slices"
)

// encoder walks a Go value through reflection and assembles Molecule
// bytes. It carries no growing buffer of its own: every recursive call
// returns the fully assembled bytes for the sub-value it was given,
// and the caller embeds them as an opaque part via assembleStruct,
// assembleFixvec, or assembleTable — exactly the "parents embed child
// output as opaque bytes" lifetime spec.md §3 describes.
type encoder struct {
	opt *Options
}

// encodeTop is the entry point shared by Encode and EncodeWithOptions.
func (e *encoder) encodeTop(v any, isStruct bool) ([]byte, error) {
	if v == nil {
		return nil, newErr(Unimplemented, "cannot encode a nil value")
	}
	return e.encodeValue(reflect.ValueOf(v), isStruct, "$", 0)
}

func (e *encoder) encodeValue(rv reflect.Value, structMode bool, path string, depth int) ([]byte, error) {
	if depth > e.opt.maxDepth() {
		return nil, newErr(RecursionLimit, "exceeded max recursion depth %d", e.opt.maxDepth()).withPath(path)
	}
	if !rv.IsValid() {
		return nil, newErr(Unimplemented, "nil value").withPath(path)
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, newErr(Unimplemented, "nil interface value").withPath(path)
		}
		return e.encodeValue(rv.Elem(), structMode, path, depth)
	}
	if rv.CanInterface() {
		if u, ok := rv.Interface().(Union); ok {
			if structMode {
				return nil, kindErr(InvalidStructField).withPath(path)
			}
			return e.encodeUnion(u, path, depth)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return []byte{1}, nil
		}
		return []byte{0}, nil

	case reflect.Int8:
		return []byte{byte(rv.Int())}, nil
	case reflect.Int16:
		return leInt(uint64(rv.Int()), 2), nil
	case reflect.Int32:
		return leInt(uint64(rv.Int()), 4), nil
	case reflect.Int64:
		return leInt(uint64(rv.Int()), 8), nil

	case reflect.Uint8:
		return []byte{byte(rv.Uint())}, nil
	case reflect.Uint16:
		return leInt(rv.Uint(), 2), nil
	case reflect.Uint32:
		return leInt(rv.Uint(), 4), nil
	case reflect.Uint64:
		return leInt(rv.Uint(), 8), nil

	case reflect.Float32:
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(float32(rv.Float())))
		return b[:], nil
	case reflect.Float64:
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], math.Float64bits(rv.Float()))
		return b[:], nil

	case reflect.Int, reflect.Uint, reflect.Uintptr:
		return nil, newErr(Unimplemented, "type %s has no fixed Molecule width; use an explicit sized integer type", rv.Type()).withPath(path)

	case reflect.String:
		if structMode {
			return nil, kindErr(InvalidStructField).withPath(path)
		}
		s := rv.String()
		out := make([]byte, 0, 4+len(s))
		out = packU32(out, uint32(len(s)))
		out = append(out, s...)
		return out, nil

	case reflect.Ptr:
		if rv.IsNil() {
			if structMode {
				return nil, kindErr(InvalidStructField).withPath(path)
			}
			return []byte{}, nil
		}
		if structMode {
			return nil, kindErr(InvalidStructField).withPath(path)
		}
		return e.encodeValue(rv.Elem(), structMode, path, depth+1)

	case reflect.Slice:
		return e.encodeSlice(rv, structMode, path, depth)

	case reflect.Array:
		return e.encodeArray(rv, path, depth)

	case reflect.Map:
		return e.encodeMap(rv, structMode, path, depth)

	case reflect.Struct:
		parts, err := e.encodeRecordFields(rv, structMode, path, depth)
		if err != nil {
			return nil, err
		}
		if structMode {
			return assembleStruct(parts), nil
		}
		return assembleTable(parts), nil

	default:
		return nil, newErr(Unimplemented, "unsupported Go kind %s", rv.Kind()).withPath(path)
	}
}

func leInt(v uint64, width int) []byte {
	b := make([]byte, width)
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
	return b
}

// encodeSlice handles the "seq" host callback: []byte is the Bytes
// shortcut (equivalent to, but cheaper than, assembling a fixvec of
// individually-encoded u8 elements); everything else is a fixvec of
// struct-mode-encoded elements, all of which must share one byte
// length (AssembleFixvec otherwise).
func (e *encoder) encodeSlice(rv reflect.Value, structMode bool, path string, depth int) ([]byte, error) {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		if structMode {
			return nil, kindErr(InvalidStructField).withPath(path)
		}
		b := rv.Bytes()
		out := make([]byte, 0, 4+len(b))
		out = packU32(out, uint32(len(b)))
		out = append(out, b...)
		return out, nil
	}
	if structMode {
		return nil, kindErr(InvalidStructField).withPath(path)
	}
	n := rv.Len()
	parts := make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := e.encodeValue(rv.Index(i), true, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return nil, err
		}
		parts[i] = b
	}
	out, err := assembleFixvec(parts)
	if err != nil {
		return nil, wrapPath(path, err)
	}
	return out, nil
}

// encodeDynvec implements the C5 "dynvec" field adapter: each element
// is encoded in table mode (not struct mode) and the whole sequence is
// framed with assembleTable instead of assembleFixvec, so elements may
// vary in size.
func (e *encoder) encodeDynvec(rv reflect.Value, path string, depth int) ([]byte, error) {
	if rv.Kind() != reflect.Slice {
		return nil, newErr(Unimplemented, "dynvec adapter requires a slice field, got %s", rv.Type()).withPath(path)
	}
	n := rv.Len()
	parts := make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := e.encodeValue(rv.Index(i), false, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return nil, err
		}
		parts[i] = b
	}
	return assembleTable(parts), nil
}

// encodeArray handles the "tuple" host callback: a fixed-size Go
// array's elements are always encoded in struct mode and concatenated
// with no header, regardless of the enclosing mode. The big_array
// adapter asks for exactly this, so it is accepted as a synonym for
// the default array handling — Go arrays carry no host-framework size
// ceiling to bypass, unlike the source language this was ported from.
func (e *encoder) encodeArray(rv reflect.Value, path string, depth int) ([]byte, error) {
	n := rv.Len()
	parts := make([][]byte, n)
	for i := 0; i < n; i++ {
		b, err := e.encodeValue(rv.Index(i), true, fmt.Sprintf("%s[%d]", path, i), depth+1)
		if err != nil {
			return nil, err
		}
		parts[i] = b
	}
	return assembleStruct(parts), nil
}

type mapEntry struct {
	keyBytes   []byte
	entryBytes []byte
}

// encodeMap implements the "map" host callback: every entry becomes a
// 2-field table {key, value} encoded in table mode, and all entries
// are wrapped with assembleTable. Go map iteration order is randomized,
// so entries are sorted by their encoded key bytes to make the output
// deterministic and round-trip-testable.
func (e *encoder) encodeMap(rv reflect.Value, structMode bool, path string, depth int) ([]byte, error) {
	if structMode {
		return nil, kindErr(InvalidStructField).withPath(path)
	}
	keys := rv.MapKeys()
	entries := make([]mapEntry, 0, len(keys))
	for _, k := range keys {
		kb, err := e.encodeValue(k, false, path+"[key]", depth+1)
		if err != nil {
			return nil, err
		}
		vb, err := e.encodeValue(rv.MapIndex(k), false, path+"[value]", depth+1)
		if err != nil {
			return nil, err
		}
		entries = append(entries, mapEntry{keyBytes: kb, entryBytes: assembleTable([][]byte{kb, vb})})
	}
	slices.SortFunc(entries, func(a, b mapEntry) bool {
		return bytes.Compare(a.keyBytes, b.keyBytes) < 0
	})
	parts := make([][]byte, len(entries))
	for i, ent := range entries {
		parts[i] = ent.entryBytes
	}
	return assembleTable(parts), nil
}

// encodeRecordFields implements the "record" host callback for both
// modes: in struct mode every field is struct-mode-encoded and
// concatenated; in table mode every field is table-mode-encoded and
// framed with assembleTable — unless a field adapter says otherwise.
func (e *encoder) encodeRecordFields(rv reflect.Value, mode bool, path string, depth int) ([][]byte, error) {
	fields := reflect.VisibleFields(rv.Type())
	var parts [][]byte
	for _, f := range fields {
		if f.PkgPath != "" || len(f.Index) != 1 {
			continue // unexported or promoted embedded field
		}
		ft := parseFieldTag(f.Tag.Get("molecule"), f.Name)
		if ft.skip {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		fpath := path + "." + ft.name

		var b []byte
		var err error
		switch ft.adapter {
		case adapterStruct:
			b, err = e.encodeValue(fv, true, fpath, depth+1)
		case adapterDynvec:
			if mode {
				return nil, newErr(InvalidStructField, "dynvec adapter is not valid on a struct-mode field").withPath(fpath)
			}
			b, err = e.encodeDynvec(fv, fpath, depth+1)
		default: // adapterNone, adapterBigArray, adapterMap: default shape already matches
			b, err = e.encodeValue(fv, mode, fpath, depth+1)
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, b)
	}
	return parts, nil
}

// encodeUnion implements the "newtype-variant" / customized-union-tag
// host callback: a 4-byte tag, sequential or customized, followed by
// the payload encoded in whichever mode that variant's own schema type
// declares (a union's variants need not share one shape).
func (e *encoder) encodeUnion(u Union, path string, depth int) ([]byte, error) {
	tag, payload, structMode := u.MoleculeVariant()
	out := packU32(nil, tag)
	if payload == nil {
		return out, nil
	}
	b, err := e.encodeValue(reflect.ValueOf(payload), structMode, path+".(payload)", depth+1)
	if err != nil {
		return nil, err
	}
	return append(out, b...), nil
}
