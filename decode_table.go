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
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strings"
	"unicode/utf8"
)

// decodeCtx is the shared entry point for both decoder roles (C3 table
// mode and C4 struct mode). It only carries Options; table-mode state
// is an immutable borrowed slice threaded through call arguments, and
// struct-mode state (an owned buffer plus cursor) is built fresh by
// decodeStructBytes for each composite it is asked to parse.
type decodeCtx struct {
	opt *Options
}

func (d *decodeCtx) decodeTop(data []byte, isStruct bool, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return newErr(Unimplemented, "Decode: out must be a non-nil pointer, got %T", out)
	}
	elem := rv.Elem()
	if isStruct {
		return d.decodeStructBytes(data, elem, "$", 0)
	}
	return d.decodeValue(data, elem, "$", 0)
}

var charType = reflect.TypeOf(Char(0))

// decodeValue is the table-mode decoder (C3): it interprets data as
// one Molecule composite and recurses per the dispatch table in
// spec.md §4.3.
func (d *decodeCtx) decodeValue(data []byte, rv reflect.Value, path string, depth int) error {
	if depth > d.opt.maxDepth() {
		return newErr(RecursionLimit, "exceeded max recursion depth %d", d.opt.maxDepth()).withPath(path)
	}
	if !rv.CanSet() {
		return newErr(Unimplemented, "cannot decode into unaddressable value").withPath(path)
	}

	if rv.Addr().CanInterface() {
		if uv, ok := rv.Addr().Interface().(UnionValue); ok {
			return d.decodeUnion(data, uv, path, depth)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		if len(data) != 1 {
			return newErr(MismatchedLength, "bool wants 1 byte, got %d", len(data)).withPath(path)
		}
		rv.SetBool(data[0] != 0)
		return nil

	case reflect.Int8:
		if len(data) != 1 {
			return mismatched(path, 1, len(data))
		}
		rv.SetInt(int64(int8(data[0])))
		return nil
	case reflect.Int16:
		if len(data) != 2 {
			return mismatched(path, 2, len(data))
		}
		rv.SetInt(int64(int16(binary.LittleEndian.Uint16(data))))
		return nil
	case reflect.Int32:
		if len(data) != 4 {
			return mismatched(path, 4, len(data))
		}
		if rv.Type() == charType {
			u := binary.LittleEndian.Uint32(data)
			if u > 0x10FFFF || (u >= 0xD800 && u <= 0xDFFF) {
				return kindErr(InvalidChar).withPath(path)
			}
			rv.SetInt(int64(int32(u)))
			return nil
		}
		rv.SetInt(int64(int32(binary.LittleEndian.Uint32(data))))
		return nil
	case reflect.Int64:
		if len(data) != 8 {
			return mismatched(path, 8, len(data))
		}
		rv.SetInt(int64(binary.LittleEndian.Uint64(data)))
		return nil

	case reflect.Uint8:
		if len(data) != 1 {
			return mismatched(path, 1, len(data))
		}
		rv.SetUint(uint64(data[0]))
		return nil
	case reflect.Uint16:
		if len(data) != 2 {
			return mismatched(path, 2, len(data))
		}
		rv.SetUint(uint64(binary.LittleEndian.Uint16(data)))
		return nil
	case reflect.Uint32:
		if len(data) != 4 {
			return mismatched(path, 4, len(data))
		}
		rv.SetUint(uint64(binary.LittleEndian.Uint32(data)))
		return nil
	case reflect.Uint64:
		if len(data) != 8 {
			return mismatched(path, 8, len(data))
		}
		rv.SetUint(binary.LittleEndian.Uint64(data))
		return nil

	case reflect.Float32:
		if len(data) != 4 {
			return mismatched(path, 4, len(data))
		}
		rv.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(data))))
		return nil
	case reflect.Float64:
		if len(data) != 8 {
			return mismatched(path, 8, len(data))
		}
		rv.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(data)))
		return nil

	case reflect.String:
		s, err := decodeByteString(data, d.opt.lossyUTF8())
		if err != nil {
			return wrapPath(path, err)
		}
		rv.SetString(s)
		return nil

	case reflect.Slice:
		return d.decodeSlice(data, rv, path, depth)

	case reflect.Array:
		return d.decodeArray(data, rv, path, depth)

	case reflect.Ptr:
		if len(data) == 0 {
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
		elem := reflect.New(rv.Type().Elem())
		if err := d.decodeValue(data, elem.Elem(), path, depth+1); err != nil {
			return err
		}
		rv.Set(elem)
		return nil

	case reflect.Map:
		return d.decodeMap(data, rv, path, depth)

	case reflect.Struct:
		return d.decodeRecord(data, rv, path, depth)

	default:
		return newErr(Unimplemented, "unsupported Go kind %s", rv.Kind()).withPath(path)
	}
}

func mismatched(path string, want, got int) error {
	return newErr(MismatchedLength, "want %d bytes, got %d", want, got).withPath(path)
}

// decodeByteString validates the fixvec-of-bytes framing shared by
// Molecule strings and raw Bytes vectors: a 4-byte length prefix that
// must equal len(data)-4.
func decodeByteString(data []byte, lossy bool) (string, error) {
	if len(data) < 4 {
		return "", newErr(LengthNotEnough, "byte string header needs 4 bytes, got %d", len(data))
	}
	n, err := unpackU32(data, 0)
	if err != nil {
		return "", err
	}
	if int(n) != len(data)-4 {
		return "", newErr(InvalidFixvec, "byte string declares length %d but body has %d bytes", n, len(data)-4)
	}
	b := data[4:]
	if lossy && !utf8.ValidString(string(b)) {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError)), nil
	}
	return string(b), nil
}

func (d *decodeCtx) decodeSlice(data []byte, rv reflect.Value, path string, depth int) error {
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		if len(data) < 4 {
			return newErr(LengthNotEnough, "bytes header needs 4 bytes, got %d", len(data)).withPath(path)
		}
		n, err := unpackU32(data, 0)
		if err != nil {
			return wrapPath(path, err)
		}
		if int(n) != len(data)-4 {
			return newErr(InvalidFixvec, "bytes declares length %d but body has %d bytes", n, len(data)-4).withPath(path)
		}
		out := make([]byte, n)
		copy(out, data[4:])
		rv.SetBytes(out)
		return nil
	}
	items, err := disassembleFixvec(data)
	if err != nil {
		return wrapPath(path, err)
	}
	out := reflect.MakeSlice(rv.Type(), len(items), len(items))
	for i, item := range items {
		if err := d.decodeStructBytes(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

// decodeDynvecAccess implements the C5 "dynvec" field adapter on
// decode: data is treated as a table whose fields are really
// positional items, each itself decoded in table mode.
func (d *decodeCtx) decodeDynvecAccess(data []byte, rv reflect.Value, path string, depth int) error {
	if rv.Kind() != reflect.Slice {
		return newErr(Unimplemented, "dynvec adapter requires a slice field, got %s", rv.Type()).withPath(path)
	}
	items, err := disassembleTable(data)
	if err != nil {
		return wrapPath(path, err)
	}
	out := reflect.MakeSlice(rv.Type(), len(items), len(items))
	for i, item := range items {
		if err := d.decodeValue(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (d *decodeCtx) decodeArray(data []byte, rv reflect.Value, path string, depth int) error {
	n := rv.Len()
	if n == 0 {
		if len(data) != 0 {
			return kindErr(InvalidArray).withPath(path)
		}
		return nil
	}
	if len(data)%n != 0 {
		return newErr(InvalidArray, "array byte length %d not divisible by element count %d", len(data), n).withPath(path)
	}
	item := len(data) / n
	for i := 0; i < n; i++ {
		sub := data[i*item : (i+1)*item]
		if err := d.decodeStructBytes(sub, rv.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (d *decodeCtx) decodeMap(data []byte, rv reflect.Value, path string, depth int) error {
	entries, err := disassembleTable(data)
	if err != nil {
		return wrapPath(path, err)
	}
	out := reflect.MakeMapWithSize(rv.Type(), len(entries))
	kt := rv.Type().Key()
	vt := rv.Type().Elem()
	for i, e := range entries {
		kv, err := disassembleTable(e)
		if err != nil {
			return wrapPath(path, err)
		}
		if len(kv) != 2 {
			return newErr(InvalidMap, "map entry %d disassembled into %d slices, want 2", i, len(kv)).withPath(path)
		}
		kp := reflect.New(kt).Elem()
		if err := d.decodeValue(kv[0], kp, fmt.Sprintf("%s[%d].key", path, i), depth+1); err != nil {
			return err
		}
		vp := reflect.New(vt).Elem()
		if err := d.decodeValue(kv[1], vp, fmt.Sprintf("%s[%d].value", path, i), depth+1); err != nil {
			return err
		}
		out.SetMapIndex(kp, vp)
	}
	rv.Set(out)
	return nil
}

// decodeRecord implements the "record"/"tuple_struct" host callbacks in
// table mode: disassembleTable, then decode declared fields in order.
// Forward compatibility (spec.md §8 item 4): extra trailing fields in
// data beyond what the Go type declares are simply ignored; a table
// with fewer fields than declared is MismatchedTableFieldCount.
func (d *decodeCtx) decodeRecord(data []byte, rv reflect.Value, path string, depth int) error {
	parts, err := disassembleTable(data)
	if err != nil {
		return wrapPath(path, err)
	}
	fields := reflect.VisibleFields(rv.Type())
	idx := 0
	for _, f := range fields {
		if f.PkgPath != "" || len(f.Index) != 1 {
			continue
		}
		ft := parseFieldTag(f.Tag.Get("molecule"), f.Name)
		if ft.skip {
			continue
		}
		if idx >= len(parts) {
			return newErr(MismatchedTableFieldCount, "table has %d fields, schema declares at least %d", len(parts), idx+1).withPath(path)
		}
		fv := rv.FieldByIndex(f.Index)
		fpath := path + "." + ft.name
		part := parts[idx]
		idx++

		var ferr error
		switch ft.adapter {
		case adapterStruct:
			ferr = d.decodeStructBytes(part, fv, fpath, depth+1)
		case adapterDynvec:
			ferr = d.decodeDynvecAccess(part, fv, fpath, depth+1)
		default:
			ferr = d.decodeValue(part, fv, fpath, depth+1)
		}
		if ferr != nil {
			return ferr
		}
	}
	return nil
}

// decodeUnion implements the "enum" host callback: a 4-byte tag
// followed by the variant payload, decoded in whichever mode that
// variant's own schema type declares.
func (d *decodeCtx) decodeUnion(data []byte, uv UnionValue, path string, depth int) error {
	if len(data) < 4 {
		return newErr(LengthNotEnough, "union needs at least 4 bytes for its tag, got %d", len(data)).withPath(path)
	}
	tag, err := unpackU32(data, 0)
	if err != nil {
		return wrapPath(path, err)
	}
	payloadPtr, structMode, ok := uv.VariantFor(tag)
	if !ok {
		if reg := d.opt.unions(); reg != nil {
			payloadPtr, structMode, ok = reg.Lookup(tag)
		}
	}
	if !ok {
		return newErr(Message, "unknown union tag %d", tag).withPath(path)
	}
	pv := reflect.ValueOf(payloadPtr)
	if pv.Kind() != reflect.Ptr || pv.IsNil() {
		return newErr(Unimplemented, "VariantFor(%d) must return a non-nil pointer", tag).withPath(path)
	}
	if structMode {
		if err := d.decodeStructBytes(data[4:], pv.Elem(), path+".(payload)", depth+1); err != nil {
			return err
		}
	} else if err := d.decodeValue(data[4:], pv.Elem(), path+".(payload)", depth+1); err != nil {
		return err
	}
	uv.AssignVariant(tag, pv.Elem().Interface())
	return nil
}
