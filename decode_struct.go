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
)

// structCursor is the struct-mode decoder state (C4): an owned buffer
// plus a cursor that only ever moves forward. Struct mode copies its
// input (unlike table mode, which borrows) because advancing the
// cursor is itself a mutation of the decode state, not just a slicing
// operation over an immutable view.
type structCursor struct {
	buf []byte
	pos int
}

func (c *structCursor) take(n int, path string) ([]byte, error) {
	if len(c.buf)-c.pos < n {
		return nil, newErr(LengthNotEnough, "need %d bytes, %d remain", n, len(c.buf)-c.pos).withPath(path)
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// decodeStructBytes is the struct-mode decoder entry point (C4): data
// is interpreted as a single fixed-size composite with no header.
func (d *decodeCtx) decodeStructBytes(data []byte, rv reflect.Value, path string, depth int) error {
	buf := make([]byte, len(data))
	copy(buf, data)
	c := &structCursor{buf: buf}
	if err := d.decodeStructValue(c, rv, path, depth); err != nil {
		return err
	}
	if c.pos != len(c.buf) {
		return newErr(MismatchedLength, "struct left %d unconsumed bytes", len(c.buf)-c.pos).withPath(path)
	}
	return nil
}

func (d *decodeCtx) decodeStructValue(c *structCursor, rv reflect.Value, path string, depth int) error {
	if depth > d.opt.maxDepth() {
		return newErr(RecursionLimit, "exceeded max recursion depth %d", d.opt.maxDepth()).withPath(path)
	}
	if !rv.CanSet() {
		return newErr(Unimplemented, "cannot decode into unaddressable value").withPath(path)
	}

	switch rv.Kind() {
	case reflect.Bool:
		b, err := c.take(1, path)
		if err != nil {
			return err
		}
		rv.SetBool(b[0] != 0)
		return nil

	case reflect.Int8:
		b, err := c.take(1, path)
		if err != nil {
			return err
		}
		rv.SetInt(int64(int8(b[0])))
		return nil
	case reflect.Int16:
		b, err := c.take(2, path)
		if err != nil {
			return err
		}
		rv.SetInt(int64(int16(binary.LittleEndian.Uint16(b))))
		return nil
	case reflect.Int32:
		b, err := c.take(4, path)
		if err != nil {
			return err
		}
		u := binary.LittleEndian.Uint32(b)
		if rv.Type() == charType {
			if u > 0x10FFFF || (u >= 0xD800 && u <= 0xDFFF) {
				return kindErr(InvalidChar).withPath(path)
			}
		}
		rv.SetInt(int64(int32(u)))
		return nil
	case reflect.Int64:
		b, err := c.take(8, path)
		if err != nil {
			return err
		}
		rv.SetInt(int64(binary.LittleEndian.Uint64(b)))
		return nil

	case reflect.Uint8:
		b, err := c.take(1, path)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(b[0]))
		return nil
	case reflect.Uint16:
		b, err := c.take(2, path)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(binary.LittleEndian.Uint16(b)))
		return nil
	case reflect.Uint32:
		b, err := c.take(4, path)
		if err != nil {
			return err
		}
		rv.SetUint(uint64(binary.LittleEndian.Uint32(b)))
		return nil
	case reflect.Uint64:
		b, err := c.take(8, path)
		if err != nil {
			return err
		}
		rv.SetUint(binary.LittleEndian.Uint64(b))
		return nil

	case reflect.Float32:
		b, err := c.take(4, path)
		if err != nil {
			return err
		}
		rv.SetFloat(float64(math.Float32frombits(binary.LittleEndian.Uint32(b))))
		return nil
	case reflect.Float64:
		b, err := c.take(8, path)
		if err != nil {
			return err
		}
		rv.SetFloat(math.Float64frombits(binary.LittleEndian.Uint64(b)))
		return nil

	case reflect.Array:
		n := rv.Len()
		for i := 0; i < n; i++ {
			if err := d.decodeStructValue(c, rv.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1); err != nil {
				return err
			}
		}
		return nil

	case reflect.Struct:
		return d.decodeStructFields(c, rv, path, depth)

	case reflect.String, reflect.Slice, reflect.Ptr, reflect.Map:
		return kindErr(InvalidStructField).withPath(path)

	default:
		return newErr(Unimplemented, "unsupported Go kind %s in struct mode", rv.Kind()).withPath(path)
	}
}

// decodeStructFields implements the "record" host callback in struct
// mode: N values, each decoded by advancing the shared cursor. A field
// carrying the dynvec adapter is rejected with InvalidStructField, since
// a dynvec is variable-size; the struct, big_array and map adapters are
// treated the same as no adapter at all (everything already is struct
// mode).
func (d *decodeCtx) decodeStructFields(c *structCursor, rv reflect.Value, path string, depth int) error {
	fields := reflect.VisibleFields(rv.Type())
	for _, f := range fields {
		if f.PkgPath != "" || len(f.Index) != 1 {
			continue
		}
		ft := parseFieldTag(f.Tag.Get("molecule"), f.Name)
		if ft.skip {
			continue
		}
		fv := rv.FieldByIndex(f.Index)
		fpath := path + "." + ft.name
		if ft.adapter == adapterDynvec {
			return newErr(InvalidStructField, "dynvec adapter is not valid on a struct-mode field").withPath(fpath)
		}
		if err := d.decodeStructValue(c, fv, fpath, depth+1); err != nil {
			return err
		}
	}
	return nil
}
