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

import "encoding/binary"

// packU32 appends the little-endian encoding of n to dst and returns
// the grown slice.
func packU32(dst []byte, n uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], n)
	return append(dst, tmp[:]...)
}

// unpackU32 reads a little-endian u32 at offset off in buf.
func unpackU32(buf []byte, off int) (uint32, error) {
	if off < 0 || len(buf)-off < 4 {
		return 0, newErr(LengthNotEnough, "unpackU32: need 4 bytes at offset %d, have %d", off, len(buf)-off)
	}
	return binary.LittleEndian.Uint32(buf[off : off+4]), nil
}

// assembleStruct concatenates parts with no header. It is pure
// concatenation: Molecule structs carry no length or offset prefix.
func assembleStruct(parts [][]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// assembleFixvec builds a Molecule fixvec: a 4-byte item count followed
// by the concatenated, equally-sized items.
func assembleFixvec(parts [][]byte) ([]byte, error) {
	if len(parts) == 0 {
		return []byte{0, 0, 0, 0}, nil
	}
	size := len(parts[0])
	if size == 0 {
		return nil, newErr(AssembleFixvec, "fixvec elements must have nonzero size")
	}
	for _, p := range parts[1:] {
		if len(p) != size {
			return nil, newErr(AssembleFixvec, "fixvec elements must all have the same size (want %d, got %d)", size, len(p))
		}
	}
	out := make([]byte, 0, 4+size*len(parts))
	out = packU32(out, uint32(len(parts)))
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// assembleTable builds a Molecule table/dynvec body: a 4-byte total
// size, one 4-byte offset per part, then the concatenated part bytes.
// Offsets are absolute from the start of the returned buffer.
func assembleTable(parts [][]byte) []byte {
	header := 4 * (len(parts) + 1)
	total := header
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, 0, total)
	out = packU32(out, uint32(total))
	off := header
	for _, p := range parts {
		out = packU32(out, uint32(off))
		off += len(p)
	}
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// disassembleFixvec splits a fixvec body back into its equal-sized
// item slices, borrowing from b.
func disassembleFixvec(b []byte) ([][]byte, error) {
	count, err := unpackU32(b, 0)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	rem := len(b) - 4
	if rem <= 0 {
		return nil, newErr(InvalidFixvec, "fixvec declares %d items but body has %d bytes", count, len(b))
	}
	if uint32(rem)%count != 0 {
		return nil, newErr(InvalidFixvec, "fixvec body length %d not divisible by count %d", rem, count)
	}
	item := uint32(rem) / count
	if item != 0 && uint64(item)*uint64(count) > uint64(^uint32(0)) {
		return nil, kindErr(Overflow)
	}
	out := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		start := 4 + i*item
		out = append(out, b[start:start+item])
	}
	return out, nil
}

// disassembleTable splits a table/dynvec body back into its per-field
// (or per-item) slices, validating every invariant in spec §3 item 2.
func disassembleTable(b []byte) ([][]byte, error) {
	total, err := unpackU32(b, 0)
	if err != nil {
		return nil, err
	}
	if int(total) != len(b) {
		return nil, newErr(InvalidTableLength, "table declares total size %d but buffer has %d bytes", total, len(b))
	}
	if total == 4 {
		return nil, nil
	}
	if total < 8 {
		return nil, newErr(InvalidTableHeader, "table total size %d too small for any field", total)
	}
	first, err := unpackU32(b, 4)
	if err != nil {
		return nil, err
	}
	if first%4 != 0 || first < 8 || first > total {
		return nil, newErr(InvalidTableHeader, "invalid first offset %d (total %d)", first, total)
	}
	count := first/4 - 1
	offsets := make([]uint32, count)
	offsets[0] = first
	prev := first
	for i := uint32(1); i < count; i++ {
		off, err := unpackU32(b, int(4*(i+1)))
		if err != nil {
			return nil, err
		}
		if off < prev || off > total {
			return nil, newErr(InvalidTable, "offset %d out of order or out of range (prev %d, total %d)", off, prev, total)
		}
		offsets[i] = off
		prev = off
	}
	out := make([][]byte, count)
	for i := uint32(0); i < count; i++ {
		start := offsets[i]
		end := total
		if i+1 < count {
			end = offsets[i+1]
		}
		if end < start {
			return nil, kindErr(InvalidTable)
		}
		out[i] = b[start:end]
	}
	return out, nil
}
