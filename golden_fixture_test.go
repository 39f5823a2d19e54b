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
	"testing"

	"github.com/nervosnetwork/molecule-go/internal/golden"
)

// TestGoldenTableFixtureRoundTrip exercises internal/golden against the
// spec's literal five-field table fixture (lengths 6,4,6,5,7): the raw
// fixture is zstd-compressed the way a large golden corpus would be
// checked in, then recovered through golden.Read before being handed to
// disassembleTable, so the compress/decompress path is the one that
// actually produces the bytes under test rather than a parallel one.
func TestGoldenTableFixtureRoundTrip(t *testing.T) {
	lens := []int{6, 4, 6, 5, 7}
	parts := make([][]byte, len(lens))
	for i, l := range lens {
		p := make([]byte, l)
		for j := range p {
			p[j] = byte(i*16 + j)
		}
		parts[i] = p
	}
	raw := assembleTable(parts)

	compressed, err := golden.Compress(raw)
	if err != nil {
		t.Fatal(err)
	}
	recovered, err := golden.Read(bytes.NewReader(compressed))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(recovered, raw) {
		t.Fatalf("golden round trip mismatch: got %x, want %x", recovered, raw)
	}

	got, err := disassembleTable(recovered)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(parts) {
		t.Fatalf("got %d fields, want %d", len(got), len(parts))
	}
	for i, p := range got {
		if !bytes.Equal(p, parts[i]) {
			t.Errorf("field %d: got %x, want %x", i, p, parts[i])
		}
	}
}

// TestGoldenDecompressRejectsCorruptBlob checks that a compressed blob
// which has been truncated fails through golden.Decompress rather than
// silently returning a short read.
func TestGoldenDecompressRejectsCorruptBlob(t *testing.T) {
	raw := bytes.Repeat([]byte{0xAB}, 256)
	compressed, err := golden.Compress(raw)
	if err != nil {
		t.Fatal(err)
	}
	_, err = golden.Decompress(compressed[:len(compressed)-4])
	if err == nil {
		t.Fatal("expected an error decompressing a truncated blob")
	}
}
