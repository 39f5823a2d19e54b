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

import "fmt"

// Kind enumerates the closed set of ways encoding or decoding a
// Molecule value can fail. The set is intentionally closed: there is
// no general "other" bucket besides Message, which carries errors
// raised by user-written adapter code, unknown union tags, and
// LoadOptions parse failures.
type Kind int

const (
	_ Kind = iota
	MismatchedLength
	LengthNotEnough
	InvalidFixvec
	AssembleFixvec
	InvalidTable
	InvalidTableLength
	InvalidTableHeader
	InvalidTableCount
	MismatchedTableFieldCount
	InvalidArray
	InvalidStructField
	InvalidMap
	InvalidChar
	Overflow
	Unimplemented
	Message
	// RecursionLimit is not part of the closed taxonomy in spec.md §7 —
	// it is this implementation's concrete resolution of the open
	// question in spec.md §5/§9 ("an implementation SHOULD impose a
	// configurable maximum recursion depth"). See Options.MaxDepth.
	RecursionLimit
)

func (k Kind) String() string {
	switch k {
	case MismatchedLength:
		return "MismatchedLength"
	case LengthNotEnough:
		return "LengthNotEnough"
	case InvalidFixvec:
		return "InvalidFixvec"
	case AssembleFixvec:
		return "AssembleFixvec"
	case InvalidTable:
		return "InvalidTable"
	case InvalidTableLength:
		return "InvalidTableLength"
	case InvalidTableHeader:
		return "InvalidTableHeader"
	case InvalidTableCount:
		return "InvalidTableCount"
	case MismatchedTableFieldCount:
		return "MismatchedTableFieldCount"
	case InvalidArray:
		return "InvalidArray"
	case InvalidStructField:
		return "InvalidStructField"
	case InvalidMap:
		return "InvalidMap"
	case InvalidChar:
		return "InvalidChar"
	case Overflow:
		return "Overflow"
	case Unimplemented:
		return "Unimplemented"
	case Message:
		return "Message"
	case RecursionLimit:
		return "RecursionLimit"
	default:
		return "UnknownKind"
	}
}

// Error is the concrete error type returned by every entry point in
// this package. Path records the field/index chain that was being
// encoded or decoded when the failure happened, e.g. "Tx.Inputs[3].Since".
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		if e.Err != nil {
			return fmt.Sprintf("molecule: %s: %s", e.Kind, e.Err)
		}
		return fmt.Sprintf("molecule: %s", e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("molecule: %s at %s: %s", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("molecule: %s at %s", e.Kind, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, SomeKind) work by comparing against a bare Kind
// wrapped as an *Error via kindErr below.
func (e *Error) Is(target error) bool {
	k, ok := target.(*Error)
	return ok && k.Path == "" && k.Err == nil && k.Kind == e.Kind
}

func kindErr(k Kind) *Error { return &Error{Kind: k} }

func newErr(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Err: fmt.Errorf(format, args...)}
}

func (e *Error) withPath(elem string) *Error {
	if e.Path == "" {
		return &Error{Kind: e.Kind, Path: elem, Err: e.Err}
	}
	return &Error{Kind: e.Kind, Path: elem + "." + e.Path, Err: e.Err}
}

// wrapPath prefixes err's path (if it is a *Error produced by this
// package) with elem, and otherwise leaves it untouched.
func wrapPath(elem string, err error) error {
	if err == nil {
		return nil
	}
	if me, ok := err.(*Error); ok {
		return me.withPath(elem)
	}
	return err
}

var (
	// ErrMismatchedLength is returned when a primitive's byte slice
	// does not have exactly the expected width.
	ErrMismatchedLength = kindErr(MismatchedLength)
	// ErrLengthNotEnough is returned when fewer bytes remain than a
	// header or primitive requires.
	ErrLengthNotEnough = kindErr(LengthNotEnough)
	// ErrInvalidFixvec is returned by disassembleFixvec on a malformed header.
	ErrInvalidFixvec = kindErr(InvalidFixvec)
	// ErrAssembleFixvec is returned when fixvec parts have inconsistent lengths.
	ErrAssembleFixvec = kindErr(AssembleFixvec)
	// ErrInvalidTable covers general table offset violations.
	ErrInvalidTable = kindErr(InvalidTable)
	// ErrInvalidTableLength is returned when the declared total size
	// does not equal the slice length.
	ErrInvalidTableLength = kindErr(InvalidTableLength)
	// ErrInvalidTableHeader is returned when the first offset is malformed.
	ErrInvalidTableHeader = kindErr(InvalidTableHeader)
	// ErrInvalidTableCount is the taxonomy's field-count mismatch on
	// encode. No function in this package returns it: the reflect-based
	// encoder always emits exactly the fields the Go type declares.
	ErrInvalidTableCount = kindErr(InvalidTableCount)
	// ErrMismatchedTableFieldCount is returned when a table has fewer
	// fields than the target schema declares.
	ErrMismatchedTableFieldCount = kindErr(MismatchedTableFieldCount)
	// ErrInvalidArray is returned when an array's byte length is not
	// divisible by its declared element count.
	ErrInvalidArray = kindErr(InvalidArray)
	// ErrInvalidStructField is returned when a variable-size value is
	// requested while in struct mode.
	ErrInvalidStructField = kindErr(InvalidStructField)
	// ErrInvalidMap is returned when a map entry does not disassemble
	// into exactly two sub-slices.
	ErrInvalidMap = kindErr(InvalidMap)
	// ErrInvalidChar is returned when a decoded u32 is not a valid
	// Unicode scalar value.
	ErrInvalidChar = kindErr(InvalidChar)
	// ErrOverflow is returned on arithmetic overflow while validating
	// untrusted lengths.
	ErrOverflow = kindErr(Overflow)
	// ErrUnimplemented is returned for Go kinds and values this codec
	// does not support (int/uint without a fixed width, interface or
	// other kinds with no Molecule shape, nil values, a non-pointer
	// Decode destination).
	ErrUnimplemented = kindErr(Unimplemented)
	// ErrRecursionLimit is returned when Options.MaxDepth is exceeded.
	ErrRecursionLimit = kindErr(RecursionLimit)
)
