// stand for bytes helper
package bx

import "encoding/binary"

var LE = binary.LittleEndian

// All multi-byte integers stored in pages are little-endian.

func U64(b []byte) uint64 { return LE.Uint64(b) }
func I64(b []byte) int64  { return int64(U64(b)) }

func PutU64(b []byte, v uint64) { LE.PutUint64(b, v) }
func PutI64(b []byte, v int64)  { PutU64(b, uint64(v)) }

func U64At(b []byte, off int) uint64       { return U64(b[off:]) }
func I64At(b []byte, off int) int64        { return I64(b[off:]) }
func PutU64At(b []byte, off int, v uint64) { PutU64(b[off:], v) }
func PutI64At(b []byte, off int, v int64)  { PutI64(b[off:], v) }
