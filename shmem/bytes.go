package shmem

import (
	"encoding/binary"
	"unsafe"
)

// unsafeBytes views a local address as a byte slice without copying, for
// handing a collective's already-resident payload to the transport as a
// Put source (mirrors region/mmapheap's slice-to-address conversion, run
// in reverse).
func unsafeBytes(addr uintptr, n int) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), n)
}

// int64Bytes and bytesInt64 convert pSync/reduction scalars to and from
// the little-endian wire representation the transport and loopback
// combine logic expect (matching transport/loopback.go's encoding).
func int64Bytes(v int64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))
	return b
}

func bytesInt64(b []byte) int64 {
	return int64(binary.LittleEndian.Uint64(b))
}
