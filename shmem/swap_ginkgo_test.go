package shmem

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/sandialabs/goshmem/cmn"
	"github.com/sandialabs/goshmem/dtype"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestSwapSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "compound swap suite")
}

var _ = Describe("Swap/CSwap/MSwap", func() {
	var (
		rts     []*Runtime
		heaps   [][]byte
		target  uintptr
		cleanup func()
	)

	BeforeEach(func() {
		rts, heaps, cleanup = newTestRuntimes(GinkgoT(), 2, cmn.DefaultConfig())
		target = addrOfTest(heaps[1]) + 512
		binary.LittleEndian.PutUint32(heaps[1][512:516], 7)
	})

	AfterEach(func() { cleanup() })

	It("unconditional swap returns the prior value and installs the new one", func() {
		dst := make([]byte, 4)
		rts[0].Swap(context.Background(), dst, target, 1, i32Bytes(99), dtype.Int32)
		Expect(bytesI32(dst)).To(Equal(int32(7)))
		Expect(binary.LittleEndian.Uint32(heaps[1][512:516])).To(Equal(uint32(99)))
	})

	It("compare-swap only installs the new value on a matching compare", func() {
		dst := make([]byte, 4)
		rts[0].CSwap(context.Background(), dst, target, 1, i32Bytes(0), i32Bytes(55), dtype.Int32)
		Expect(bytesI32(dst)).To(Equal(int32(7)))
		Expect(binary.LittleEndian.Uint32(heaps[1][512:516])).To(Equal(uint32(7)), "mismatched compare must not write")

		rts[0].CSwap(context.Background(), dst, target, 1, i32Bytes(7), i32Bytes(55), dtype.Int32)
		Expect(bytesI32(dst)).To(Equal(int32(7)))
		Expect(binary.LittleEndian.Uint32(heaps[1][512:516])).To(Equal(uint32(55)), "matching compare must write")
	})

	It("masked swap only replaces the masked bits", func() {
		binary.LittleEndian.PutUint32(heaps[1][512:516], 0xF0F0F0F0)
		dst := make([]byte, 4)
		mask := i32Bytes(int32(uint32(0x0000FFFF)))
		rts[0].MSwap(context.Background(), dst, target, 1, mask, i32Bytes(int32(uint32(0xFFFFFFFF))), dtype.Int32)
		Expect(binary.LittleEndian.Uint32(heaps[1][512:516])).To(Equal(uint32(0xF0F0FFFF)))
	})
})
