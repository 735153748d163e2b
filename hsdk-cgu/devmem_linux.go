//go:build linux

package cgu

import (
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const devMem = "/dev/mem"

// Open locates the register blocks for PLL variant v in the flattened device
// tree blob dtb, maps them from /dev/mem and returns a controller. Close
// releases the mappings.
func Open(v Variant, dtb []byte) (*PLL, error) {
	regions, err := FindRegs(dtb, v)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(devMem, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mems [][]byte
	unmapAll := func() {
		for _, m := range mems {
			unix.Munmap(m)
		}
	}

	mem, off, err := mapRegion(f, regions[0])
	if err != nil {
		return nil, err
	}
	mems = append(mems, mem)
	regs := (*PLLRegs)(unsafe.Pointer(&mem[off]))

	var ifdiv *uint32
	if len(regions) > 1 {
		mem, off, err := mapRegion(f, regions[1])
		if err != nil {
			unmapAll()
			return nil, err
		}
		mems = append(mems, mem)
		ifdiv = (*uint32)(unsafe.Pointer(&mem[off]))
	}

	p, err := NewPLL(v, regs, ifdiv)
	if err != nil {
		unmapAll()
		return nil, err
	}
	p.mems = mems
	return p, nil
}

// mapRegion maps one physical register region page-aligned and returns the
// mapping plus the region's byte offset within it.
func mapRegion(f *os.File, r RegRegion) ([]byte, uint32, error) {
	page := uint32(os.Getpagesize())
	base := r.Addr &^ (page - 1)
	off := r.Addr - base

	mem, err := unix.Mmap(int(f.Fd()), int64(base), int(off)+int(r.Size),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, 0, err
	}
	return mem, off, nil
}

// Close unmaps the register blocks mapped by Open. A controller built
// directly with NewPLL owns no mappings and Close is a no-op.
func (p *PLL) Close() error {
	var first error
	for _, m := range p.mems {
		if err := unix.Munmap(m); err != nil && first == nil {
			first = err
		}
	}
	p.mems = nil
	return first
}
