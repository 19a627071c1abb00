// Package sonyelf implements the Sony ELF32 format: a boot image disguised
// as an ELF32 executable, with one program segment per payload.
package sonyelf

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/barlumicheal/DualBootPatcher/model"
)

const (
	classELF32   = 1
	dataLE       = 1
	evCurrent    = 1
	ptLoad       = 1
	segmentAlign = 4

	minProgramHeaders = 1
	maxProgramHeaders = 16
)

// kind identifies which Image field a program header's payload maps to.
// Stored in p_vaddr; the real load address (when the payload has one)
// travels in p_paddr instead, since the vaddr slot is spent on the kind
// tag for this disguised format.
type kind uint32

const (
	kindCmdline kind = iota
	kindKernel
	kindRamdisk
	kindSecond
	kindDt
	kindIpl
	kindRpm
	kindAppsbl
	kindSinHeader
	kindSin
)

type elfHeader struct {
	Ident     [16]byte
	Type      uint16
	Machine   uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

type progHeader struct {
	Type   uint32
	Offset uint32
	Vaddr  uint32
	Paddr  uint32
	Filesz uint32
	Memsz  uint32
	Flags  uint32
	Align  uint32
}

var (
	ehdrSize = binary.Size(elfHeader{})
	phdrSize = binary.Size(progHeader{})
)

// Codec implements the {IsValid, Load, Create} capability set for Sony
// ELF32 boot images.
type Codec struct{}

var codec = Codec{}

func (Codec) IsValid(data []byte) bool {
	if len(data) < ehdrSize {
		return false
	}
	if !bytes.Equal(data[0:4], []byte{0x7F, 'E', 'L', 'F'}) {
		return false
	}
	if data[4] != classELF32 {
		return false
	}
	var hdr elfHeader
	if err := binary.Read(bytes.NewReader(data[:ehdrSize]), binary.LittleEndian, &hdr); err != nil {
		return false
	}
	return hdr.Phnum >= minProgramHeaders && hdr.Phnum <= maxProgramHeaders
}

// Load walks the program header table and maps each segment by its p_vaddr
// kind tag into the matching Image field.
func (Codec) Load(img *model.Image, data []byte) error {
	if !codec.IsValid(data) {
		return fmt.Errorf("not a sony elf32 boot image")
	}

	var hdr elfHeader
	if err := binary.Read(bytes.NewReader(data[:ehdrSize]), binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("decoding elf header: %w", err)
	}

	img.SetEntrypointAddress(hdr.Entry)

	phOff := int(hdr.Phoff)
	for i := 0; i < int(hdr.Phnum); i++ {
		start := phOff + i*phdrSize
		if start+phdrSize > len(data) {
			return fmt.Errorf("elf program header %d out of bounds", i)
		}

		var ph progHeader
		if err := binary.Read(bytes.NewReader(data[start:start+phdrSize]), binary.LittleEndian, &ph); err != nil {
			return fmt.Errorf("decoding elf program header %d: %w", i, err)
		}

		end := int(ph.Offset) + int(ph.Filesz)
		if end > len(data) {
			return fmt.Errorf("elf program header %d payload out of bounds", i)
		}
		payload := append([]byte(nil), data[ph.Offset:end]...)

		switch kind(ph.Vaddr) {
		case kindCmdline:
			img.SetCmdline(string(payload))
		case kindKernel:
			img.SetKernelImage(payload)
			img.SetKernelAddress(ph.Paddr)
		case kindRamdisk:
			img.SetRamdiskImage(payload)
			img.SetRamdiskAddress(ph.Paddr)
		case kindSecond:
			img.SetSecondBootloaderImage(payload)
			img.SetSecondBootloaderAddress(ph.Paddr)
		case kindDt:
			img.SetDeviceTreeImage(payload)
		case kindIpl:
			img.SetIplImage(payload)
			img.SetIplAddress(ph.Paddr)
		case kindRpm:
			img.SetRpmImage(payload)
			img.SetRpmAddress(ph.Paddr)
		case kindAppsbl:
			img.SetAppsblImage(payload)
			img.SetAppsblAddress(ph.Paddr)
		case kindSinHeader:
			img.SetSinHeader(payload)
		case kindSin:
			img.SetSinImage(payload)
		default:
			// Unknown kind tags are ignored rather than rejected, so a
			// future Sony variant with an extra segment still loads.
		}
	}

	return nil
}

type segment struct {
	kind    kind
	paddr   uint32
	payload []byte
}

// segments returns the present payloads in the fixed canonical order
// Create always emits them in.
func segments(img *model.Image) []segment {
	var segs []segment
	add := func(k kind, paddr uint32, payload []byte) {
		if len(payload) == 0 {
			return
		}
		segs = append(segs, segment{k, paddr, payload})
	}

	add(kindCmdline, 0, []byte(img.Cmdline()))
	add(kindKernel, img.KernelAddress(), img.KernelImage())
	add(kindRamdisk, img.RamdiskAddress(), img.RamdiskImage())
	add(kindSecond, img.SecondBootloaderAddress(), img.SecondBootloaderImage())
	add(kindDt, 0, img.DeviceTreeImage())
	add(kindIpl, img.IplAddress(), img.IplImage())
	add(kindRpm, img.RpmAddress(), img.RpmImage())
	add(kindAppsbl, img.AppsblAddress(), img.AppsblImage())
	add(kindSinHeader, 0, img.SinHeader())
	add(kindSin, 0, img.SinImage())
	return segs
}

func alignUp(n, align int) int {
	if align == 0 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + (align - rem)
}

// Create emits an ELF header with one program header per present payload,
// followed by the payloads themselves, 4-byte aligned.
func (Codec) Create(img *model.Image) ([]byte, error) {
	segs := segments(img)

	var ident [16]byte
	copy(ident[:], []byte{0x7F, 'E', 'L', 'F'})
	ident[4] = classELF32
	ident[5] = dataLE
	ident[6] = evCurrent

	hdr := elfHeader{
		Ident:     ident,
		Type:      2,  // ET_EXEC
		Machine:   40, // EM_ARM, the only Sony ELF32 target in practice
		Version:   1,
		Entry:     img.EntrypointAddress(),
		Phoff:     uint32(ehdrSize),
		Ehsize:    uint16(ehdrSize),
		Phentsize: uint16(phdrSize),
		Phnum:     uint16(len(segs)),
	}

	dataOff := alignUp(ehdrSize+len(segs)*phdrSize, segmentAlign)
	phdrs := make([]progHeader, len(segs))
	offsets := make([]int, len(segs))
	off := dataOff
	for i, s := range segs {
		offsets[i] = off
		phdrs[i] = progHeader{
			Type:   ptLoad,
			Offset: uint32(off),
			Vaddr:  uint32(s.kind),
			Paddr:  s.paddr,
			Filesz: uint32(len(s.payload)),
			Memsz:  uint32(len(s.payload)),
			Align:  segmentAlign,
		}
		off = alignUp(off+len(s.payload), segmentAlign)
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("encoding elf header: %w", err)
	}
	for _, ph := range phdrs {
		if err := binary.Write(&buf, binary.LittleEndian, &ph); err != nil {
			return nil, fmt.Errorf("encoding elf program header: %w", err)
		}
	}
	buf.Write(make([]byte, dataOff-buf.Len()))

	for i, s := range segs {
		buf.Write(make([]byte, offsets[i]-buf.Len()))
		buf.Write(s.payload)
	}
	buf.Write(make([]byte, off-buf.Len()))

	return buf.Bytes(), nil
}
