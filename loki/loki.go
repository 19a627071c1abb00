// Package loki implements the Loki post-processing format: an Android boot
// image carrying an extra trailer so that certain locked bootloaders accept
// it. Two input sub-variants exist; this codec always produces the
// new-style trailer on output, as the original tooling's later versions do.
package loki

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/barlumicheal/DualBootPatcher/android"
	"github.com/barlumicheal/DualBootPatcher/model"
	"github.com/cespare/xxhash"
	"github.com/sirupsen/logrus"
)

const (
	Magic = "LOKI"

	// trailerScanWindow bounds the backward scan for the trailer magic to
	// the tail of the buffer, tolerating both full-partition-sized Loki
	// dumps and minimal synthetic fixtures.
	trailerScanWindow = 32 * 1024

	// ramdiskPreamble is the sentinel old-style recovery scans for to
	// locate the boundary between the kernel and the compressed ramdisk.
	ramdiskPreamble = "\x88\x16\x88\x58"

	// sentinelRamdiskSize is the value new-style Create writes into the
	// wrapped Android header's ramdisk_size field; the real size lives
	// in the trailer instead.
	sentinelRamdiskSize = 0
)

type trailer struct {
	Magic           [4]byte
	Recovery        uint32
	FakeSize        uint32
	Pad             [2044]byte
	OrigKernelSize  uint32
	OrigRamdiskSize uint32
	RamdiskAddr     uint32
	Checksum        uint16
	Reserved        uint16
}

var trailerSize = binary.Size(trailer{})

var androidCodec = android.Codec{}

// Codec implements the {IsValid, Load, Create} capability set for Loki.
type Codec struct{}

func findTrailer(data []byte) (int, *trailer, bool) {
	start := 0
	if len(data)-trailerScanWindow > 0 {
		start = len(data) - trailerScanWindow
	}
	idx := bytes.LastIndex(data[start:], []byte(Magic))
	if idx < 0 {
		return 0, nil, false
	}
	off := start + idx
	if off+trailerSize > len(data) {
		return 0, nil, false
	}
	var t trailer
	if err := binary.Read(bytes.NewReader(data[off:off+trailerSize]), binary.LittleEndian, &t); err != nil {
		return 0, nil, false
	}
	return off, &t, true
}

func (Codec) IsValid(data []byte) bool {
	if !androidCodec.IsValid(data) {
		return false
	}
	_, _, ok := findTrailer(data)
	return ok
}

func checksum(t *trailer) uint16 {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, t.Magic)
	binary.Write(&buf, binary.LittleEndian, t.Recovery)
	binary.Write(&buf, binary.LittleEndian, t.FakeSize)
	binary.Write(&buf, binary.LittleEndian, t.Pad)
	binary.Write(&buf, binary.LittleEndian, t.OrigKernelSize)
	binary.Write(&buf, binary.LittleEndian, t.OrigRamdiskSize)
	binary.Write(&buf, binary.LittleEndian, t.RamdiskAddr)
	return uint16(xxhash.Sum64(buf.Bytes()))
}

// Load detects the Loki sub-variant from the trailer and populates img.
func (Codec) Load(img *model.Image, data []byte) error {
	trailerOff, t, ok := findTrailer(data)
	if !ok {
		return fmt.Errorf("loki trailer magic not found in last %d bytes", trailerScanWindow)
	}

	if want := checksum(t); want != t.Checksum {
		logrus.WithFields(logrus.Fields{"expected": want, "stored": t.Checksum}).
			Warn("loki: trailer checksum mismatch; continuing")
	}

	hdrOff, hdr, err := android.ParseHeader(data)
	if err != nil {
		return fmt.Errorf("loki: parsing wrapped android header: %w", err)
	}

	img.SetBoardName(hdr.BoardName())
	img.SetCmdline(hdr.Cmdline())
	img.SetPageSize(hdr.PageSize)
	img.SetKernelAddress(hdr.KernelAddr)
	img.SetRamdiskAddress(hdr.RamdiskAddr)
	img.SetSecondBootloaderAddress(hdr.SecondAddr)
	img.SetKernelTagsAddress(hdr.TagsAddr)
	img.SetEntrypointAddress(hdr.Entrypoint)

	kernelStart := hdrOff + android.HeaderSize + int(android.Padding(uint32(android.HeaderSize), hdr.PageSize))

	if t.OrigKernelSize != 0 || t.OrigRamdiskSize != 0 {
		if err := loadNewStyle(img, data, kernelStart, trailerOff, hdr, t); err != nil {
			return err
		}
	} else {
		if err := loadOldStyle(img, data, kernelStart, trailerOff, hdr, t); err != nil {
			return err
		}
	}

	// Keep the wrapped header's id verbatim, as the Android codec does.
	var idWords [8]uint32
	for i := 0; i < 8; i++ {
		idWords[i] = binary.LittleEndian.Uint32(hdr.ID[i*4 : i*4+4])
	}
	img.SetHdrID(idWords)

	return nil
}

func loadNewStyle(img *model.Image, data []byte, kernelStart, trailerOff int, hdr *android.Header, t *trailer) error {
	kernelEnd := kernelStart + int(t.OrigKernelSize)
	if kernelEnd > len(data) {
		return fmt.Errorf("loki: original kernel size %d overruns buffer", t.OrigKernelSize)
	}
	kernel := append([]byte(nil), data[kernelStart:kernelEnd]...)

	ramdiskStart := kernelStart + int(t.OrigKernelSize) + int(android.Padding(t.OrigKernelSize, hdr.PageSize))
	ramdiskEnd := ramdiskStart + int(t.OrigRamdiskSize)
	if ramdiskEnd > trailerOff || ramdiskEnd > len(data) {
		return fmt.Errorf("loki: original ramdisk size %d overruns buffer", t.OrigRamdiskSize)
	}
	ramdisk := append([]byte(nil), data[ramdiskStart:ramdiskEnd]...)

	img.SetKernelImage(kernel)
	img.SetRamdiskImage(ramdisk)
	img.SetRamdiskAddress(t.RamdiskAddr)

	// The wrapped header's own second/dt fields were never sentineled, so
	// they can be read back at their declared sizes like plain Android.
	pos := ramdiskEnd + int(android.Padding(t.OrigRamdiskSize, hdr.PageSize))
	second, pos, err := readFixedSection(data, pos, hdr.SecondSize, hdr.PageSize, trailerOff)
	if err != nil {
		return fmt.Errorf("loki: second bootloader: %w", err)
	}
	dt, _, err := readFixedSection(data, pos, hdr.DtSize, hdr.PageSize, trailerOff)
	if err != nil {
		return fmt.Errorf("loki: device tree: %w", err)
	}
	img.SetSecondBootloaderImage(second)
	img.SetDeviceTreeImage(dt)

	return nil
}

func readFixedSection(data []byte, pos int, size uint32, pageSize uint32, limit int) ([]byte, int, error) {
	if size == 0 {
		return nil, pos, nil
	}
	end := pos + int(size)
	if end > limit || end > len(data) {
		return nil, pos, fmt.Errorf("declared size %d overruns buffer at offset %d", size, pos)
	}
	section := append([]byte(nil), data[pos:end]...)
	next := end + int(android.Padding(size, pageSize))
	return section, next, nil
}

// loadOldStyle recovers payload boundaries heuristically for early Loki
// producers that wrote zero original sizes.
func loadOldStyle(img *model.Image, data []byte, kernelStart, trailerOff int, hdr *android.Header, t *trailer) error {
	// Step 1: the Loki quirk — the kernel's original load address is
	// found in the trailer's ramdisk-address slot, not a dedicated field.
	img.SetKernelAddress(t.RamdiskAddr)

	// Steps 2-3: kernel end is the ramdisk preamble marker, searched
	// forward from the kernel start; fall back to the first page-aligned
	// block that looks like a compressed ramdisk.
	kernelEnd := bytes.Index(data[kernelStart:trailerOff], []byte(ramdiskPreamble))
	if kernelEnd < 0 {
		kernelEnd = scanForCompressedRamdisk(data, kernelStart, trailerOff, hdr.PageSize)
	} else {
		kernelEnd += kernelStart
	}
	if kernelEnd < 0 || kernelEnd > trailerOff {
		return fmt.Errorf("loki: could not recover kernel/ramdisk boundary in old-style trailer")
	}

	kernel := append([]byte(nil), data[kernelStart:kernelEnd]...)

	// Step 4: ramdisk size is what remains up to the trailer, minus the
	// trailing page-alignment padding.
	raw := data[kernelEnd:trailerOff]
	ramdisk := trimTrailingPadding(raw)

	img.SetKernelImage(kernel)
	img.SetRamdiskImage(ramdisk)
	return nil
}

func scanForCompressedRamdisk(data []byte, start, end int, pageSize uint32) int {
	if pageSize == 0 {
		pageSize = 2048
	}
	for off := start; off+2 <= end; off += int(pageSize) {
		if isCompressedMagic(data[off:]) {
			return off
		}
	}
	return -1
}

func isCompressedMagic(b []byte) bool {
	if len(b) < 2 {
		return false
	}
	if b[0] == 0x1F && b[1] == 0x8B { // gzip
		return true
	}
	if len(b) >= 4 && b[0] == 0x02 && b[1] == 0x21 && b[2] == 0x4C && b[3] == 0x18 { // lz4 legacy
		return true
	}
	return false
}

func trimTrailingPadding(b []byte) []byte {
	i := len(b)
	for i > 0 && b[i-1] == 0 {
		i--
	}
	out := make([]byte, i)
	copy(out, b[:i])
	return out
}

// Create always emits the new-style trailer. The wrapped Android
// header's ramdisk_size/ramdisk_addr are patched to sentinel values — the
// trailer carries the real sizes and address instead.
func (Codec) Create(img *model.Image) ([]byte, error) {
	base, err := androidCodec.Create(img)
	if err != nil {
		return nil, err
	}
	android.PatchRamdiskField(base, sentinelRamdiskSize, img.KernelAddress())

	var t trailer
	copy(t.Magic[:], Magic)
	t.OrigKernelSize = img.KernelSize()
	t.OrigRamdiskSize = img.RamdiskSize()
	t.RamdiskAddr = img.RamdiskAddress()
	t.Checksum = checksum(&t)

	var buf bytes.Buffer
	buf.Write(base)
	if err := binary.Write(&buf, binary.LittleEndian, &t); err != nil {
		return nil, fmt.Errorf("encoding loki trailer: %w", err)
	}
	return buf.Bytes(), nil
}
