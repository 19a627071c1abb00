// Package android implements the baseline AOSP mkbootimg layout: the format
// every other variant in this library either wraps (Bump, Loki) or imitates
// (Sony ELF32).
package android

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/barlumicheal/DualBootPatcher/model"
	"github.com/sirupsen/logrus"
)

// Boot image format constants.
const (
	BootMagic     = "ANDROID!"
	BootMagicSize = 8
	BootNameSize  = model.BoardNameSize
	BootArgsSize  = model.CmdlineSize

	// SearchWindow bounds how far into the buffer IsValid and Load will
	// scan for the magic: byte offsets 0..512 inclusive before giving up.
	SearchWindow = 512
)

// rawHeader mirrors the on-disk Android header byte-for-byte; encoding/binary
// handles the little-endian decode so the layout doesn't depend on the
// host's struct padding rules.
type rawHeader struct {
	Magic       [BootMagicSize]byte
	KernelSize  uint32
	KernelAddr  uint32
	RamdiskSize uint32
	RamdiskAddr uint32
	SecondSize  uint32
	SecondAddr  uint32
	TagsAddr    uint32
	PageSize    uint32
	DtSize      uint32
	Entrypoint  uint32
	Board       [BootNameSize]byte
	Cmdline     [BootArgsSize]byte
	ID          [32]byte
}

var headerSize = binary.Size(rawHeader{})

// HeaderSize is the fixed size in bytes of the on-disk Android header
// block (608 bytes: offset 576 + 32-byte id),
// exported for codecs that wrap this format and need to locate the first
// payload page themselves.
var HeaderSize = headerSize

// Header is the decoded form of rawHeader, exported for the Bump and Loki
// codecs that parse an embedded Android header but apply their own
// semantics on top of it.
type Header struct {
	KernelSize, KernelAddr     uint32
	RamdiskSize, RamdiskAddr   uint32
	SecondSize, SecondAddr     uint32
	TagsAddr, PageSize, DtSize uint32
	Entrypoint                 uint32
	ID                         [32]byte

	board   string
	cmdline string
}

func (h *Header) BoardName() string { return h.board }
func (h *Header) Cmdline() string   { return h.cmdline }

// ParseHeader locates the magic within data and decodes the header that
// follows it, without reading any payload. Returns the absolute offset of
// the header's first byte.
func ParseHeader(data []byte) (int, *Header, error) {
	offset, ok := FindMagic(data)
	if !ok {
		return 0, nil, fmt.Errorf("android magic not found within first %d bytes", SearchWindow)
	}
	if offset+headerSize > len(data) {
		return 0, nil, fmt.Errorf("truncated android header: need %d bytes at offset %d, have %d", headerSize, offset, len(data))
	}

	var raw rawHeader
	if err := binary.Read(bytes.NewReader(data[offset:offset+headerSize]), binary.LittleEndian, &raw); err != nil {
		return 0, nil, fmt.Errorf("decoding android header: %w", err)
	}

	h := &Header{
		KernelSize: raw.KernelSize, KernelAddr: raw.KernelAddr,
		RamdiskSize: raw.RamdiskSize, RamdiskAddr: raw.RamdiskAddr,
		SecondSize: raw.SecondSize, SecondAddr: raw.SecondAddr,
		TagsAddr: raw.TagsAddr, PageSize: raw.PageSize, DtSize: raw.DtSize,
		Entrypoint: raw.Entrypoint, ID: raw.ID,
		board:   cstring(raw.Board[:]),
		cmdline: cstring(raw.Cmdline[:]),
	}
	return offset, h, nil
}

// Padding returns the number of zero bytes needed to align size up to the
// next pageSize boundary, exported for the Bump and Loki codecs.
func Padding(size, pageSize uint32) uint32 { return padding(size, pageSize) }

// Codec implements the {IsValid, Load, Create} capability set for the
// Android format.
type Codec struct{}

// FindMagic locates the BootMagic within the first SearchWindow bytes of
// data, returning its offset. Used by Load and by the Bump/Loki codecs,
// which are supersets of this format.
func FindMagic(data []byte) (int, bool) {
	limit := SearchWindow
	if max := len(data) - BootMagicSize; max < limit {
		limit = max
	}
	for i := 0; i <= limit; i++ {
		if bytes.Equal(data[i:i+BootMagicSize], []byte(BootMagic)) {
			return i, true
		}
	}
	return 0, false
}

func (Codec) IsValid(data []byte) bool {
	_, ok := FindMagic(data)
	return ok
}

func pagesFor(size, pageSize uint32) uint32 {
	if pageSize == 0 || size == 0 {
		return 0
	}
	return (size + pageSize - 1) / pageSize
}

func padding(size, pageSize uint32) uint32 {
	if pageSize == 0 {
		return 0
	}
	rem := size % pageSize
	if rem == 0 {
		return 0
	}
	return pageSize - rem
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}

// Load parses an Android boot image starting at the located magic offset
// and populates img. A digest mismatch is logged, not fatal; the
// on-disk id is kept verbatim for round-trip fidelity.
func (Codec) Load(img *model.Image, data []byte) error {
	offset, hdr, err := ParseHeader(data)
	if err != nil {
		return err
	}

	pos := offset + headerSize + int(padding(uint32(headerSize), hdr.PageSize))

	kernel, pos, err := readSection(data, pos, hdr.KernelSize, hdr.PageSize, "kernel")
	if err != nil {
		return err
	}
	ramdisk, pos, err := readSection(data, pos, hdr.RamdiskSize, hdr.PageSize, "ramdisk")
	if err != nil {
		return err
	}
	second, pos, err := readSection(data, pos, hdr.SecondSize, hdr.PageSize, "second stage bootloader")
	if err != nil {
		return err
	}
	dt, _, err := readSection(data, pos, hdr.DtSize, hdr.PageSize, "device tree")
	if err != nil {
		return err
	}

	expected := model.Digest(kernel, ramdisk, second, dt)
	if !bytes.Equal(expected[:], hdr.ID[:20]) {
		logrus.WithFields(logrus.Fields{
			"expected": fmt.Sprintf("%x", expected),
			"stored":   fmt.Sprintf("%x", hdr.ID[:20]),
		}).Warn("android: header id does not match payload digest; keeping stored id")
	}

	img.SetBoardName(hdr.BoardName())
	img.SetCmdline(hdr.Cmdline())
	img.SetPageSize(hdr.PageSize)
	img.SetKernelAddress(hdr.KernelAddr)
	img.SetRamdiskAddress(hdr.RamdiskAddr)
	img.SetSecondBootloaderAddress(hdr.SecondAddr)
	img.SetKernelTagsAddress(hdr.TagsAddr)
	img.SetEntrypointAddress(hdr.Entrypoint)
	img.SetKernelImage(kernel)
	img.SetRamdiskImage(ramdisk)
	img.SetSecondBootloaderImage(second)
	img.SetDeviceTreeImage(dt)

	var idWords [8]uint32
	for i := 0; i < 8; i++ {
		idWords[i] = binary.LittleEndian.Uint32(hdr.ID[i*4 : i*4+4])
	}
	img.SetHdrID(idWords)

	return nil
}

func readSection(data []byte, pos int, size uint32, pageSize uint32, label string) ([]byte, int, error) {
	if size == 0 {
		return nil, pos, nil
	}
	end := pos + int(size)
	if end > len(data) {
		return nil, pos, fmt.Errorf("truncated %s: need %d bytes at offset %d, have %d", label, size, pos, len(data))
	}
	section := make([]byte, size)
	copy(section, data[pos:end])
	next := pos + int(size) + int(padding(size, pageSize))
	return section, next, nil
}

// Create serializes img as a plain Android boot image.
func (Codec) Create(img *model.Image) ([]byte, error) {
	img.EnsureDigest()

	var hdr rawHeader
	copy(hdr.Magic[:], BootMagic)
	hdr.KernelSize = img.KernelSize()
	hdr.KernelAddr = img.KernelAddress()
	hdr.RamdiskSize = img.RamdiskSize()
	hdr.RamdiskAddr = img.RamdiskAddress()
	hdr.SecondSize = img.SecondBootloaderSize()
	hdr.SecondAddr = img.SecondBootloaderAddress()
	hdr.TagsAddr = img.KernelTagsAddress()
	hdr.PageSize = img.PageSize()
	hdr.DtSize = img.DeviceTreeSize()
	hdr.Entrypoint = img.EntrypointAddress()
	copy(hdr.Board[:], truncate(img.BoardName(), BootNameSize))
	copy(hdr.Cmdline[:], truncate(img.Cmdline(), BootArgsSize))

	idWords := img.HdrID()
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint32(hdr.ID[i*4:i*4+4], idWords[i])
	}

	var buf bytes.Buffer
	if err := binary.Write(&buf, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("encoding android header: %w", err)
	}
	buf.Write(make([]byte, padding(uint32(buf.Len()), hdr.PageSize)))

	writeSection(&buf, img.KernelImage(), hdr.PageSize)
	writeSection(&buf, img.RamdiskImage(), hdr.PageSize)
	writeSection(&buf, img.SecondBootloaderImage(), hdr.PageSize)
	writeSection(&buf, img.DeviceTreeImage(), hdr.PageSize)

	return buf.Bytes(), nil
}

func writeSection(buf *bytes.Buffer, data []byte, pageSize uint32) {
	buf.Write(data)
	buf.Write(make([]byte, padding(uint32(len(data)), pageSize)))
}

// ramdiskSizeOffset and ramdiskAddrOffset are the fixed byte offsets of
// the ramdisk_size/ramdisk_addr fields within the header block, used by
// PatchRamdiskField so the Loki codec can patch them in a buffer this
// package already produced via Create.
const (
	ramdiskSizeOffset = 16
	ramdiskAddrOffset = 20
)

// PatchRamdiskField overwrites the ramdisk_size and ramdisk_addr fields of
// an Android header located at the start of data, leaving every other byte
// (including the actual ramdisk payload written at its real size) intact.
// Used by the Loki codec to install its sentinel values on create while
// the trailer carries the real sizes.
func PatchRamdiskField(data []byte, size, addr uint32) {
	binary.LittleEndian.PutUint32(data[ramdiskSizeOffset:ramdiskSizeOffset+4], size)
	binary.LittleEndian.PutUint32(data[ramdiskAddrOffset:ramdiskAddrOffset+4], addr)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
