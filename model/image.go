package model

import (
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// Field widths fixed by the on-disk Android header layout.
const (
	BoardNameSize = 16
	CmdlineSize   = 512
)

// Defaults applied on construction and by the Reset* methods.
const (
	DefaultPageSize      = 2048
	DefaultBase          = 0x10000000
	DefaultKernelOffset  = 0x00008000
	DefaultRamdiskOffset = 0x01000000
	DefaultSecondOffset  = 0x00f00000
	DefaultTagsOffset    = 0x00000100
)

// Image is the intermediate representation of a boot image: every field
// defined by the Android header plus the Sony ELF32 payloads, decoupled
// from any particular on-disk encoding. A zero-value Image is not usable;
// construct one with New.
type Image struct {
	board   string
	cmdline string

	kernelAddr  uint32
	ramdiskAddr uint32
	secondAddr  uint32
	tagsAddr    uint32
	pageSize    uint32

	// entrypoint is the Android header's "unused" slot, repurposed by
	// SonyElf as e_entry. Excluded from Equal (it isn't authoritative
	// in every variant).
	entrypoint uint32

	hdrID   [8]uint32
	idDirty bool

	kernelImage  []byte
	ramdiskImage []byte
	secondImage  []byte
	dtImage      []byte
	abootImage   []byte

	iplAddr       uint32
	rpmAddr       uint32
	appsblAddr    uint32
	iplImage      []byte
	rpmImage      []byte
	appsblImage   []byte
	sonySinImage  []byte
	sonySinHeader []byte

	sourceType    ImageType
	sourceIsValid bool
	targetType    ImageType
}

// New constructs an Image with every field at its documented default.
func New() *Image {
	img := &Image{}
	img.ResetBoardName()
	img.ResetCmdline()
	img.ResetPageSize()
	img.ResetKernelAddress()
	img.ResetRamdiskAddress()
	img.ResetSecondBootloaderAddress()
	img.ResetKernelTagsAddress()
	img.ResetIplAddress()
	img.ResetRpmAddress()
	img.ResetAppsblAddress()
	img.ResetEntrypointAddress()
	img.targetType = Android
	img.idDirty = true
	return img
}

// Clone returns a deep copy of img, payload buffers included.
func (img *Image) Clone() *Image {
	out := *img
	out.kernelImage = append([]byte(nil), img.kernelImage...)
	out.ramdiskImage = append([]byte(nil), img.ramdiskImage...)
	out.secondImage = append([]byte(nil), img.secondImage...)
	out.dtImage = append([]byte(nil), img.dtImage...)
	out.abootImage = append([]byte(nil), img.abootImage...)
	out.iplImage = append([]byte(nil), img.iplImage...)
	out.rpmImage = append([]byte(nil), img.rpmImage...)
	out.appsblImage = append([]byte(nil), img.appsblImage...)
	out.sonySinImage = append([]byte(nil), img.sonySinImage...)
	out.sonySinHeader = append([]byte(nil), img.sonySinHeader...)
	return &out
}

////////////////////////////////////////////////////////////////////////////
// Board name / cmdline
////////////////////////////////////////////////////////////////////////////

func (img *Image) BoardName() string { return img.board }

func (img *Image) SetBoardName(name string) { img.board = name }

func (img *Image) ResetBoardName() { img.board = "" }

func (img *Image) Cmdline() string { return img.cmdline }

func (img *Image) SetCmdline(cmdline string) { img.cmdline = cmdline }

func (img *Image) ResetCmdline() { img.cmdline = "" }

////////////////////////////////////////////////////////////////////////////
// Page size
////////////////////////////////////////////////////////////////////////////

func (img *Image) PageSize() uint32 { return img.pageSize }

func (img *Image) SetPageSize(size uint32) { img.pageSize = size }

func (img *Image) ResetPageSize() { img.pageSize = DefaultPageSize }

////////////////////////////////////////////////////////////////////////////
// Addresses
////////////////////////////////////////////////////////////////////////////

func (img *Image) KernelAddress() uint32        { return img.kernelAddr }
func (img *Image) SetKernelAddress(addr uint32) { img.kernelAddr = addr }
func (img *Image) ResetKernelAddress() {
	img.kernelAddr = DefaultBase + DefaultKernelOffset
}

func (img *Image) RamdiskAddress() uint32        { return img.ramdiskAddr }
func (img *Image) SetRamdiskAddress(addr uint32) { img.ramdiskAddr = addr }
func (img *Image) ResetRamdiskAddress() {
	img.ramdiskAddr = DefaultBase + DefaultRamdiskOffset
}

func (img *Image) SecondBootloaderAddress() uint32        { return img.secondAddr }
func (img *Image) SetSecondBootloaderAddress(addr uint32) { img.secondAddr = addr }
func (img *Image) ResetSecondBootloaderAddress() {
	img.secondAddr = DefaultBase + DefaultSecondOffset
}

func (img *Image) KernelTagsAddress() uint32        { return img.tagsAddr }
func (img *Image) SetKernelTagsAddress(addr uint32) { img.tagsAddr = addr }
func (img *Image) ResetKernelTagsAddress() {
	img.tagsAddr = DefaultBase + DefaultTagsOffset
}

func (img *Image) IplAddress() uint32        { return img.iplAddr }
func (img *Image) SetIplAddress(addr uint32) { img.iplAddr = addr }
func (img *Image) ResetIplAddress()          { img.iplAddr = 0 }

func (img *Image) RpmAddress() uint32        { return img.rpmAddr }
func (img *Image) SetRpmAddress(addr uint32) { img.rpmAddr = addr }
func (img *Image) ResetRpmAddress()          { img.rpmAddr = 0 }

func (img *Image) AppsblAddress() uint32        { return img.appsblAddr }
func (img *Image) SetAppsblAddress(addr uint32) { img.appsblAddr = addr }
func (img *Image) ResetAppsblAddress()          { img.appsblAddr = 0 }

func (img *Image) EntrypointAddress() uint32        { return img.entrypoint }
func (img *Image) SetEntrypointAddress(addr uint32) { img.entrypoint = addr }
func (img *Image) ResetEntrypointAddress()          { img.entrypoint = 0 }

// SetAddresses assigns the four Android addresses from a base and four
// offsets: [addr] = [base] + [offset].
func (img *Image) SetAddresses(base, kernelOffset, ramdiskOffset, secondOffset, tagsOffset uint32) {
	img.SetKernelAddress(base + kernelOffset)
	img.SetRamdiskAddress(base + ramdiskOffset)
	img.SetSecondBootloaderAddress(base + secondOffset)
	img.SetKernelTagsAddress(base + tagsOffset)
}

////////////////////////////////////////////////////////////////////////////
// Payloads (Android family)
////////////////////////////////////////////////////////////////////////////

func (img *Image) KernelImage() []byte { return img.kernelImage }
func (img *Image) SetKernelImage(data []byte) {
	img.kernelImage = data
	img.idDirty = true
}
func (img *Image) KernelSize() uint32 { return uint32(len(img.kernelImage)) }

func (img *Image) RamdiskImage() []byte { return img.ramdiskImage }
func (img *Image) SetRamdiskImage(data []byte) {
	img.ramdiskImage = data
	img.idDirty = true
}
func (img *Image) RamdiskSize() uint32 { return uint32(len(img.ramdiskImage)) }

func (img *Image) SecondBootloaderImage() []byte { return img.secondImage }
func (img *Image) SetSecondBootloaderImage(data []byte) {
	img.secondImage = data
	img.idDirty = true
}
func (img *Image) SecondBootloaderSize() uint32 { return uint32(len(img.secondImage)) }

func (img *Image) DeviceTreeImage() []byte { return img.dtImage }
func (img *Image) SetDeviceTreeImage(data []byte) {
	img.dtImage = data
	img.idDirty = true
}
func (img *Image) DeviceTreeSize() uint32 { return uint32(len(img.dtImage)) }

func (img *Image) AbootImage() []byte        { return img.abootImage }
func (img *Image) SetAbootImage(data []byte) { img.abootImage = data }

////////////////////////////////////////////////////////////////////////////
// Payloads (Sony ELF32 family)
////////////////////////////////////////////////////////////////////////////

func (img *Image) IplImage() []byte        { return img.iplImage }
func (img *Image) SetIplImage(data []byte) { img.iplImage = data }

func (img *Image) RpmImage() []byte        { return img.rpmImage }
func (img *Image) SetRpmImage(data []byte) { img.rpmImage = data }

func (img *Image) AppsblImage() []byte        { return img.appsblImage }
func (img *Image) SetAppsblImage(data []byte) { img.appsblImage = data }

func (img *Image) SinImage() []byte        { return img.sonySinImage }
func (img *Image) SetSinImage(data []byte) { img.sonySinImage = data }

func (img *Image) SinHeader() []byte        { return img.sonySinHeader }
func (img *Image) SetSinHeader(data []byte) { img.sonySinHeader = data }

////////////////////////////////////////////////////////////////////////////
// Source / target type
////////////////////////////////////////////////////////////////////////////

// WasType returns the format detected on the most recent successful Load.
// Its value is undefined before a Load has succeeded.
func (img *Image) WasType() ImageType { return img.sourceType }

// SetSourceType is called by the dispatcher when a Load succeeds.
func (img *Image) SetSourceType(t ImageType) {
	img.sourceType = t
	img.sourceIsValid = true
}

func (img *Image) Type() ImageType { return img.targetType }

func (img *Image) SetType(t ImageType) { img.targetType = t }

////////////////////////////////////////////////////////////////////////////
// Digest
////////////////////////////////////////////////////////////////////////////

// Digest computes the canonical SHA-1 over the given payloads and their
// little-endian sizes and returns the 20-byte digest; the caller pads it
// into the 32-byte id field.
func Digest(kernel, ramdisk, second, dt []byte) [20]byte {
	h := sha1.New()
	h.Write(kernel)
	writeLE32(h, uint32(len(kernel)))
	h.Write(ramdisk)
	writeLE32(h, uint32(len(ramdisk)))
	h.Write(second)
	writeLE32(h, uint32(len(second)))
	if len(dt) > 0 {
		h.Write(dt)
		writeLE32(h, uint32(len(dt)))
	}
	var out [20]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeLE32(w interface{ Write([]byte) (int, error) }, v uint32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	w.Write(buf[:])
}

// HdrID returns the raw 8-word id field as it currently stands: the id
// read from the header on load (kept verbatim for round-trip fidelity) until a
// payload setter invalidates it, recomputed lazily by EnsureDigest.
func (img *Image) HdrID() [8]uint32 { return img.hdrID }

// SetHdrID installs a raw id field, e.g. as parsed from an on-disk header.
// Does not mark the digest dirty; a loaded id is trusted verbatim.
func (img *Image) SetHdrID(words [8]uint32) {
	img.hdrID = words
	img.idDirty = false
}

// EnsureDigest recomputes and stores the SHA-1 digest if any payload setter
// has been called since the id field was last trusted (loaded or computed).
// The Android codec (and through it Bump and Loki) calls this immediately
// before serializing a header; the Sony ELF32 codec carries no id field.
func (img *Image) EnsureDigest() {
	if !img.idDirty {
		return
	}
	d := Digest(img.kernelImage, img.ramdiskImage, img.secondImage, img.dtImage)
	var words [8]uint32
	for i := 0; i < 5; i++ {
		words[i] = binary.LittleEndian.Uint32(d[i*4 : i*4+4])
	}
	img.hdrID = words
	img.idDirty = false
}

// Digest20 returns the 20-byte SHA-1 proper, independent of the 12 zero
// pad bytes the on-disk id field carries.
func (img *Image) Digest20() [20]byte {
	img.EnsureDigest()
	var out [20]byte
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(out[i*4:i*4+4], img.hdrID[i])
	}
	return out
}

////////////////////////////////////////////////////////////////////////////
// Equality
////////////////////////////////////////////////////////////////////////////

// Equal compares two Images field by field: all payloads, all integral header
// fields except the repurposed entrypoint/"unused" slot, the full id, and
// the two string fields. source/target type are deliberately excluded.
func (img *Image) Equal(other *Image) bool {
	if other == nil {
		return false
	}
	img.EnsureDigest()
	other.EnsureDigest()

	return bytesEqual(img.kernelImage, other.kernelImage) &&
		bytesEqual(img.ramdiskImage, other.ramdiskImage) &&
		bytesEqual(img.secondImage, other.secondImage) &&
		bytesEqual(img.dtImage, other.dtImage) &&
		bytesEqual(img.abootImage, other.abootImage) &&
		bytesEqual(img.iplImage, other.iplImage) &&
		bytesEqual(img.rpmImage, other.rpmImage) &&
		bytesEqual(img.appsblImage, other.appsblImage) &&
		bytesEqual(img.sonySinImage, other.sonySinImage) &&
		bytesEqual(img.sonySinHeader, other.sonySinHeader) &&
		img.kernelAddr == other.kernelAddr &&
		img.ramdiskAddr == other.ramdiskAddr &&
		img.secondAddr == other.secondAddr &&
		img.tagsAddr == other.tagsAddr &&
		img.pageSize == other.pageSize &&
		img.hdrID == other.hdrID &&
		img.board == other.board &&
		img.cmdline == other.cmdline
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (img *Image) String() string {
	return fmt.Sprintf("Image{board=%q page_size=%d kernel=%dB ramdisk=%dB second=%dB dt=%dB source=%s target=%s}",
		img.board, img.pageSize, len(img.kernelImage), len(img.ramdiskImage),
		len(img.secondImage), len(img.dtImage), img.sourceType, img.targetType)
}
