package android

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/barlumicheal/DualBootPatcher/model"
)

func newTestImage() *model.Image {
	img := model.New()
	img.SetKernelImage(bytes.Repeat([]byte{0xAA}, 16))
	img.SetRamdiskImage(bytes.Repeat([]byte{0xBB}, 32))
	return img
}

func TestCreateSizeAndHeaderFields(t *testing.T) {
	img := newTestImage()
	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	pageSize := img.PageSize()
	want := int(3 * pageSize) // header page + kernel page + ramdisk page
	if len(data) != want {
		t.Errorf("len(data) = %d, want %d", len(data), want)
	}
	if !bytes.Equal(data[:BootMagicSize], []byte(BootMagic)) {
		t.Error("missing boot magic at offset 0")
	}
	if got := binary.LittleEndian.Uint32(data[8:12]); got != 16 {
		t.Errorf("header kernel_size = %d, want 16", got)
	}
	if got := binary.LittleEndian.Uint32(data[16:20]); got != 32 {
		t.Errorf("header ramdisk_size = %d, want 32", got)
	}
}

func TestLoadCreateRoundTrip(t *testing.T) {
	img := newTestImage()
	img.SetBoardName("grouper")
	img.SetCmdline("console=ttyS0")

	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded := model.New()
	if err := (Codec{}).Load(loaded, data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !img.Equal(loaded) {
		t.Errorf("round trip did not preserve equality:\n got  %s\n want %s", loaded, img)
	}
}

func TestIsValidScansWithinWindow(t *testing.T) {
	data := make([]byte, 600)
	copy(data[100:], []byte(BootMagic))
	if !(Codec{}).IsValid(data) {
		t.Error("IsValid should find magic within the search window")
	}

	if (Codec{}).IsValid(make([]byte, 10)) {
		t.Error("IsValid should reject a buffer that does not contain the magic")
	}
}

func TestCreateTruncatesBoardAndCmdline(t *testing.T) {
	img := newTestImage()
	img.SetBoardName(strings.Repeat("x", BootNameSize+8))
	img.SetCmdline(strings.Repeat("y", BootArgsSize+8))

	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	boardField := data[48 : 48+BootNameSize]
	if !bytes.Equal(boardField, bytes.Repeat([]byte("x"), BootNameSize)) {
		t.Errorf("board field = %q, want %d x's", boardField, BootNameSize)
	}

	cmdlineField := data[64 : 64+BootArgsSize]
	if !bytes.Equal(cmdlineField, bytes.Repeat([]byte("y"), BootArgsSize)) {
		t.Errorf("cmdline field did not truncate to %d bytes", BootArgsSize)
	}
}
