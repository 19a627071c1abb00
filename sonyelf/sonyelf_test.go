package sonyelf

import (
	"bytes"
	"testing"

	"github.com/barlumicheal/DualBootPatcher/model"
)

func TestCreateLoadRoundTrip(t *testing.T) {
	img := model.New()
	img.SetKernelImage(bytes.Repeat([]byte{0xAA}, 16))
	img.SetRamdiskImage(bytes.Repeat([]byte{0xBB}, 32))
	img.SetCmdline("console=ttyS0")
	img.SetIplImage(bytes.Repeat([]byte{0x11}, 4))
	img.SetRpmImage(bytes.Repeat([]byte{0x22}, 4))
	img.SetAppsblImage(bytes.Repeat([]byte{0x33}, 4))
	img.SetEntrypointAddress(0x41000000)

	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !(Codec{}).IsValid(data) {
		t.Fatal("Create output should be recognized by IsValid")
	}

	loaded := model.New()
	if err := (Codec{}).Load(loaded, data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !img.Equal(loaded) {
		t.Error("round trip did not preserve equality")
	}
	if loaded.EntrypointAddress() != img.EntrypointAddress() {
		t.Errorf("EntrypointAddress() = 0x%x, want 0x%x", loaded.EntrypointAddress(), img.EntrypointAddress())
	}
}

func TestIsValidRejectsNonELF(t *testing.T) {
	if (Codec{}).IsValid([]byte("ANDROID!")) {
		t.Error("IsValid should reject non-ELF buffers")
	}
}

func TestSegmentsSkipAbsentPayloads(t *testing.T) {
	img := model.New()
	img.SetKernelImage([]byte{1})
	segs := segments(img)
	if len(segs) != 1 {
		t.Fatalf("len(segments) = %d, want 1 (only kernel present)", len(segs))
	}
	if segs[0].kind != kindKernel {
		t.Errorf("segment kind = %v, want kindKernel", segs[0].kind)
	}
}
