package bootimg

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func newTestImage() *Image {
	img := New()
	img.SetKernelImage(bytes.Repeat([]byte{0xAA}, 16))
	img.SetRamdiskImage(bytes.Repeat([]byte{0xBB}, 32))
	return img
}

func TestCreateDefaultsToAndroid(t *testing.T) {
	img := newTestImage()
	if img.Type() != Android {
		t.Fatalf("Type() = %v, want Android", img.Type())
	}

	data, err := img.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded := New()
	if err := loaded.Load(data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.WasType() != Android {
		t.Errorf("WasType() = %v, want Android", loaded.WasType())
	}
	if !img.Equal(loaded) {
		t.Error("round trip through the dispatcher did not preserve equality")
	}
}

func TestLoadPrefersLokiAndBumpOverAndroid(t *testing.T) {
	for _, typ := range []ImageType{Loki, Bump} {
		img := newTestImage()
		img.SetType(typ)
		data, err := img.Create()
		if err != nil {
			t.Fatalf("Create(%v) error = %v", typ, err)
		}

		loaded := New()
		if err := loaded.Load(data); err != nil {
			t.Fatalf("Load(%v) error = %v", typ, err)
		}
		if loaded.WasType() != typ {
			t.Errorf("WasType() = %v, want %v (dispatcher must try %v before Android)", loaded.WasType(), typ, typ)
		}
	}
}

func TestLoadUnrecognizedBufferFails(t *testing.T) {
	img := New()
	err := img.Load([]byte("not a boot image"))
	if err == nil {
		t.Fatal("Load() should fail on an unrecognized buffer")
	}
	be, ok := err.(*Error)
	if !ok {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if be.Kind != ParseError {
		t.Errorf("Kind = %v, want ParseError", be.Kind)
	}
}

func TestCreateUnknownTargetType(t *testing.T) {
	img := newTestImage()
	img.SetType(ImageType(99))
	_, err := img.Create()
	if err == nil {
		t.Fatal("Create() should fail for an unknown target type")
	}
	be, ok := err.(*Error)
	if !ok || be.Kind != UnknownTargetType {
		t.Fatalf("error = %v, want *Error{Kind: UnknownTargetType}", err)
	}
}

func TestLoadFailurePoisonsNothing(t *testing.T) {
	img := newTestImage()
	img.SetBoardName("keep-me")

	if err := img.Load([]byte("garbage")); err == nil {
		t.Fatal("expected Load() to fail")
	}
	if img.BoardName() != "keep-me" {
		t.Error("a failed Load should not mutate the receiver")
	}
}

func TestLoadFileCreateFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boot.img")

	img := newTestImage()
	if err := img.CreateFile(path); err != nil {
		t.Fatalf("CreateFile() error = %v", err)
	}

	loaded := New()
	if err := loaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !img.Equal(loaded) {
		t.Error("file round trip did not preserve equality")
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("output file missing: %v", err)
	}
}
