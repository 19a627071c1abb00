package bump

import (
	"bytes"
	"testing"

	"github.com/barlumicheal/DualBootPatcher/android"
	"github.com/barlumicheal/DualBootPatcher/model"
)

func newTestImage() *model.Image {
	img := model.New()
	img.SetKernelImage(bytes.Repeat([]byte{0xAA}, 16))
	img.SetRamdiskImage(bytes.Repeat([]byte{0xBB}, 32))
	return img
}

func TestCreateAppendsTrailer(t *testing.T) {
	img := newTestImage()
	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !bytes.Equal(data[len(data)-TrailerSize:], trailerBytes()) {
		t.Error("output does not end with the bump trailer")
	}
}

func TestLoadCreateRoundTrip(t *testing.T) {
	img := newTestImage()
	data, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	loaded := model.New()
	if err := (Codec{}).Load(loaded, data); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !img.Equal(loaded) {
		t.Error("round trip did not preserve equality")
	}
}

func TestCrossWrappingEquality(t *testing.T) {
	img := newTestImage()

	plain, err := (android.Codec{}).Create(img)
	if err != nil {
		t.Fatalf("android Create() error = %v", err)
	}
	bumped, err := (Codec{}).Create(img)
	if err != nil {
		t.Fatalf("bump Create() error = %v", err)
	}

	loadedPlain := model.New()
	if err := (android.Codec{}).Load(loadedPlain, plain); err != nil {
		t.Fatalf("android Load() error = %v", err)
	}
	loadedBumped := model.New()
	if err := (Codec{}).Load(loadedBumped, bumped); err != nil {
		t.Fatalf("bump Load() error = %v", err)
	}

	if !loadedPlain.Equal(loadedBumped) {
		t.Error("an Android image and its Bumped counterpart should load equal")
	}
}
