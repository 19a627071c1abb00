// Package bump implements the Bump format: a plain Android boot image with
// an 8-byte sentinel trailer appended so that certain bootloaders accept
// flashing it.
package bump

import (
	"bytes"

	"github.com/barlumicheal/DualBootPatcher/android"
	"github.com/barlumicheal/DualBootPatcher/model"
)

// BumpMagic is the sentinel trailer, taken verbatim from the public Bump
// tool's convention (an 8-byte ASCII tag, NUL-padded if shorter).
const BumpMagic = "bump"

const TrailerSize = 8

func trailerBytes() []byte {
	t := make([]byte, TrailerSize)
	copy(t, BumpMagic)
	return t
}

var androidCodec = android.Codec{}

// Codec implements the {IsValid, Load, Create} capability set for Bump.
type Codec struct{}

func (Codec) IsValid(data []byte) bool {
	if len(data) < TrailerSize {
		return false
	}
	if !androidCodec.IsValid(data[:len(data)-TrailerSize]) {
		return false
	}
	return bytes.Equal(data[len(data)-TrailerSize:], trailerBytes())
}

// Load delegates to the Android loader on the buffer with the trailer
// stripped off.
func (Codec) Load(img *model.Image, data []byte) error {
	return androidCodec.Load(img, data[:len(data)-TrailerSize])
}

// Create delegates to the Android creator, then appends the trailer.
func (Codec) Create(img *model.Image) ([]byte, error) {
	out, err := androidCodec.Create(img)
	if err != nil {
		return nil, err
	}
	return append(out, trailerBytes()...), nil
}
