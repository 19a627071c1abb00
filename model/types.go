// Package model holds the intermediate representation shared by every boot
// image codec: a format-independent value type plus the digest and equality
// rules that all four on-disk variants agree on.
package model

import "fmt"

// ImageType is the closed set of on-disk boot image variants this library
// understands. It is used both as the recorded source format after a Load
// and as the selectable target format before a Create.
type ImageType int

const (
	Android ImageType = iota
	Loki
	Bump
	SonyElf
)

func (t ImageType) String() string {
	switch t {
	case Android:
		return "android"
	case Loki:
		return "loki"
	case Bump:
		return "bump"
	case SonyElf:
		return "sonyelf"
	default:
		return fmt.Sprintf("ImageType(%d)", int(t))
	}
}

// Valid reports whether t is one of the four defined variants.
func (t ImageType) Valid() bool {
	switch t {
	case Android, Loki, Bump, SonyElf:
		return true
	default:
		return false
	}
}
