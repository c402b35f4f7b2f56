// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging inspects uploaded template preview images. It reads the
// header only, so a preview is validated without a full decode.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	_ "golang.org/x/image/webp" // register WebP decoder
)

// MaxPixels caps the decoded size to prevent memory bombs.
// 10000x10000 = 100 million pixels, ~400 MB decoded in RGBA.
const MaxPixels = 100_000_000

// ErrNotImage is returned when the bytes are not a supported image format.
var ErrNotImage = errors.New("not a supported image")

// Info describes a preview image.
type Info struct {
	Width       int
	Height      int
	Format      string // "jpeg", "png", "gif" or "webp"
	ContentType string
}

var contentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Inspect decodes the image header of data.
func Inspect(data []byte) (Info, error) {
	if len(data) == 0 {
		return Info{}, ErrNotImage
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: empty dimensions", ErrNotImage)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	ct, ok := contentTypes[format]
	if !ok {
		return Info{}, fmt.Errorf("%w: format %q", ErrNotImage, format)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format, ContentType: ct}, nil
}
