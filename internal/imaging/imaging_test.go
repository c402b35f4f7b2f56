// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInspectPNG(t *testing.T) {
	info, err := Inspect(pngBytes(t, 64, 32))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Width != 64 || info.Height != 32 {
		t.Errorf("size = %dx%d", info.Width, info.Height)
	}
	if info.Format != "png" || info.ContentType != "image/png" {
		t.Errorf("format = %s %s", info.Format, info.ContentType)
	}
}

func TestInspectJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 20, 10)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	info, err := Inspect(buf.Bytes())
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Width != 20 || info.Height != 10 || info.ContentType != "image/jpeg" {
		t.Errorf("info = %+v", info)
	}
}

func TestInspectRejectsNonImages(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty": nil,
		"text":  []byte("definitely not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := Inspect(data); !errors.Is(err, ErrNotImage) {
				t.Errorf("err = %v, want ErrNotImage", err)
			}
		})
	}
}
