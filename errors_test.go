// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sprite

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckPixels(t *testing.T) {
	tests := []struct {
		name    string
		pixels  int
		w, h    uint32
		format  PixelFormat
		wantErr error
	}{
		{"ok rgba", 4 * 4 * 4, 4, 4, FormatRGBA8, nil},
		{"ok r8", 6, 3, 2, FormatR8, nil},
		{"short", 4*4*4 - 1, 4, 4, FormatRGBA8, ErrAssetSize},
		{"long", 4*4*4 + 4, 4, 4, FormatBGRA8Srgb, ErrAssetSize},
		{"zero width", 0, 0, 4, FormatRGBA8, ErrAssetDimensions},
		{"undefined format", 16, 2, 2, FormatUndefined, ErrAssetFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPixels("test", make([]byte, tt.pixels), tt.w, tt.h, tt.format)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CheckPixels() = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil {
				return
			}
			var ae *AssetError
			if !errors.As(err, &ae) {
				t.Fatalf("error %T is not *AssetError", err)
			}
			if ae.Width != tt.w || ae.Height != tt.h || ae.Format != tt.format {
				t.Errorf("AssetError fields = %+v", ae)
			}
		})
	}
}

func TestAssetErrorMessage(t *testing.T) {
	err := CheckPixels("atlas load", make([]byte, 10), 2, 2, FormatRGBA8)
	msg := err.Error()
	for _, want := range []string{"atlas load", "2x2", "RGBA8", "got 10", "want 16"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestPipelineBuildError(t *testing.T) {
	err := error(&PipelineBuildError{Mode: ModeArray, Format: "BGRA8UnormSrgb", Stage: "compile", Err: ErrShaderCompile})
	if !errors.Is(err, ErrShaderCompile) {
		t.Error("PipelineBuildError should unwrap to ErrShaderCompile")
	}
	if !strings.Contains(err.Error(), "Array") || !strings.Contains(err.Error(), "compile") {
		t.Errorf("message = %q", err.Error())
	}
}
