package vision

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"
)

// encodePNG renders a solid-color image of the given size as PNG bytes.
func encodePNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	return buf.Bytes()
}

func TestPreprocess(t *testing.T) {
	t.Run("produces fixed-length CHW tensor", func(t *testing.T) {
		data := encodePNG(t, 640, 480, color.RGBA{R: 120, G: 30, B: 200, A: 255})

		tensor, err := Preprocess(data)
		if err != nil {
			t.Fatalf("Preprocess returned error: %v", err)
		}

		if len(tensor) != TensorLen {
			t.Errorf("tensor length = %d, want %d", len(tensor), TensorLen)
		}
	})

	t.Run("normalizes with the fixed channel constants", func(t *testing.T) {
		// A solid white image: every pixel is 1.0 before normalization, so
		// each channel plane should be uniformly (1 - mean) / std.
		data := encodePNG(t, 320, 320, color.RGBA{R: 255, G: 255, B: 255, A: 255})

		tensor, err := Preprocess(data)
		if err != nil {
			t.Fatalf("Preprocess returned error: %v", err)
		}

		plane := cropSize * cropSize
		want := [3]float64{
			(1 - 0.485) / 0.229,
			(1 - 0.456) / 0.224,
			(1 - 0.406) / 0.225,
		}

		const tol = 1e-4
		for ch := 0; ch < 3; ch++ {
			got := float64(tensor[ch*plane])
			if math.Abs(got-want[ch]) > tol {
				t.Errorf("channel %d first value = %f, want %f", ch, got, want[ch])
			}
		}
	})

	t.Run("portrait and landscape both crop to the same square", func(t *testing.T) {
		portrait := encodePNG(t, 300, 900, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		landscape := encodePNG(t, 900, 300, color.RGBA{R: 10, G: 20, B: 30, A: 255})

		pt, err := Preprocess(portrait)
		if err != nil {
			t.Fatalf("portrait: %v", err)
		}

		lt, err := Preprocess(landscape)
		if err != nil {
			t.Fatalf("landscape: %v", err)
		}

		if len(pt) != TensorLen || len(lt) != TensorLen {
			t.Errorf("tensor lengths = %d, %d, want %d", len(pt), len(lt), TensorLen)
		}
	})

	t.Run("small input is upscaled before crop", func(t *testing.T) {
		data := encodePNG(t, 64, 48, color.RGBA{R: 1, G: 2, B: 3, A: 255})

		tensor, err := Preprocess(data)
		if err != nil {
			t.Fatalf("Preprocess returned error: %v", err)
		}

		if len(tensor) != TensorLen {
			t.Errorf("tensor length = %d, want %d", len(tensor), TensorLen)
		}
	})

	t.Run("corrupt image returns ErrUndecodable", func(t *testing.T) {
		_, err := Preprocess([]byte("definitely not an image"))
		if !errors.Is(err, ErrUndecodable) {
			t.Errorf("error = %v, want ErrUndecodable", err)
		}
	})

	t.Run("empty input returns ErrUndecodable", func(t *testing.T) {
		_, err := Preprocess(nil)
		if !errors.Is(err, ErrUndecodable) {
			t.Errorf("error = %v, want ErrUndecodable", err)
		}
	})
}
