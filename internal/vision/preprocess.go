package vision

import (
	"bytes"
	"fmt"
	"image"

	// Register the raster formats item uploads arrive in.
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
)

// Preprocessing constants for the pretrained feature extractor. These mirror
// the model's training distribution; changing them silently degrades every
// similarity score, so they are fixed rather than configurable.
const (
	resizeShortSide = 256
	cropSize        = 224
)

var (
	imagenetMean = [3]float32{0.485, 0.456, 0.406}
	imagenetStd  = [3]float32{0.229, 0.224, 0.225}
)

// TensorLen is the flattened length of one preprocessed image tensor (CHW).
const TensorLen = 3 * cropSize * cropSize

// Preprocess decodes the image and produces the model's input tensor:
// RGB decode, resize shortest side to 256, center-crop 224x224, per-channel
// normalize, flattened channel-major (CHW) float32.
func Preprocess(imageData []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}

	img = resizeShortestSide(img, resizeShortSide)
	img = centerCrop(img, cropSize)

	return normalize(img), nil
}

// resizeShortestSide scales img so its shorter dimension equals target,
// preserving aspect ratio. Catmull-Rom matches the bilinear-quality resampling
// the pretrained model expects closely enough for stable features.
func resizeShortestSide(img image.Image, target int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w <= 0 || h <= 0 {
		return img
	}

	var newW, newH int
	if w < h {
		newW = target
		newH = (h*target + w/2) / w
	} else {
		newH = target
		newW = (w*target + h/2) / h
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)

	return dst
}

// centerCrop extracts the centered size x size square.
func centerCrop(img image.Image, size int) image.Image {
	bounds := img.Bounds()
	x0 := bounds.Min.X + (bounds.Dx()-size)/2
	y0 := bounds.Min.Y + (bounds.Dy()-size)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Copy(dst, image.Point{}, img, image.Rect(x0, y0, x0+size, y0+size), draw.Src, nil)

	return dst
}

// normalize converts to a flattened CHW float32 tensor with the fixed
// per-channel mean/std applied.
func normalize(img image.Image) []float32 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	tensor := make([]float32, 3*w*h)
	plane := w * h

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			idx := y*w + x
			tensor[idx] = (float32(r>>8)/255 - imagenetMean[0]) / imagenetStd[0]
			tensor[plane+idx] = (float32(g>>8)/255 - imagenetMean[1]) / imagenetStd[1]
			tensor[2*plane+idx] = (float32(b>>8)/255 - imagenetMean[2]) / imagenetStd[2]
		}
	}

	return tensor
}
