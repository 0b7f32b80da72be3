package marker

import (
	"fmt"
	"image/color"

	"gocv.io/x/gocv"
)

// quietColor fills the white margin around a generated marker.
var quietColor = color.RGBA{255, 255, 255, 0}

// Generate renders marker id of the named dictionary as a single-channel
// image, sidePixels wide, surrounded by a white margin of margin pixels.
// The caller must Close the returned Mat.
func Generate(dictionary string, id, sidePixels, margin int) (gocv.Mat, error) {
	d, err := lookup(dictionary)
	if err != nil {
		return gocv.NewMat(), err
	}
	if id < 0 || id >= d.size {
		return gocv.NewMat(), fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidID, id, d.size)
	}
	if sidePixels <= 0 || margin < 0 {
		return gocv.NewMat(), fmt.Errorf("%w: side %d px, margin %d px", ErrInvalidSize, sidePixels, margin)
	}

	img := gocv.NewMat()
	gocv.ArucoGenerateImageMarker(d.code, id, sidePixels, img, 1)
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), fmt.Errorf("%w: %s id %d", ErrGenerate, dictionary, id)
	}
	if margin == 0 {
		return img, nil
	}

	out := gocv.NewMat()
	gocv.CopyMakeBorder(img, &out, margin, margin, margin, margin, gocv.BorderConstant, quietColor)
	img.Close()
	return out, nil
}

// WriteImage renders a marker like Generate and saves it to path. The
// format follows the file extension.
func WriteImage(path, dictionary string, id, sidePixels, margin int) error {
	img, err := Generate(dictionary, id, sidePixels, margin)
	if err != nil {
		return err
	}
	defer img.Close()

	if ok := gocv.IMWrite(path, img); !ok {
		return fmt.Errorf("%w: write %s", ErrGenerate, path)
	}
	return nil
}
