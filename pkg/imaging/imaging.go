// Package imaging turns raw camera frames into JPEG artifacts carrying an
// EXIF capture timestamp.
package imaging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gocv "gocv.io/x/gocv"
)

const (
	// TimestampLayout is the EXIF DateTime layout, YYYY:MM:DD HH:MM:SS.
	TimestampLayout = "2006:01:02 15:04:05"

	DefaultQuality = 75
)

var ErrEmptyImage = errors.New("image has no pixels")

// RGB is packed 8-bit RGB pixel data, three bytes per pixel, row major.
type RGB struct {
	Width  int
	Height int
	Pix    []byte
}

func (img RGB) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return ErrEmptyImage
	}
	if need := img.Width * img.Height * 3; len(img.Pix) < need {
		return fmt.Errorf("short pixel buffer: have %d bytes, need %d for %dx%d RGB", len(img.Pix), need, img.Width, img.Height)
	}
	return nil
}

func FormatTimestamp(ts time.Time) string {
	return ts.Format(TimestampLayout)
}

// JPEGEncoder encodes with OpenCV and stamps the result with DateTime.
type JPEGEncoder struct {
	Quality int
}

func (e JPEGEncoder) EncodeJPEG(img RGB, ts time.Time) ([]byte, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	quality := e.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	rgb, err := gocv.NewMatFromBytes(img.Height, img.Width, gocv.MatTypeCV8UC3, img.Pix[:img.Width*img.Height*3])
	if err != nil {
		return nil, fmt.Errorf("wrap pixels: %w", err)
	}
	defer rgb.Close()

	// OpenCV expects BGR channel order
	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgb, &bgr, gocv.ColorRGBToBGR)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, bgr, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return StampDateTime(buf.GetBytes(), ts)
}

// WriteFile writes data to dir/name through a temporary file so readers
// never observe a partial JPEG.
func WriteFile(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(dir, name))
}
