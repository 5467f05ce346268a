package renderer

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KorolevSoftware/OpenGLRayCastingCore/log"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

var ErrUnsupportedImageFormat = errors.New("renderer: unsupported image format")

// Encode img in the format selected by the extension of filename (.png or
// .bmp) and write it to filename.
func SaveImage(filename string, img image.Image) error {
	logger := log.New("renderer")
	start := time.Now()

	encode, err := imageEncoder(filename)
	if err != nil {
		return err
	}

	f, err := os.Create(filename)
	if err != nil {
		return err
	}

	err = encode(f, img)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return errors.Wrapf(err, "renderer: could not write %s", filename)
	}

	logger.Noticef("wrote frame to %s in %d ms", filename, time.Since(start).Nanoseconds()/1e6)
	return nil
}

func imageEncoder(filename string) (func(io.Writer, image.Image) error, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return png.Encode, nil
	case ".bmp":
		return bmp.Encode, nil
	}
	return nil, errors.Wrapf(ErrUnsupportedImageFormat, "%q", filename)
}
