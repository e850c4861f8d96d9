// Package codec decodes source rasters and encodes rendered icons as PNG.
//
// Decoding accepts PNG, JPEG, GIF, WebP, BMP and TIFF. Encoding always
// produces PNG and marks white as the background colour with a bKGD chunk.
package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"os"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DecodeError reports a source or badge image that could not be read.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a rendered canvas that could not be encoded.
type EncodeError struct {
	Size int
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode %dx%d: %v", e.Size, e.Size, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// PNG is the default codec.
type PNG struct{}

// Decode reads and decodes the image at path.
func (PNG) Decode(path string) (image.Image, error) {
	return Decode(path)
}

// Encode returns img as PNG bytes with a white background chunk.
func (PNG) Encode(img image.Image) ([]byte, error) {
	return EncodePNG(img)
}

// Decode reads and decodes the image at path. Any failure, including an
// empty image, is returned as a *DecodeError.
func Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, &DecodeError{Path: path, Err: errors.New("image has no pixels")}
	}
	return img, nil
}

var encoder = png.Encoder{CompressionLevel: png.BestCompression}

// EncodePNG encodes img as PNG and inserts a bKGD chunk naming white as
// the background colour.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := encoder.Encode(&buf, img); err != nil {
		return nil, &EncodeError{Size: img.Bounds().Dx(), Err: err}
	}
	out, err := withWhiteBackground(buf.Bytes())
	if err != nil {
		return nil, &EncodeError{Size: img.Bounds().Dx(), Err: err}
	}
	return out, nil
}

const (
	sigLen  = 8
	ihdrEnd = sigLen + 8 + 13 + 4 // signature, IHDR length+type, IHDR data, CRC
)

// withWhiteBackground splices a bKGD chunk directly after IHDR. Palette
// images are returned unchanged since bKGD would need a palette index.
func withWhiteBackground(data []byte) ([]byte, error) {
	if len(data) < ihdrEnd || string(data[sigLen+4:sigLen+8]) != "IHDR" {
		return nil, errors.New("png: missing IHDR chunk")
	}
	depth := data[sigLen+8+8]
	colorType := data[sigLen+8+9]
	white := uint16(1)<<depth - 1

	var payload []byte
	switch colorType {
	case 0, 4: // gray, gray+alpha
		payload = binary.BigEndian.AppendUint16(nil, white)
	case 2, 6: // truecolour, truecolour+alpha
		for range 3 {
			payload = binary.BigEndian.AppendUint16(payload, white)
		}
	default:
		return data, nil
	}

	chunk := make([]byte, 0, 12+len(payload))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(payload)))
	chunk = append(chunk, "bKGD"...)
	chunk = append(chunk, payload...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}
