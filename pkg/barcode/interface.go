// Package barcode defines the decoding engine contract used to extract textual
// payloads from QR and other 2D barcode images.
//
//go:generate mockgen -package mockbarcode -source=interface.go -destination=mock/mockbarcode.go *
package barcode

import (
	"context"
	"errors"
	"image"
)

// ErrNotFound is returned by decoders when the image holds no recognizable
// barcode. During live scanning it only means "keep trying".
var ErrNotFound = errors.New("no barcode found")

// Format names a barcode symbology a decoder may look for.
type Format string

const (
	// FormatQRCode is the QR code symbology.
	FormatQRCode Format = "qr"
	// FormatDataMatrix is the Data Matrix symbology.
	FormatDataMatrix Format = "datamatrix"
)

// Decoder extracts the text payload of a single barcode from an image.
// Implementations must be safe for sequential reuse across frames; Reset
// clears any state carried between calls.
type Decoder interface {
	// Decode runs one decode pass over img. It returns ErrNotFound (possibly
	// wrapped) when no barcode is present, and other errors when a barcode was
	// located but could not be read.
	Decode(ctx context.Context, img image.Image) (string, error)
	// Reset clears internal state so the next Decode starts clean.
	Reset()
}
