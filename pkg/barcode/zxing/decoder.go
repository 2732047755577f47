// Package zxing provides a barcode.Decoder backed by gozxing, the Go port of
// the ZXing barcode engine.
package zxing

import (
	"context"
	"fmt"
	"image"
	"qrportal/pkg/barcode"
	"sync"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/datamatrix"
	"github.com/makiuchi-d/gozxing/qrcode"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "qrportal/pkg/barcode/zxing"

// Options configure which symbologies the decoder looks for.
type Options struct {
	// Formats lists the symbologies to try in order. Empty means QR only.
	Formats []barcode.Format
	// TryHarder trades speed for accuracy on difficult images.
	TryHarder bool
}

// Decoder tries each configured reader in turn against an image.
// Readers are not safe for concurrent use, so calls are serialized.
type Decoder struct {
	mu      sync.Mutex
	readers []namedReader
	hints   map[gozxing.DecodeHintType]interface{}
}

type namedReader struct {
	format barcode.Format
	reader gozxing.Reader
}

var _ barcode.Decoder = (*Decoder)(nil)

// New builds a Decoder for the given options. Unknown formats are rejected.
func New(opts Options) (*Decoder, error) {
	formats := opts.Formats
	if len(formats) == 0 {
		formats = []barcode.Format{barcode.FormatQRCode}
	}

	d := &Decoder{hints: map[gozxing.DecodeHintType]interface{}{}}
	if opts.TryHarder {
		d.hints[gozxing.DecodeHintType_TRY_HARDER] = true
	}

	for _, f := range formats {
		switch f {
		case barcode.FormatQRCode:
			d.readers = append(d.readers, namedReader{format: f, reader: qrcode.NewQRCodeReader()})
		case barcode.FormatDataMatrix:
			d.readers = append(d.readers, namedReader{format: f, reader: datamatrix.NewDataMatrixReader()})
		default:
			return nil, fmt.Errorf("unsupported barcode format %q", f)
		}
	}

	return d, nil
}

// Decode binarizes img and returns the text of the first barcode any reader finds.
func (d *Decoder) Decode(ctx context.Context, img image.Image) (string, error) {
	b := img.Bounds()
	_, span := otel.Tracer(tracerName).Start(ctx, "zxing.Decode", trace.WithAttributes(
		attribute.Int("image.width", b.Dx()),
		attribute.Int("image.height", b.Dy()),
	))
	defer span.End()

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return "", fmt.Errorf("could not binarize image: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// a located-but-unreadable code beats "not found" when reporting failure
	var readErr error
	for _, r := range d.readers {
		res, err := r.reader.Decode(bmp, d.hints)
		if err == nil {
			span.SetAttributes(attribute.String("barcode.format", string(r.format)))

			return res.GetText(), nil
		}

		if _, notFound := err.(gozxing.NotFoundException); !notFound && readErr == nil { //nolint: errorlint
			readErr = fmt.Errorf("could not read %s code: %w", r.format, err)
		}
	}

	if readErr != nil {
		span.SetStatus(codes.Error, readErr.Error())

		return "", readErr
	}

	return "", barcode.ErrNotFound
}

// Reset clears the state of every underlying reader.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, r := range d.readers {
		r.reader.Reset()
	}
}
