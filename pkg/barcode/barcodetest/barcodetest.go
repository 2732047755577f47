// Package barcodetest renders barcode fixtures for tests.
package barcodetest

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
	"github.com/stretchr/testify/require"
)

// QRImage encodes text as a size x size QR code image.
func QRImage(tb testing.TB, text string, size int) image.Image {
	tb.Helper()

	matrix, err := qrcode.NewQRCodeWriter().Encode(text, gozxing.BarcodeFormat_QR_CODE, size, size, nil)
	require.NoError(tb, err, "could not encode QR fixture")

	return matrix
}

// QRPNG encodes text as a PNG QR code.
func QRPNG(tb testing.TB, text string, size int) []byte {
	tb.Helper()

	return EncodePNG(tb, QRImage(tb, text, size))
}

// Blank returns a white image without any barcode.
func Blank(size int) image.Image {
	img := image.NewGray(image.Rect(0, 0, size, size))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	return img
}

// EncodePNG serializes img as PNG.
func EncodePNG(tb testing.TB, img image.Image) []byte {
	tb.Helper()

	var buf bytes.Buffer
	require.NoError(tb, png.Encode(&buf, img))

	return buf.Bytes()
}
