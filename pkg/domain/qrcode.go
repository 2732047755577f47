package domain

import "time"

// QRCode is a rendered QR image pointing to a content page.
type QRCode struct {
	// ContentID is the content the code links to.
	ContentID ContentID
	// TargetURL is the absolute page URL encoded in the image.
	TargetURL string
	// PNG is the rendered image.
	PNG []byte
	// Verified is set when the image was decoded back to TargetURL.
	Verified bool
	// CreatedAt is the time the image was stored.
	CreatedAt time.Time
}
