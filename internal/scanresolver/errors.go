package scanresolver

import "qrportal/pkg/serrors"

var (
	// ErrCameraUnavailable is recorded when a camera could not be acquired or went away.
	ErrCameraUnavailable = serrors.NewKind("CAMERA_UNAVAILABLE")
	// ErrDecodeNotFound is returned when an image holds no barcode.
	ErrDecodeNotFound = serrors.NewKind("DECODE_NOT_FOUND")
	// ErrDecodeFailed is recorded when a barcode was located but could not be read.
	ErrDecodeFailed = serrors.NewKind("DECODE_FAILED")
	// ErrImageUnreadable is returned for uploads that are not a supported image.
	ErrImageUnreadable = serrors.NewKind("IMAGE_UNREADABLE")
	// ErrScanInProgress is returned when a camera scan is started twice.
	ErrScanInProgress = serrors.NewKind("SCAN_IN_PROGRESS")
	// ErrScanCancelled is returned when the scan was stopped while the camera was being acquired.
	ErrScanCancelled = serrors.NewKind("SCAN_CANCELLED")
	// ErrScanTimeout is recorded when a camera scan ran past its maximum duration.
	ErrScanTimeout = serrors.NewKind("SCAN_TIMEOUT")
	// ErrResolverClosed is returned once the resolver was torn down.
	ErrResolverClosed = serrors.NewKind("RESOLVER_CLOSED")
)
