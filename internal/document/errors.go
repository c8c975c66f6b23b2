package document

import "errors"

var (
	// ErrNoBill is returned when Compose is called without a bill
	ErrNoBill = errors.New("no bill to compose")

	// ErrNoStorage is returned by Download when no file storage is configured
	ErrNoStorage = errors.New("document storage not configured")

	// ErrNoRasterizer is returned by Preview when no rasterizer is configured
	ErrNoRasterizer = errors.New("preview rasterizer not configured")
)
