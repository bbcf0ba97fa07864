package citation

import (
	"context"
	"time"
)

// Fetcher downloads the raw bytes behind a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// MetadataExtractor derives bibliographic fields from PDF bytes. The returned
// Metadata is complete even when err is non-nil.
type MetadataExtractor interface {
	Extract(ctx context.Context, pdf []byte) (Metadata, error)
}

// PageCounter counts the pages of a PDF.
type PageCounter interface {
	Count(ctx context.Context, pdf []byte) (PageCount, error)
}

// SheetReader reads a single column of a sheet page.
type SheetReader interface {
	ReadColumn(ctx context.Context, page string, column string, firstRow int) ([]string, error)
}

// SheetWriter replaces the contents of a target range with one row of values.
type SheetWriter interface {
	WriteRow(ctx context.Context, target WriteTarget, values []any) error
}

// SheetStore combines read and write access to the tabular-data service.
type SheetStore interface {
	SheetReader
	SheetWriter
}

// Publisher pushes events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// Hasher computes digests of downloaded documents.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
