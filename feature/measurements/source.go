package measurements

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"measurement-extractor/core/storage"

	"github.com/klauspost/compress/gzip"
	"github.com/minio/minio-go/v7"
)

var gzipMagic = []byte{0x1f, 0x8b}

// Opener resolves record stream locations.
type Opener struct {
	client storage.Client
}

// NewOpener creates an opener. client may be nil when only local files are read.
func NewOpener(client storage.Client) *Opener {
	return &Opener{client: client}
}

// Open returns the decompressed record stream at location.
// Locations of the form s3://bucket/key are read from object storage.
func (o *Opener) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	var (
		raw io.ReadCloser
		err error
	)

	if storage.IsObjectURI(location) {
		raw, err = o.openObject(ctx, location)
	} else {
		raw, err = os.Open(location)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}

	rc, err := maybeGunzip(raw)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to open %s: %w", location, err)
	}
	return rc, nil
}

func (o *Opener) openObject(ctx context.Context, location string) (io.ReadCloser, error) {
	if o.client == nil {
		return nil, ErrStorageDisabled
	}
	bucket, object, err := storage.ParseObjectURI(location)
	if err != nil {
		return nil, err
	}
	return o.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
}

type stream struct {
	io.Reader
	closers []io.Closer
}

func (s *stream) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// maybeGunzip sniffs the gzip magic so plain and compressed inputs both work.
func maybeGunzip(raw io.ReadCloser) (io.ReadCloser, error) {
	br := bufio.NewReaderSize(raw, 64*1024)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(head) < len(gzipMagic) || head[0] != gzipMagic[0] || head[1] != gzipMagic[1] {
		return &stream{Reader: br, closers: []io.Closer{raw}}, nil
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("invalid gzip stream: %w", err)
	}
	return &stream{Reader: zr, closers: []io.Closer{zr, raw}}, nil
}
