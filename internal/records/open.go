package records

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"

	"github.com/gyeh/npi-match/internal/cloud"
)

// Open reads a spreadsheet from a local path, "-" for stdin, an s3:// URL or
// an http(s) URL. A ".gz" suffix is decompressed on the fly.
func Open(ctx context.Context, path string, opts Options) (*Table, error) {
	rc, err := openSource(ctx, path, opts.S3Region)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if gzipped(path) {
		gz, err := pgzip.NewReader(rc)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream %s: %w", redact(path), err)
		}
		defer gz.Close()
		r = gz
	}

	t, err := Read(r, opts)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", redact(path), err)
	}
	return t, nil
}

func openSource(ctx context.Context, path, region string) (io.ReadCloser, error) {
	switch {
	case path == "-":
		return io.NopCloser(os.Stdin), nil
	case cloud.IsS3URL(path):
		return cloud.OpenURL(ctx, path, region)
	case isHTTPURL(path):
		return download(ctx, path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening input: %w", err)
		}
		return f, nil
	}
}
