// Package cloud delivers merged documents to their destination: a local
// directory, an S3 bucket or an Azure blob container.
package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/logging"
)

// Sink stores a finished document and reports where it ended up.
type Sink interface {
	Put(ctx context.Context, name string, body io.ReadSeeker, size int64) (location string, err error)
	String() string
}

// Destination schemes.
const (
	SchemeLocal = "file"
	SchemeS3    = "s3"
	SchemeAzure = "azblob"
)

var (
	ErrEmptyDestination = errors.New("output destination is empty")
	ErrMissingBucket    = errors.New("destination is missing a bucket or container name")
	ErrUnknownScheme    = errors.New("unsupported destination scheme")
	ErrMissingAccount   = errors.New("azure_account_url is required for azblob destinations")
)

// Destination is a parsed output location.
type Destination struct {
	Scheme string
	Dir    string // local directory
	Bucket string // S3 bucket or Azure container
	Prefix string // key prefix inside the bucket, without leading or trailing slash
}

// ParseDestination accepts a directory path, s3://bucket/prefix or
// azblob://container/prefix.
func ParseDestination(raw string) (Destination, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Destination{}, ErrEmptyDestination
	}

	scheme, rest, ok := strings.Cut(raw, "://")
	if !ok {
		return Destination{Scheme: SchemeLocal, Dir: expandHome(raw)}, nil
	}

	switch strings.ToLower(scheme) {
	case SchemeS3, SchemeAzure:
	case SchemeLocal:
		return Destination{Scheme: SchemeLocal, Dir: expandHome(rest)}, nil
	default:
		return Destination{}, fmt.Errorf("%w: %s", ErrUnknownScheme, scheme)
	}

	bucket, prefix, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return Destination{}, ErrMissingBucket
	}
	return Destination{
		Scheme: strings.ToLower(scheme),
		Bucket: bucket,
		Prefix: strings.Trim(prefix, "/"),
	}, nil
}

func (d Destination) String() string {
	if d.Scheme == SchemeLocal {
		return d.Dir
	}
	if d.Prefix == "" {
		return d.Scheme + "://" + d.Bucket
	}
	return d.Scheme + "://" + d.Bucket + "/" + d.Prefix
}

// key returns the object key for name inside the destination prefix.
func (d Destination) key(name string) string {
	if d.Prefix == "" {
		return name
	}
	return path.Join(d.Prefix, name)
}

// NewSink builds the sink for the configured destination. An explicit
// override (e.g. from a command line flag) takes precedence over the config.
func NewSink(ctx context.Context, cfg *config.Config, override string, httpClient *http.Client, logger *logging.Logger) (Sink, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	raw := cfg.Output.Destination
	if override != "" {
		raw = override
	}
	dest, err := ParseDestination(raw)
	if err != nil {
		return nil, err
	}

	logger.Debug().Str("destination", dest.String()).Msg("Output destination")

	switch dest.Scheme {
	case SchemeS3:
		return NewS3Sink(ctx, dest, cfg.Output, httpClient)
	case SchemeAzure:
		return NewAzureSink(dest, cfg.Output.AzureAccountURL, httpClient)
	default:
		return NewLocalSink(dest.Dir), nil
	}
}

// stampedName inserts a timestamp before the extension so repeated merges
// do not overwrite each other in object stores.
func stampedName(name string, now time.Time) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-" + now.UTC().Format("20060102-150405") + ext
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[1:])
		}
	}
	return p
}

// redactURL strips query parameters (SAS tokens) for display.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid url>"
	}
	u.RawQuery = ""
	return u.String()
}
