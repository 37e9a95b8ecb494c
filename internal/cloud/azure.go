package cloud

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/rescale/pdfmerge/internal/constants"
)

// AzureAPI is the subset of the azblob client used by AzureSink.
type AzureAPI interface {
	UploadStream(ctx context.Context, containerName string, blobName string, body io.Reader, o *azblob.UploadStreamOptions) (azblob.UploadStreamResponse, error)
}

// AzureSink uploads documents to an Azure blob container.
type AzureSink struct {
	client     AzureAPI
	dest       Destination
	accountURL string // without SAS token, for display
	now        func() time.Time
}

// NewAzureSink creates a sink from an account URL carrying a SAS token,
// e.g. https://acct.blob.core.windows.net/?sv=...
func NewAzureSink(dest Destination, accountURL string, httpClient *http.Client) (*AzureSink, error) {
	if strings.TrimSpace(accountURL) == "" {
		return nil, ErrMissingAccount
	}

	opts := &azblob.ClientOptions{}
	if httpClient != nil {
		// Preserve the configured proxy and connection pool
		opts.ClientOptions = azcore.ClientOptions{Transport: httpClient}
	}

	client, err := azblob.NewClientWithNoCredential(accountURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	s := newAzureSink(client, dest)
	s.accountURL = strings.TrimSuffix(redactURL(accountURL), "/")
	return s, nil
}

func newAzureSink(client AzureAPI, dest Destination) *AzureSink {
	return &AzureSink{client: client, dest: dest, now: time.Now}
}

func (s *AzureSink) String() string { return s.dest.String() }

// Put streams body into a block blob under the destination prefix.
func (s *AzureSink) Put(ctx context.Context, name string, body io.ReadSeeker, size int64) (string, error) {
	blobName := s.dest.key(stampedName(name, s.now()))

	_, err := s.client.UploadStream(ctx, s.dest.Bucket, blobName, body, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(constants.PDFMIMEType)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob %s/%s: %w", s.dest.Bucket, blobName, err)
	}

	if s.accountURL != "" {
		return s.accountURL + "/" + s.dest.Bucket + "/" + blobName, nil
	}
	return SchemeAzure + "://" + s.dest.Bucket + "/" + blobName, nil
}
