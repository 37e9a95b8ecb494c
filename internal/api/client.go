package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/publicsuffix"

	"github.com/rescale/pdfmerge/internal/config"
	"github.com/rescale/pdfmerge/internal/constants"
	"github.com/rescale/pdfmerge/internal/http"
	"github.com/rescale/pdfmerge/internal/logging"
	"github.com/rescale/pdfmerge/internal/models"
)

// maxEnvelopeBytes bounds how much of a JSON response is read.
const maxEnvelopeBytes = 4 << 20

// ReaderWrapper decorates an upload body, typically to report progress.
type ReaderWrapper func(c models.Candidate, r io.Reader) io.Reader

// Client talks to the merge service. The session cookie lives in an
// in-memory jar shared by the API and transfer clients.
type Client struct {
	apiClient      *nethttp.Client // small JSON calls, wrapped with retry policy
	transferClient *nethttp.Client // streaming upload and download bodies
	baseURL        *url.URL
	logger         *logging.Logger
}

// NewClient creates a new merge service client.
func NewClient(cfg *config.Config, logger *logging.Logger) (*Client, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	base := strings.TrimSuffix(strings.TrimSpace(cfg.Server.BaseURL), "/")
	if base == "" {
		return nil, ErrEmptyBaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}

	httpClient, err := http.ConfigureHTTPClient(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure HTTP client: %w", err)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	// The inner client has no jar; cookies are handled by the outer clients only.
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = httpClient
	retryClient.RetryMax = cfg.Client.RetryMax
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 5 * time.Second
	retryClient.Logger = logging.RetryLogger{L: logger}

	apiClient := retryClient.StandardClient()
	apiClient.Jar = jar

	transferClient := *httpClient
	transferClient.Jar = jar

	return &Client{
		apiClient:      apiClient,
		transferClient: &transferClient,
		baseURL:        baseURL,
		logger:         logger,
	}, nil
}

// BaseURL returns the service URL the client was configured with.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// resolve turns a service path, or a server-provided URL, into an absolute URL.
func (c *Client) resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", ref, err)
	}
	if u.IsAbs() {
		return u.String(), nil
	}
	joined := *c.baseURL
	joined.Path = strings.TrimSuffix(c.baseURL.Path, "/") + "/" + strings.TrimPrefix(u.Path, "/")
	joined.RawQuery = u.RawQuery
	return joined.String(), nil
}

// doRequest performs an HTTP request through the API client.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.apiClient.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("method", method).Str("path", path).Msg("API call failed")
		return nil, err
	}
	return resp, nil
}

// decodeEnvelope turns a response into an envelope, classifying failures.
// The response body is always closed.
func decodeEnvelope(op string, resp *nethttp.Response) (*models.Envelope, error) {
	defer resp.Body.Close()

	var env models.Envelope
	err := json.NewDecoder(io.LimitReader(resp.Body, maxEnvelopeBytes)).Decode(&env)

	// An error status still carries the server's explanation when the body is an envelope
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxEnvelopeBytes))
		if err == nil && !env.Success {
			return &env, &StructuralError{Op: op, Message: env.Message}
		}
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	if err != nil {
		return nil, &TransportError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("%w: %v", ErrMalformedResponse, err),
		}
	}

	if !env.Success {
		return &env, &StructuralError{Op: op, Message: env.Message}
	}
	return &env, nil
}

// postEnvelope performs a JSON POST and decodes the envelope.
func (c *Client) postEnvelope(ctx context.Context, op, path string, body interface{}) (*models.Envelope, error) {
	resp, err := c.doRequest(ctx, nethttp.MethodPost, path, body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	return decodeEnvelope(op, resp)
}

// OpenSession requests the service root so the server issues a session cookie.
func (c *Client) OpenSession(ctx context.Context) error {
	resp, err := c.doRequest(ctx, nethttp.MethodGet, constants.PathSession, nil)
	if err != nil {
		return &TransportError{Op: "session", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &TransportError{Op: "session", StatusCode: resp.StatusCode}
	}

	c.logger.Debug().Int("cookies", len(c.apiClient.Jar.Cookies(c.baseURL))).Msg("Session opened")
	return nil
}

// Upload sends every candidate in one multipart request, repeating the
// "files" field once per file. The body is streamed; wrap may be nil.
func (c *Client) Upload(ctx context.Context, files []models.Candidate, wrap ReaderWrapper) (*models.Envelope, error) {
	const op = "upload"

	target, err := c.resolve(constants.PathUpload)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeMultipart(mw, files, wrap))
	}()

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodPost, target, pr)
	if err != nil {
		pr.Close()
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("User-Agent", constants.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.transferClient.Do(req)
	if err != nil {
		pr.Close()
		return nil, &TransportError{Op: op, Err: err}
	}
	return decodeEnvelope(op, resp)
}

func writeMultipart(mw *multipart.Writer, files []models.Candidate, wrap ReaderWrapper) error {
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			constants.UploadFieldName, escapeQuotes(f.Name)))
		ct := f.MIMEType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)

		part, err := mw.CreatePart(h)
		if err != nil {
			return fmt.Errorf("failed to create part for %s: %w", f.Name, err)
		}

		if f.Open == nil {
			return fmt.Errorf("no content for %s", f.Name)
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}

		var r io.Reader = rc
		if wrap != nil {
			r = wrap(f, rc)
		}
		_, err = io.Copy(part, r)
		rc.Close()
		if err != nil {
			return fmt.Errorf("failed to send %s: %w", f.Name, err)
		}
	}
	return mw.Close()
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// RemoveFile asks the service to drop one file from the session collection.
func (c *Client) RemoveFile(ctx context.Context, storedName string) (*models.Envelope, error) {
	return c.postEnvelope(ctx, "remove_file", constants.PathRemove, models.RemoveRequest{StoredName: storedName})
}

// ClearAll asks the service to drop every file in the session collection.
func (c *Client) ClearAll(ctx context.Context) (*models.Envelope, error) {
	return c.postEnvelope(ctx, "clear", constants.PathClear, nil)
}

// Merge asks the service to merge the session collection. On success the
// envelope carries the download URL of the merged document.
func (c *Client) Merge(ctx context.Context) (*models.Envelope, error) {
	env, err := c.postEnvelope(ctx, "merge", constants.PathMerge, nil)
	if err != nil {
		return env, err
	}
	if env.DownloadURL == "" {
		return env, &TransportError{Op: "merge", StatusCode: nethttp.StatusOK,
			Err: fmt.Errorf("%w: missing download_url", ErrMalformedResponse)}
	}
	return env, nil
}

// OpenDownload starts fetching a merged document. The caller must close the
// returned body. size is -1 when the server does not announce a length.
func (c *Client) OpenDownload(ctx context.Context, downloadURL string) (body io.ReadCloser, size int64, err error) {
	const op = "download"

	target, err := c.resolve(downloadURL)
	if err != nil {
		return nil, 0, &TransportError{Op: op, Err: err}
	}

	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, target, nil)
	if err != nil {
		return nil, 0, &TransportError{Op: op, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", constants.UserAgent)

	resp, err := c.transferClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode != nethttp.StatusOK {
		resp.Body.Close()
		return nil, 0, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	return resp.Body, resp.ContentLength, nil
}
