package collaborators

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/waveshift/subpipeline/pkg/pipelineerrors"
	"github.com/waveshift/subpipeline/pkg/transcriptstream"
)

// HTTPModelClient is the concrete ModelStreamer: it issues a multipart
// POST against the generative model endpoint and reads the
// text/event-stream response through C2.
type HTTPModelClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	// Limiter is a token bucket that admits max_concurrent_requests request
	// starts per second (default 1), with a burst of the same size. Each
	// Stream call takes one token before sending; the number of requests in
	// flight at the same time is not bounded.
	Limiter *rate.Limiter
}

// NewHTTPModelClient returns a client whose Limiter admits
// maxConcurrentRequests request starts per second, with a burst of the same
// value. It limits how often requests start, not how many run at once.
func NewHTTPModelClient(baseURL, apiKey string, maxConcurrentRequests int) *HTTPModelClient {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = 1
	}
	return &HTTPModelClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: http.DefaultClient,
		Limiter:    rate.NewLimiter(rate.Limit(maxConcurrentRequests), maxConcurrentRequests),
	}
}

var _ ModelStreamer = (*HTTPModelClient)(nil)

// Stream uploads audio as a multipart request and forwards every parsed
// segment to handler as it streams in.
func (c *HTTPModelClient) Stream(ctx context.Context, audio []byte, targetLanguage, style string, handler func(transcriptstream.RawSegment) error) (transcriptstream.Result, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: %w: %v", pipelineerrors.ErrTransport, err)
	}

	body, contentType, err := buildMultipartBody(audio, targetLanguage, style)
	if err != nil {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: building request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, body)
	if err != nil {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: %w: %v", pipelineerrors.ErrTransport, err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: %w: %v", pipelineerrors.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return transcriptstream.Result{}, fmt.Errorf("collaborators: %w: model endpoint returned status %d", pipelineerrors.ErrTransport, resp.StatusCode)
	}

	return transcriptstream.Stream(resp.Body, handler)
}

func buildMultipartBody(audio []byte, targetLanguage, style string) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile(multipartFieldAudio, "audio.bin")
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}

	if err := w.WriteField(multipartFieldTargetLanguage, targetLanguage); err != nil {
		return nil, "", err
	}
	if style != "" {
		if err := w.WriteField(multipartFieldStyle, style); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
