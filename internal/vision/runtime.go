package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/reunite-hq/reunite/pkg/vectors"
)

const (
	runtimeRequestTimeout = 60 * time.Second
	runtimeRetryMax       = 2
)

// RuntimeClient talks to the inference runtime sidecar that serves the
// pretrained feature-extraction model. Transient failures are retried by the
// underlying client; calls are rate-limited so a corpus sweep cannot starve
// interactive traffic.
type RuntimeClient struct {
	baseURL string
	model   string
	client  *retryablehttp.Client
	limiter *rate.Limiter
}

// NewRuntimeClient creates a client for the runtime at baseURL serving model.
// limiter may be nil (no rate limiting).
func NewRuntimeClient(baseURL, model string, limiter *rate.Limiter) *RuntimeClient {
	client := retryablehttp.NewClient()
	client.RetryMax = runtimeRetryMax
	client.HTTPClient.Timeout = runtimeRequestTimeout
	client.Logger = nil

	return &RuntimeClient{
		baseURL: baseURL,
		model:   model,
		client:  client,
		limiter: limiter,
	}
}

type loadModelRequest struct {
	Model string `json:"model"`
}

// LoadModel asks the runtime to load the model weights. The runtime holds the
// model for the rest of its lifetime, so this runs once per process.
func (c *RuntimeClient) LoadModel(ctx context.Context) error {
	body, err := json.Marshal(loadModelRequest{Model: c.model})
	if err != nil {
		return fmt.Errorf("marshal load request: %w", err)
	}

	resp, err := c.post(ctx, c.baseURL+"/v1/models/load", body)
	if err != nil {
		return fmt.Errorf("load model %q: %w", c.model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("load model %q: runtime returned status %d", c.model, resp.StatusCode)
	}

	return nil
}

type forwardRequest struct {
	Model string `json:"model"`
	Shape []int  `json:"shape"`
	// Data is the input tensor as base64 of flat little-endian float32.
	Data string `json:"data"`
}

type forwardResponse struct {
	Output []float32 `json:"output"`
}

// Forward runs one inference pass and returns the flattened output vector.
func (c *RuntimeClient) Forward(ctx context.Context, shape []int, tensor []float32) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	body, err := json.Marshal(forwardRequest{
		Model: c.model,
		Shape: shape,
		Data:  base64.StdEncoding.EncodeToString(vectors.Encode(tensor)),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal forward request: %w", err)
	}

	resp, err := c.post(ctx, c.baseURL+"/v1/models/forward", body)
	if err != nil {
		return nil, fmt.Errorf("forward: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forward: runtime returned status %d", resp.StatusCode)
	}

	var out forwardResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode forward response: %w", err)
	}

	if len(out.Output) == 0 {
		return nil, fmt.Errorf("forward: runtime returned empty output")
	}

	return out.Output, nil
}

func (c *RuntimeClient) post(ctx context.Context, url string, body []byte) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}

	return resp, nil
}

// RuntimeExtractor implements Extractor against a loaded RuntimeClient.
type RuntimeExtractor struct {
	runtime *RuntimeClient
	dims    int
}

// Ensure RuntimeExtractor implements Extractor.
var _ Extractor = (*RuntimeExtractor)(nil)

// NewRuntimeExtractor wraps a runtime client whose model is already loaded.
func NewRuntimeExtractor(runtime *RuntimeClient, dims int) *RuntimeExtractor {
	return &RuntimeExtractor{runtime: runtime, dims: dims}
}

// Extract preprocesses the image and runs one inference pass. The output is
// the model's pooled penultimate-layer activation flattened to 1-D.
func (e *RuntimeExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	tensor, err := Preprocess(imageData)
	if err != nil {
		return nil, err
	}

	embedding, err := e.runtime.Forward(ctx, []int{1, 3, cropSize, cropSize}, tensor)
	if err != nil {
		return nil, err
	}

	if len(embedding) != e.dims {
		return nil, fmt.Errorf("unexpected embedding length: got %d, expected %d", len(embedding), e.dims)
	}

	return embedding, nil
}

// Dimensions returns the model's output vector length.
func (e *RuntimeExtractor) Dimensions() int {
	return e.dims
}
