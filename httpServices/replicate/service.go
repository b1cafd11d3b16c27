package replicate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Replicate API endpoint.
const DefaultBaseURL = "https://api.replicate.com"

// FluxKontextModel is the generative model the proxy forwards to.
const FluxKontextModel = "black-forest-labs/flux-kontext-pro"

// Client is a minimal Replicate predictions client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
}

func NewClient(baseURL, apiToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			// Image generation is slow; the sync API holds the request open.
			Timeout: 120 * time.Second,
		},
		baseURL:  baseURL,
		apiToken: apiToken,
	}
}

// CreatePrediction runs flux-kontext-pro synchronously ("Prefer: wait")
// and returns the finished prediction.
func (c *Client) CreatePrediction(input FluxKontextInput) (*Prediction, error) {
	body, err := json.Marshal(predictionRequest{Input: input})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1/models/%s/predictions", c.baseURL, FluxKontextModel)
	httpReq, err := http.NewRequest(http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiToken)
	httpReq.Header.Set("Prefer", "wait")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("replicate API returned non-OK status: %s body=%s", resp.Status, string(respBody))
	}

	var prediction Prediction
	if err := json.Unmarshal(respBody, &prediction); err != nil {
		return nil, fmt.Errorf("unmarshal prediction: %w", err)
	}

	if prediction.Error != "" {
		return nil, fmt.Errorf("prediction failed: %s", prediction.Error)
	}
	if prediction.Status == "failed" || prediction.Status == "canceled" {
		return nil, fmt.Errorf("prediction finished with status %q", prediction.Status)
	}

	return &prediction, nil
}
