package brevo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the production Brevo API endpoint.
const DefaultBaseURL = "https://api.brevo.com"

// Client is a minimal Brevo transactional-email client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

// SendTransactionalEmail delivers a formatted HTML email. Any non-2xx
// response is treated as a delivery failure.
func (c *Client) SendTransactionalEmail(req SendEmailRequest) (*SendEmailResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.baseURL+"/v3/smtp/email", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("brevo API returned non-OK status: %s body=%s", resp.Status, string(respBody))
	}

	var apiResp SendEmailResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		// Some success statuses (204) carry no body.
		return &SendEmailResponse{}, nil
	}

	return &apiResp, nil
}
