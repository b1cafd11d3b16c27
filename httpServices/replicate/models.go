package replicate

import (
	"encoding/json"
	"fmt"
)

// FluxKontextInput is the input block for the flux-kontext-pro model.
// The prompt and style parameters are fixed server-side; nothing here is
// user-configurable except the input image.
type FluxKontextInput struct {
	InputImage       string `json:"input_image"`
	Prompt           string `json:"prompt"`
	AspectRatio      string `json:"aspect_ratio"`
	OutputFormat     string `json:"output_format"`
	SafetyTolerance  int    `json:"safety_tolerance"`
	PromptUpsampling bool   `json:"prompt_upsampling"`
}

type predictionRequest struct {
	Input FluxKontextInput `json:"input"`
}

// Prediction is the subset of the Replicate prediction object we consume.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error,omitempty"`
}

// OutputURL extracts the generated image URL. Replicate returns either a
// bare string or an array of URLs depending on the model.
func (p *Prediction) OutputURL() (string, error) {
	if len(p.Output) == 0 {
		return "", fmt.Errorf("prediction %s has no output", p.ID)
	}

	var single string
	if err := json.Unmarshal(p.Output, &single); err == nil && single != "" {
		return single, nil
	}

	var many []string
	if err := json.Unmarshal(p.Output, &many); err == nil && len(many) > 0 {
		return many[0], nil
	}

	return "", fmt.Errorf("unexpected output shape in prediction %s: %s", p.ID, string(p.Output))
}
