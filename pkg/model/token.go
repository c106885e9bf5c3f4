package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// TokenBundle is the wire format of the opaque credential handed out at
// account creation: a base64-encoded JSON object carrying the raw gateway
// token plus the routing defaults a client needs to use it.
type TokenBundle struct {
	Token       string `json:"token"`
	Cluster     string `json:"cluster"`
	URL         string `json:"url"`
	ProjectName string `json:"project_name"`
}

// Encode serializes the bundle to its base64 wire form.
func (b TokenBundle) Encode() (string, error) {
	raw, err := json.Marshal(b)
	if err != nil {
		return "", fmt.Errorf("failed to encode token bundle: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeTokenBundle parses a base64 wire-form token back into a bundle.
func DecodeTokenBundle(encoded string) (*TokenBundle, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token bundle: %w", err)
	}
	var bundle TokenBundle
	if err := json.Unmarshal(raw, &bundle); err != nil {
		return nil, fmt.Errorf("failed to parse token bundle: %w", err)
	}
	return &bundle, nil
}
