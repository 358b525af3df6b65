package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Metadata describes an ingested document
type Metadata struct {
	Filename  string `json:"filename"`
	URL       string `json:"url,omitempty"`
	Family    Family `json:"family"`
	Size      int64  `json:"size"`
	Pages     int    `json:"pages,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339 format
	Hash      string `json:"hash"`      // SHA256 hex digest of the raw bytes
}

// NewMetadata creates a new Metadata instance with current timestamp
func NewMetadata(file File, family Family) *Metadata {
	return &Metadata{
		Filename:  file.Name,
		Family:    family,
		Size:      file.Size(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      ComputeHash(file.Data),
	}
}

// ComputeHash computes SHA256 hash of content and returns hex string
func ComputeHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
