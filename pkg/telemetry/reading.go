// Package telemetry defines the queue wire format shared by reading
// producers and the ingestion consumer.
package telemetry

import (
	"encoding/json"
	"time"
)

// Reading is the JSON payload for one water-quality sample. Timestamp is
// optional; the store stamps insert time when it is absent.
type Reading struct {
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Temperature float64    `json:"temperature"`
	PH          float64    `json:"ph"`
	TDSLevel    float64    `json:"tdsLevel"`
}

// Marshal encodes the reading for publishing.
func (r Reading) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes a queue payload into a Reading.
func Unmarshal(data []byte) (Reading, error) {
	var r Reading
	if err := json.Unmarshal(data, &r); err != nil {
		return Reading{}, err
	}
	return r, nil
}
