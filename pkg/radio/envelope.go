// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"
)

// Envelope carries one over-the-air frame on the simulated air link
type Envelope struct {
	Sender    string  `cbor:"1,keyasint"`
	Frequency float64 `cbor:"2,keyasint"` // MHz
	Power     int     `cbor:"3,keyasint"` // dBm at the sender
	RSSI      int     `cbor:"4,keyasint,omitempty"`
	Payload   []byte  `cbor:"5,keyasint"`
}

// Marshal encodes the envelope as CBOR
func (e *Envelope) Marshal() ([]byte, error) {
	data, err := cbor.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to encode CBOR: %w", err)
	}
	return data, nil
}

// ParseEnvelope decodes a CBOR envelope
func ParseEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty CBOR payload")
	}
	var e Envelope
	if err := cbor.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to decode CBOR: %w", err)
	}
	return &e, nil
}

// SameChannel reports whether two frequencies are the same channel
func SameChannel(a, b float64) bool {
	return math.Abs(a-b) < 0.0005
}

// pathLoss is the fixed loss applied between simulated stations
const pathLoss = 80

// SimulatedRSSI is the signal strength a station hears from a sender
// transmitting at power dBm
func SimulatedRSSI(power int) int {
	rssi := power - pathLoss
	if rssi >= 0 {
		rssi = -1
	}
	return rssi
}
