package broker

import (
	"encoding/json"
	"fmt"
	"strings"

	"analytics-go/src/packages/event"
)

type Schema int

const (
	SchemaFull    Schema = 0
	SchemaMinimal Schema = 1
)

// ParseSchema accepts "0" for the full schema, anything else is minimal
func ParseSchema(s string) Schema {
	if strings.TrimSpace(s) == "0" {
		return SchemaFull
	}
	return SchemaMinimal
}

type analyticsModule struct {
	LcCurr map[string]uint64 `json:"lcCurr"`
	LcCum  map[string]uint64 `json:"lcCum"`
}

type fullPayload struct {
	MessageID       string          `json:"messageid"`
	MdsVersion      string          `json:"mdsversion"`
	Timestamp       string          `json:"@timestamp"`
	SensorID        string          `json:"sensorId"`
	SourceID        uint32          `json:"sourceId"`
	FrameID         uint64          `json:"frameId"`
	AnalyticsModule analyticsModule `json:"analyticsModule"`
	Signature       []byte          `json:"signature,omitempty"`
}

type minimalPayload struct {
	MessageID string            `json:"messageid"`
	Version   string            `json:"version"`
	Timestamp string            `json:"@timestamp"`
	SensorID  string            `json:"sensorId"`
	LcCurr    map[string]uint64 `json:"lcCurr"`
}

// split lc_curr_<d> and lc_cum_<d> counters into per direction maps
func splitCounters(c event.Counters) (map[string]uint64, map[string]uint64) {
	curr := map[string]uint64{}
	cum := map[string]uint64{}

	for name, n := range c {
		if d, ok := strings.CutPrefix(name, event.CurrentCounter("")); ok {
			curr[d] = n
		} else if d, ok := strings.CutPrefix(name, event.CumulativeCounter("")); ok {
			cum[d] = n
		}
	}

	return curr, cum
}

// MarshalRecord serializes a record, the signature is base64 encoded by json
func MarshalRecord(rec *event.Record, schema Schema) ([]byte, error) {
	if rec.IsReleased() {
		return nil, event.ErrReleased
	}

	curr, cum := splitCounters(rec.Counters)

	switch schema {
	case SchemaFull:
		p := fullPayload{
			MessageID:       rec.MessageID,
			MdsVersion:      "1.0",
			Timestamp:       rec.TimestampString(),
			SensorID:        rec.SensorStr,
			SourceID:        rec.SourceID,
			FrameID:         rec.FrameID,
			AnalyticsModule: analyticsModule{LcCurr: curr, LcCum: cum},
		}
		if rec.HasSignature() {
			p.Signature = rec.ObjSignature.Signature[:rec.ObjSignature.Size]
		}
		return json.Marshal(p)
	case SchemaMinimal:
		return json.Marshal(minimalPayload{
			MessageID: rec.MessageID,
			Version:   "4.0",
			Timestamp: rec.TimestampString(),
			SensorID:  rec.SensorStr,
			LcCurr:    curr,
		})
	default:
		return nil, fmt.Errorf("broker unknown schema %d", schema)
	}
}
