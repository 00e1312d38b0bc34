package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonwraymond/matchcache/analysis"
)

// EnvelopeVersion is the current stored-entry format.
const EnvelopeVersion = 1

// envelope wraps a result with the metadata needed to decode it without
// guessing its kind.
type envelope struct {
	Version  int             `json:"v"`
	Kind     analysis.Kind   `json:"kind"`
	StoredAt time.Time       `json:"stored_at"`
	Result   json.RawMessage `json:"result"`
}

// Encode serializes a result for storage.
func Encode(res analysis.Result) ([]byte, error) {
	if !res.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown result kind %q", ErrSerialization, res.Kind)
	}
	body, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	data, err := json.Marshal(envelope{
		Version:  EnvelopeVersion,
		Kind:     res.Kind,
		StoredAt: time.Now().UTC().Truncate(time.Second),
		Result:   body,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	return data, nil
}

// Decode parses a stored value. Values written without an envelope are read
// as bare result objects, with the kind inferred from a top-level "error" key.
func Decode(data []byte) (analysis.Result, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return analysis.Result{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if probe == nil {
		return analysis.Result{}, fmt.Errorf("%w: stored value is not an object", ErrSerialization)
	}

	if !isEnvelope(probe) {
		var res analysis.Result
		if err := json.Unmarshal(data, &res); err != nil {
			return analysis.Result{}, fmt.Errorf("%w: %w", ErrSerialization, err)
		}
		return res, nil
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return analysis.Result{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	if env.Version != EnvelopeVersion {
		return analysis.Result{}, fmt.Errorf("%w: unsupported version %d", ErrSerialization, env.Version)
	}
	if !env.Kind.Valid() {
		return analysis.Result{}, fmt.Errorf("%w: unknown result kind %q", ErrSerialization, env.Kind)
	}

	var res analysis.Result
	if err := json.Unmarshal(env.Result, &res); err != nil {
		return analysis.Result{}, fmt.Errorf("%w: %w", ErrSerialization, err)
	}
	res.Kind = env.Kind
	return res, nil
}

func isEnvelope(fields map[string]json.RawMessage) bool {
	_, hasVersion := fields["v"]
	raw, hasResult := fields["result"]
	return hasVersion && hasResult && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}
