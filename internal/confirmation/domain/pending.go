package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Partition is the session section owned by the confirmation dialog.
const Partition = "ConfirmationDialog"

// keyNamespace seeds name-based confirmation keys.
var keyNamespace = uuid.MustParse("6f3c1f0e-7a52-4b8e-9d0e-3c1b2a9f5e41")

// Params holds the scalar arguments replayed when a confirmed action executes.
type Params map[string]any

// PendingConfirmation represents one outstanding confirmation request.
type PendingConfirmation struct {
	Key       string    `json:"key"`
	Action    string    `json:"action"`
	Params    Params    `json:"params"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate ensures the entry can be stored.
func (p PendingConfirmation) Validate() error {
	if strings.TrimSpace(p.Key) == "" {
		return InvalidState("validate", fmt.Errorf("key is required"))
	}
	if strings.TrimSpace(p.Action) == "" {
		return InvalidState("validate", fmt.Errorf("action is required"))
	}
	return nil
}

// Expired reports whether the entry outlived ttl. A zero ttl never expires.
func (p PendingConfirmation) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(p.CreatedAt) > ttl
}

// NormalizeParams coerces every value to int64, float64, bool or string so that
// params survive JSON encoding unchanged.
func NormalizeParams(params Params) (Params, error) {
	out := make(Params, len(params))
	for name, value := range params {
		normalized, err := normalizeScalar(value)
		if err != nil {
			return nil, InvalidState("normalize params", fmt.Errorf("param %q: %w", name, err))
		}
		out[name] = normalized
	}
	return out, nil
}

func normalizeScalar(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64:
		return v, nil
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float32:
		return normalizeScalar(float64(v))
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("value %v is not finite", v)
		}
		return v, nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, nil
		}
		f, err := v.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", v.String())
		}
		return f, nil
	case nil:
		return nil, fmt.Errorf("null is not a scalar")
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}

// MarshalJSON keeps integral floats distinguishable from integers.
func (p Params) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	out := make(map[string]json.RawMessage, len(p))
	for name, value := range p {
		if f, ok := value.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			out[name] = json.RawMessage(strconv.FormatFloat(f, 'f', 1, 64))
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		out[name] = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes numbers as int64 when integral and float64 otherwise.
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	decoded := make(Params, len(raw))
	for name, msg := range raw {
		var value any
		dec := json.NewDecoder(bytes.NewReader(msg))
		dec.UseNumber()
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("param %q: %w", name, err)
		}
		normalized, err := normalizeScalar(value)
		if err != nil {
			return fmt.Errorf("param %q: %w", name, err)
		}
		decoded[name] = normalized
	}
	*p = decoded
	return nil
}

// DeriveKey maps an action and its disambiguating params to a stable key.
// Params not listed in keyParams do not contribute, and missing ones hash as empty.
func DeriveKey(action string, params Params, keyParams []string) string {
	names := append([]string(nil), keyParams...)
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(action)
	for _, name := range names {
		b.WriteByte(0)
		b.WriteString(name)
		b.WriteByte('=')
		if value, ok := params[name]; ok {
			b.WriteString(formatScalar(value))
		}
	}
	return uuid.NewSHA1(keyNamespace, []byte(b.String())).String()
}

func formatScalar(value any) string {
	switch v := value.(type) {
	case string:
		return "s:" + v
	case bool:
		return "b:" + strconv.FormatBool(v)
	case int64:
		return "i:" + strconv.FormatInt(v, 10)
	case float64:
		return "f:" + strconv.FormatFloat(v, 'g', -1, 64)
	default:
		normalized, err := normalizeScalar(value)
		if err != nil {
			return fmt.Sprintf("?:%v", value)
		}
		return formatScalar(normalized)
	}
}
