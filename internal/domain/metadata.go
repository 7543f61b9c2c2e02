package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Known metadata keys. Status change keys are built by StatusChangeReasonKey
// and StatusChangeAtKey.
const (
	MetaCancellationReason = "cancellationReason"
	MetaCancelledAt        = "cancelledAt"
	MetaReturnReason       = "returnReason"
	MetaReturnedAt         = "returnedAt"
	MetaTrackingNumber     = "trackingNumber"
	MetaShippedAt          = "shippedAt"
	MetaDeliveredAt        = "deliveredAt"
	MetaPaidAt             = "paidAt"
	MetaTransactionID      = "transactionId"
	MetaLastRefundReason   = "lastRefundReason"
	MetaLastRefundedAt     = "lastRefundedAt"
	MetaConvertedOrderID   = "convertedOrderId"
	MetaProviderCustomerID = "providerCustomerId"
	MetaNextActionType     = "nextActionType"
	MetaWebhookEventID     = "webhookEventId"
)

func StatusChangeReasonKey(status OrderStatus) string {
	return fmt.Sprintf("statusChange_%s_reason", status)
}

func StatusChangeAtKey(status OrderStatus) string {
	return fmt.Sprintf("statusChange_%s_at", status)
}

type MetadataKind string

const (
	MetadataString  MetadataKind = "string"
	MetadataTime    MetadataKind = "time"
	MetadataDecimal MetadataKind = "decimal"
	MetadataBool    MetadataKind = "bool"
)

// MetadataValue is a tagged union; only the field matching Kind is meaningful.
type MetadataValue struct {
	Kind    MetadataKind
	String  string
	Time    time.Time
	Decimal decimal.Decimal
	Bool    bool
}

type metadataValueJSON struct {
	Type  MetadataKind    `json:"type"`
	Value json.RawMessage `json:"value"`
}

func (v MetadataValue) MarshalJSON() ([]byte, error) {
	var (
		raw []byte
		err error
	)

	switch v.Kind {
	case MetadataString:
		raw, err = json.Marshal(v.String)
	case MetadataTime:
		raw, err = json.Marshal(v.Time.UTC().Format(time.RFC3339Nano))
	case MetadataDecimal:
		raw, err = json.Marshal(v.Decimal.String())
	case MetadataBool:
		raw, err = json.Marshal(v.Bool)
	default:
		return nil, fmt.Errorf("unknown metadata kind[%s]", v.Kind)
	}
	if err != nil {
		return nil, err
	}

	return json.Marshal(metadataValueJSON{Type: v.Kind, Value: raw})
}

func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	var in metadataValueJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}

	out := MetadataValue{Kind: in.Type}

	switch in.Type {
	case MetadataString:
		if err := json.Unmarshal(in.Value, &out.String); err != nil {
			return fmt.Errorf("string value: %w", err)
		}
	case MetadataTime:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return fmt.Errorf("time value: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("time.Parse[%s]: %w", s, err)
		}
		out.Time = t
	case MetadataDecimal:
		var s string
		if err := json.Unmarshal(in.Value, &s); err != nil {
			return fmt.Errorf("decimal value: %w", err)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("decimal.NewFromString[%s]: %w", s, err)
		}
		out.Decimal = d
	case MetadataBool:
		if err := json.Unmarshal(in.Value, &out.Bool); err != nil {
			return fmt.Errorf("bool value: %w", err)
		}
	default:
		return fmt.Errorf("unknown metadata kind[%s]", in.Type)
	}

	*v = out
	return nil
}

// Metadata is the string-keyed bag attached to aggregates.
type Metadata map[string]MetadataValue

func (m Metadata) SetString(key, value string) {
	m[key] = MetadataValue{Kind: MetadataString, String: value}
}

func (m Metadata) SetTime(key string, value time.Time) {
	m[key] = MetadataValue{Kind: MetadataTime, Time: value.UTC()}
}

func (m Metadata) SetDecimal(key string, value decimal.Decimal) {
	m[key] = MetadataValue{Kind: MetadataDecimal, Decimal: value}
}

func (m Metadata) SetBool(key string, value bool) {
	m[key] = MetadataValue{Kind: MetadataBool, Bool: value}
}

func (m Metadata) GetString(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v.Kind != MetadataString {
		return "", false
	}
	return v.String, true
}

func (m Metadata) GetTime(key string) (time.Time, bool) {
	v, ok := m[key]
	if !ok || v.Kind != MetadataTime {
		return time.Time{}, false
	}
	return v.Time, true
}

func (m Metadata) GetDecimal(key string) (decimal.Decimal, bool) {
	v, ok := m[key]
	if !ok || v.Kind != MetadataDecimal {
		return decimal.Zero, false
	}
	return v.Decimal, true
}

func (m Metadata) GetBool(key string) (bool, bool) {
	v, ok := m[key]
	if !ok || v.Kind != MetadataBool {
		return false, false
	}
	return v.Bool, true
}

func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// MarshalMetadata returns `{}` for a nil bag so the column is never NULL.
func MarshalMetadata(m Metadata) ([]byte, error) {
	if m == nil {
		return []byte(`{}`), nil
	}
	return json.Marshal(map[string]MetadataValue(m))
}

func UnmarshalMetadata(data []byte) (Metadata, error) {
	m := Metadata{}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
