// Package archive stores named snapshots of calculator, schedule and quantities screens.
//
// An archive's data is a tagged union: the type field selects exactly one payload schema.
package archive

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Simplici0/costdesk/internal/financing"
	"github.com/Simplici0/costdesk/internal/packing"
	"github.com/Simplici0/costdesk/internal/pricing"
	"github.com/Simplici0/costdesk/internal/products"
	"github.com/Simplici0/costdesk/internal/schedule"
)

var (
	ErrNotFound    = errors.New("archive not found")
	ErrUnknownType = errors.New("unknown archive type")
)

// Kind is the archive type tag.
type Kind string

const (
	KindCalculator Kind = "calculator"
	KindSchedule   Kind = "schedule"
	KindQuantities Kind = "quantities"
)

// ParseKind validates a type tag.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case KindCalculator, KindSchedule, KindQuantities:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
}

// Payload is implemented by every archive variant.
type Payload interface {
	Kind() Kind
}

// CalculatorSnapshot holds the inputs of the pricing, freight and financing calculators.
type CalculatorSnapshot struct {
	Pricing   pricing.Inputs    `json:"pricing"`
	Freight   packing.Inputs    `json:"freight"`
	Financing *financing.Inputs `json:"financing,omitempty"`
}

// Kind reports KindCalculator.
func (CalculatorSnapshot) Kind() Kind { return KindCalculator }

// ScheduleSnapshot is a full copy of the supply schedule.
type ScheduleSnapshot struct {
	schedule.State
}

// Kind reports KindSchedule.
func (ScheduleSnapshot) Kind() Kind { return KindSchedule }

// QuantitiesSnapshot is the product list of the quantities dashboard.
type QuantitiesSnapshot struct {
	Products []products.Product `json:"products"`
}

// Kind reports KindQuantities.
func (QuantitiesSnapshot) Kind() Kind { return KindQuantities }

// Archive is one saved snapshot.
type Archive struct {
	ID          string
	CompanyName string
	Payload     Payload
	CreatedAt   time.Time
}

// Kind returns the tag of the archive payload.
func (a Archive) Kind() Kind {
	if a.Payload == nil {
		return ""
	}
	return a.Payload.Kind()
}

type envelope struct {
	ID          string          `json:"id"`
	Type        Kind            `json:"type"`
	CompanyName string          `json:"company_name"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// legacyCalculation is the shape of rows saved before archives were typed.
type legacyCalculation struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Date    string          `json:"date"`
	Pricing json.RawMessage `json:"pricing"`
	Freight json.RawMessage `json:"freight"`
}

func (a Archive) MarshalJSON() ([]byte, error) {
	if a.Payload == nil {
		return nil, fmt.Errorf("encode archive %s: %w", a.ID, ErrUnknownType)
	}
	data, err := json.Marshal(a.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode archive data: %w", err)
	}
	return json.Marshal(envelope{
		ID:          a.ID,
		Type:        a.Payload.Kind(),
		CompanyName: a.CompanyName,
		Data:        data,
		CreatedAt:   a.CreatedAt,
	})
}

// UnmarshalJSON decodes an archive envelope. Envelopes without a type but with pricing or
// freight fields are read as legacy calculator rows.
func (a *Archive) UnmarshalJSON(b []byte) error {
	var head struct {
		Type *string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("decode archive envelope: %w", err)
	}

	if head.Type == nil {
		var legacy legacyCalculation
		if err := json.Unmarshal(b, &legacy); err != nil {
			return fmt.Errorf("decode legacy calculation: %w", err)
		}
		if legacy.Pricing == nil && legacy.Freight == nil {
			return fmt.Errorf("%w: missing type", ErrUnknownType)
		}
		out, err := fromLegacy(legacy)
		if err != nil {
			return err
		}
		*a = out
		return nil
	}

	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("decode archive envelope: %w", err)
	}
	kind, err := ParseKind(string(env.Type))
	if err != nil {
		return err
	}
	payload, err := DecodePayload(kind, env.Data)
	if err != nil {
		return err
	}

	*a = Archive{
		ID:          env.ID,
		CompanyName: env.CompanyName,
		Payload:     payload,
		CreatedAt:   env.CreatedAt,
	}
	return nil
}

// DecodePayload decodes data into the variant selected by kind. Empty data decodes as the
// zero value of that variant. Numbers sent as text are read like calculator input, so an
// unreadable number becomes 0 rather than failing the archive.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	if len(bytes.TrimSpace(data)) == 0 || bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		data = []byte("{}")
	}

	switch kind {
	case KindCalculator:
		var p CalculatorSnapshot
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode calculator archive: %w", err)
		}
		return p, nil
	case KindSchedule:
		var p ScheduleSnapshot
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode schedule archive: %w", err)
		}
		if p.Allocations == nil {
			p.Allocations = []schedule.Allocation{}
		}
		if p.Rows == nil {
			p.Rows = []schedule.Row{}
		}
		return p, nil
	case KindQuantities:
		var p QuantitiesSnapshot
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode quantities archive: %w", err)
		}
		if p.Products == nil {
			p.Products = []products.Product{}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, kind)
	}
}

func fromLegacy(l legacyCalculation) (Archive, error) {
	var snap CalculatorSnapshot
	if len(l.Pricing) > 0 {
		if err := json.Unmarshal(l.Pricing, &snap.Pricing); err != nil {
			return Archive{}, fmt.Errorf("decode legacy pricing: %w", err)
		}
	}
	if len(l.Freight) > 0 {
		if err := json.Unmarshal(l.Freight, &snap.Freight); err != nil {
			return Archive{}, fmt.Errorf("decode legacy freight: %w", err)
		}
	}

	a := Archive{ID: l.ID, CompanyName: l.Name, Payload: snap}
	if l.Date != "" {
		for _, layout := range []string{time.RFC3339Nano, schedule.DateLayout} {
			if t, err := time.Parse(layout, l.Date); err == nil {
				a.CreatedAt = t.UTC()
				break
			}
		}
	}
	return a, nil
}
