package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// WeightOption is a named package size. Price is nil for legacy rows that
// only stored the label; a nil or zero price never overrides the base price.
type WeightOption struct {
	Weight string   `json:"weight"`
	Price  *float64 `json:"price"`
}

// UnmarshalJSON accepts both the legacy bare-label form ("500g") and the
// object form ({"weight": "1kg", "price": 800}).
func (w *WeightOption) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*w = WeightOption{Weight: label}
		return nil
	}

	type plain WeightOption
	var opt plain
	if err := json.Unmarshal(data, &opt); err != nil {
		return fmt.Errorf("weight option must be a label or {weight, price}: %w", err)
	}
	*w = WeightOption(opt)
	return nil
}

// OverridePrice reports the tier price when it should replace the base price.
func (w WeightOption) OverridePrice() (float64, bool) {
	if w.Price == nil || *w.Price <= 0 {
		return 0, false
	}
	return *w.Price, true
}

type WeightOptions []WeightOption

func (o WeightOptions) Find(label string) (WeightOption, bool) {
	for _, opt := range o {
		if opt.Weight == label {
			return opt, true
		}
	}
	return WeightOption{}, false
}

func (o WeightOptions) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *WeightOptions) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*o = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported weight_options column type %T", value)
	}
	return json.Unmarshal(data, o)
}
