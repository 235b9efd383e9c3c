package query

import (
	"net/url"
	"strconv"
	"strings"
)

// Filter keys as they travel on the wire.
const (
	KeyMinPrice = "minPrice"
	KeyMaxPrice = "maxPrice"
	KeyDelivery = "delivery_time"
)

// FilterKeys lists the recognized filter keys.
var FilterKeys = []string{KeyMinPrice, KeyMaxPrice, KeyDelivery}

// DeliveryAny is the literal accepted for "any delivery time".
const DeliveryAny = "any"

// Delivery is either a number of days or "any".
type Delivery struct {
	Days int
	Any  bool
}

func (d Delivery) String() string {
	if d.Any {
		return DeliveryAny
	}
	return strconv.Itoa(d.Days)
}

// Filters are the user adjustable constraints of a query. A nil field means
// the filter is absent and must not be sent at all.
type Filters struct {
	MinPrice *int
	MaxPrice *int
	Delivery *Delivery
}

// Set applies one filter, overwriting any previous value for key. Empty,
// unparsable or negative values clear the key. Unknown keys are ignored.
func (f *Filters) Set(key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		f.Clear(key)
		return
	}

	switch key {
	case KeyMinPrice, KeyMaxPrice:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			f.Clear(key)
			return
		}
		if key == KeyMinPrice {
			f.MinPrice = &n
		} else {
			f.MaxPrice = &n
		}
	case KeyDelivery:
		if strings.EqualFold(value, DeliveryAny) {
			f.Delivery = &Delivery{Any: true}
			return
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			f.Clear(key)
			return
		}
		f.Delivery = &Delivery{Days: n}
	}
}

// Clear removes a filter.
func (f *Filters) Clear(key string) {
	switch key {
	case KeyMinPrice:
		f.MinPrice = nil
	case KeyMaxPrice:
		f.MaxPrice = nil
	case KeyDelivery:
		f.Delivery = nil
	}
}

// Merge applies every recognized key present in v. For repeated keys the
// last value wins.
func (f *Filters) Merge(v url.Values) {
	for _, key := range FilterKeys {
		vals, ok := v[key]
		if !ok || len(vals) == 0 {
			continue
		}
		f.Set(key, vals[len(vals)-1])
	}
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.MinPrice == nil && f.MaxPrice == nil && f.Delivery == nil
}

// Values renders the set filters.
func (f Filters) Values() url.Values {
	v := url.Values{}
	if f.MinPrice != nil {
		v.Set(KeyMinPrice, strconv.Itoa(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		v.Set(KeyMaxPrice, strconv.Itoa(*f.MaxPrice))
	}
	if f.Delivery != nil {
		v.Set(KeyDelivery, f.Delivery.String())
	}
	return v
}
