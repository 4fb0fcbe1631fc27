package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Feed is the top-level shape of the shop's published JSON. All three
// sequences are optional; discount entries are kept as-is for whoever
// eventually consumes them.
type Feed struct {
	Products  []RawProduct    `json:"products"`
	Notices   []Notice        `json:"notice"`
	Discounts json.RawMessage `json:"discount"`
}

// RawProduct mirrors one row of the spreadsheet-backed product sheet. Field
// shapes are loose (numbers as strings, lists as delimited strings), so every
// field uses a decode type that swallows the variance here at the boundary.
type RawProduct struct {
	ID          Text         `json:"id"`
	Name        Text         `json:"name"`
	Category    Text         `json:"category"`
	Collection  Text         `json:"collection"`
	Price       Price        `json:"price"`
	Status      Text         `json:"status"`
	Images      StringOrList `json:"images"`
	Styles      StringOrList `json:"styles"`
	Description Text         `json:"description"`
}

// Notice is an announcement banner entry.
type Notice struct {
	Title   Text   `json:"title"`
	Content Text   `json:"content"`
	Active  Truthy `json:"active"`
}

// Text decodes a JSON scalar into a string. Spreadsheet exports are fond of
// turning "001" into 1, so string, number and bool are all accepted; anything
// else decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*t = ""
		return nil
	}
	switch s := v.(type) {
	case string:
		*t = Text(s)
	case float64:
		*t = Text(strconv.FormatFloat(s, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(s))
	default:
		*t = ""
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Price decodes a number or a numeric string. Anything that doesn't parse to
// a finite number is kept as invalid and later renders as an empty price.
type Price struct {
	value float64
	valid bool
}

// NewPrice wraps a known-good numeric value.
func NewPrice(v float64) Price {
	return Price{value: v, valid: !math.IsNaN(v) && !math.IsInf(v, 0)}
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		*p = Price{}
		return nil
	}
	switch n := v.(type) {
	case float64:
		*p = NewPrice(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			*p = Price{}
			return nil
		}
		*p = NewPrice(f)
	default:
		*p = Price{}
	}
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(p.value, 'f', -1, 64)), nil
}

// Valid reports whether the price parsed to a finite number.
func (p Price) Valid() bool { return p.valid }

// Value returns the numeric value, 0 when invalid.
func (p Price) Value() float64 {
	if !p.valid {
		return 0
	}
	return p.value
}

// Truthy decodes the loose boolean convention of the sheet: everything is
// true except bool false, numeric 0 and the literal string "false". An absent
// field also counts as true.
type Truthy struct {
	set   bool
	value bool
}

func (t *Truthy) UnmarshalJSON(data []byte) error {
	t.set = true
	t.value = true
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch b := v.(type) {
	case bool:
		t.value = b
	case float64:
		t.value = b != 0
	case string:
		t.value = strings.TrimSpace(b) != "false"
	}
	return nil
}

func (t Truthy) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Bool())
}

// Bool returns the decoded value, defaulting to true when the field was
// absent.
func (t Truthy) Bool() bool { return !t.set || t.value }

// StringOrList decodes a field that is either a plain (possibly delimited)
// string or a JSON array of scalars. Array entries that are empty or falsy
// are dropped during decode; anything that is neither a string nor an array
// decodes to the zero value.
type StringOrList struct {
	text   string
	list   []string
	isList bool
}

// ListValue builds a list-shaped value, mainly for tests.
func ListValue(items ...string) StringOrList {
	return StringOrList{list: items, isList: true}
}

// TextValue builds a string-shaped value, mainly for tests.
func TextValue(s string) StringOrList {
	return StringOrList{text: s}
}

func (sl *StringOrList) UnmarshalJSON(data []byte) error {
	*sl = StringOrList{}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	switch raw := v.(type) {
	case string:
		sl.text = raw
	case []any:
		sl.isList = true
		for _, item := range raw {
			if s, ok := stringifyScalar(item); ok {
				sl.list = append(sl.list, s)
			}
		}
	}
	return nil
}

func (sl StringOrList) MarshalJSON() ([]byte, error) {
	if sl.isList {
		return json.Marshal(sl.list)
	}
	return json.Marshal(sl.text)
}

// stringifyScalar converts a decoded JSON scalar to its string form,
// reporting false for empty or falsy values.
func stringifyScalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, s != ""
	case float64:
		if s == 0 {
			return "", false
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		if !s {
			return "", false
		}
		return "true", true
	case nil:
		return "", false
	default:
		return fmt.Sprint(s), true
	}
}
