package schema

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Type describes the storage type of a column. Decode converts a raw driver
// value into the value set on entities, Encode converts it back into a value
// accepted by the driver.
type Type interface {
	Name() string
	Decode(raw any) (any, error)
	Encode(v any) (any, error)
}

// Built-in column types. Decoding accepts the raw forms database/sql drivers
// hand out: MySQL returns numbers as []byte, SQLite stores booleans as int64
// and times as text.
var (
	Int     Type = scalar[int]{name: "int", conv: toIntE}
	Int64   Type = scalar[int64]{name: "int64", conv: toInt64E}
	Float64 Type = scalar[float64]{name: "float64", conv: cast.ToFloat64E}
	String  Type = scalar[string]{name: "string", conv: cast.ToStringE}
	Bool    Type = scalar[bool]{name: "bool", conv: cast.ToBoolE}
	Time    Type = scalar[time.Time]{name: "time", conv: cast.ToTimeE}
	Bytes   Type = bytesType{}
	Any     Type = anyType{}
	UUID    Type = uuidType{}
)

// scalar is a type decoded through a cast conversion.
type scalar[T any] struct {
	name string
	conv func(any) (T, error)
}

// toInt64E parses text in base 10 and rejects fractional or out of range
// floats. Other values go through cast.
func toInt64E(raw any) (int64, error) {
	switch v := raw.(type) {
	case string:
		return strconv.ParseInt(v, 10, 64)
	case float32:
		return floatToInt64(float64(v))
	case float64:
		return floatToInt64(v)
	}
	return cast.ToInt64E(raw)
}

func floatToInt64(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= -math.MinInt64 {
		return 0, fmt.Errorf("%v is not an integer", f)
	}
	return int64(f), nil
}

func toIntE(raw any) (int, error) {
	v, err := toInt64E(raw)
	if err != nil {
		return 0, err
	}
	if int64(int(v)) != v {
		return 0, fmt.Errorf("%d overflows int", v)
	}
	return int(v), nil
}

func (s scalar[T]) Name() string { return s.name }

func (s scalar[T]) Decode(raw any) (any, error) {
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	v, err := s.conv(raw)
	if err != nil {
		return nil, fmt.Errorf("schema: decode %T as %s: %w", raw, s.name, err)
	}
	return v, nil
}

func (s scalar[T]) Encode(v any) (any, error) {
	if _, ok := v.(T); !ok {
		return nil, fmt.Errorf("schema: encode %T as %s", v, s.name)
	}
	return v, nil
}

type bytesType struct{}

func (bytesType) Name() string { return "bytes" }

func (bytesType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	}
	return nil, fmt.Errorf("schema: decode %T as bytes", raw)
}

func (bytesType) Encode(v any) (any, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("schema: encode %T as bytes", v)
	}
	return b, nil
}

type anyType struct{}

func (anyType) Name() string                { return "any" }
func (anyType) Decode(raw any) (any, error) { return raw, nil }
func (anyType) Encode(v any) (any, error)   { return v, nil }

type uuidType struct{}

func (uuidType) Name() string { return "uuid" }

func (uuidType) Decode(raw any) (any, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	case [16]byte:
		return uuid.UUID(v), nil
	}
	return nil, fmt.Errorf("schema: decode %T as uuid", raw)
}

func (uuidType) Encode(v any) (any, error) {
	u, ok := v.(uuid.UUID)
	if !ok {
		return nil, fmt.Errorf("schema: encode %T as uuid", v)
	}
	return u.String(), nil
}

// transformed wraps a type with a user supplied decode/encode pair.
type transformed struct {
	base   Type
	decode func(any) (any, error)
	encode func(any) (any, error)
}

func (t transformed) Name() string { return t.base.Name() }

func (t transformed) Decode(raw any) (any, error) {
	v, err := t.base.Decode(raw)
	if err != nil {
		return nil, err
	}
	return t.decode(v)
}

func (t transformed) Encode(v any) (any, error) {
	raw, err := t.encode(v)
	if err != nil {
		return nil, err
	}
	return t.base.Encode(raw)
}

// TypeByName returns the built-in type with the given name.
func TypeByName(name string) (Type, bool) {
	for _, t := range []Type{Int, Int64, Float64, String, Bool, Time, Bytes, Any, UUID} {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}
