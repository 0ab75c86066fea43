package store

import (
	"fmt"
	"time"
)

// Kind is the storage class of a column value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindReal
	KindText
	KindBlob
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "integer"
	case KindReal:
		return "real"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a single decoded column.
type Value struct {
	Kind Kind
	Int  int64
	Real float64
	Text string
	Blob []byte
}

func NullValue() Value { return Value{Kind: KindNull} }
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }
func RealValue(f float64) Value { return Value{Kind: KindReal, Real: f} }
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }
func BlobValue(b []byte) Value { return Value{Kind: KindBlob, Blob: b} }
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Row maps column names to decoded values.
type Row map[string]Value

func bindParams(params []any) ([]any, error) {
	args := make([]any, len(params))
	for i, p := range params {
		v, ok := bindParam(p)
		if !ok {
			return nil, InvalidParameter(i, p)
		}
		args[i] = v
	}
	return args, nil
}

// bindParam converts a Go value to what the driver stores: booleans become
// 0/1 and instants become epoch seconds.
func bindParam(p any) (any, bool) {
	switch v := p.(type) {
	case nil:
		return nil, true
	case string:
		return v, true
	case *string:
		if v == nil {
			return nil, true
		}
		return *v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return int64(1), true
		}
		return int64(0), true
	case time.Time:
		return v.Unix(), true
	case *time.Time:
		if v == nil {
			return nil, true
		}
		return v.Unix(), true
	case []byte:
		return v, true
	case Value:
		switch v.Kind {
		case KindNull:
			return nil, true
		case KindInt:
			return v.Int, true
		case KindReal:
			return v.Real, true
		case KindText:
			return v.Text, true
		case KindBlob:
			return v.Blob, true
		}
	}
	return nil, false
}

func decodeValue(column string, raw any) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return NullValue(), nil
	case int64:
		return IntValue(v), nil
	case int:
		return IntValue(int64(v)), nil
	case float64:
		return RealValue(v), nil
	case bool:
		if v {
			return IntValue(1), nil
		}
		return IntValue(0), nil
	case string:
		return TextValue(v), nil
	case []byte:
		return BlobValue(v), nil
	case time.Time:
		return IntValue(v.Unix()), nil
	}
	return Value{}, InvalidData(column, fmt.Sprintf("unsupported storage class %T", raw))
}

func (r Row) value(field string) (Value, error) {
	v, ok := r[field]
	if !ok {
		return Value{}, InvalidData(field, "missing column")
	}
	return v, nil
}

func mismatch(field string, want string, v Value) error {
	return InvalidData(field, fmt.Sprintf("expected %s, got %s", want, v.Kind))
}

// Text returns a non-null text column. Blobs are accepted as UTF-8.
func (r Row) Text(field string) (string, error) {
	v, err := r.value(field)
	if err != nil {
		return "", err
	}
	switch v.Kind {
	case KindText:
		return v.Text, nil
	case KindBlob:
		return string(v.Blob), nil
	}
	return "", mismatch(field, "text", v)
}

// OptText returns nil for a null column.
func (r Row) OptText(field string) (*string, error) {
	v, err := r.value(field)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	s, err := r.Text(field)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r Row) Int(field string) (int64, error) {
	v, err := r.value(field)
	if err != nil {
		return 0, err
	}
	if v.Kind != KindInt {
		return 0, mismatch(field, "integer", v)
	}
	return v.Int, nil
}

// Float accepts integer columns too; SQLite stores 3.0 as 3.
func (r Row) Float(field string) (float64, error) {
	v, err := r.value(field)
	if err != nil {
		return 0, err
	}
	switch v.Kind {
	case KindReal:
		return v.Real, nil
	case KindInt:
		return float64(v.Int), nil
	}
	return 0, mismatch(field, "real", v)
}

func (r Row) Bool(field string) (bool, error) {
	n, err := r.Int(field)
	if err != nil {
		return false, err
	}
	switch n {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, InvalidData(field, fmt.Sprintf("expected 0 or 1, got %d", n))
}

// Time decodes epoch seconds into a local instant.
func (r Row) Time(field string) (time.Time, error) {
	n, err := r.Int(field)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(n, 0), nil
}

func (r Row) OptTime(field string) (*time.Time, error) {
	v, err := r.value(field)
	if err != nil {
		return nil, err
	}
	if v.IsNull() {
		return nil, nil
	}
	t, err := r.Time(field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r Row) Bytes(field string) ([]byte, error) {
	v, err := r.value(field)
	if err != nil {
		return nil, err
	}
	switch v.Kind {
	case KindBlob:
		return v.Blob, nil
	case KindText:
		return []byte(v.Text), nil
	}
	return nil, mismatch(field, "blob", v)
}
