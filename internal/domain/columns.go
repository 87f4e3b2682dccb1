package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList is an ordered list of strings stored as a JSON array column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return encodeColumn([]string(l))
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil || len(raw) == 0 {
		*l = StringList{}
		return err
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// Properties is an open key/value mapping stored as a JSON object column
type Properties map[string]any

// Value implements driver.Valuer
func (p Properties) Value() (driver.Value, error) {
	if p == nil {
		p = Properties{}
	}
	return encodeColumn(map[string]any(p))
}

// Scan implements sql.Scanner
func (p *Properties) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil || len(raw) == 0 {
		*p = Properties{}
		return err
	}
	return json.Unmarshal(raw, (*map[string]any)(p))
}

// encodeColumn writes v as compact JSON, leaving &, < and > as typed
func encodeColumn(v any) (driver.Value, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func columnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
