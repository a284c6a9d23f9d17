package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNotObject = errors.New("not a JSON object")

// field is one member of a JSON object as it appeared in the source.
type field struct {
	key   string
	value json.RawMessage
}

// rawObject keeps a decoded object's members in document order so a record
// can be written back with every key it was read with, known or not.
type rawObject []field

// decodeObject splits a JSON object into its members without interpreting
// the values. It returns errNotObject for any other JSON value.
func decodeObject(data []byte) (rawObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}

	obj := rawObject{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		obj = append(obj, field{key: key, value: compact(v)})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

// lookup returns the last value stored under key.
func (o rawObject) lookup(key string) (json.RawMessage, bool) {
	for i := len(o) - 1; i >= 0; i-- {
		if o[i].key == key {
			return o[i].value, true
		}
	}
	return nil, false
}

// with returns a copy of o where the last member named key holds value, or
// with the member appended when key is absent.
func (o rawObject) with(key string, value json.RawMessage) rawObject {
	out := make(rawObject, len(o), len(o)+1)
	copy(out, o)
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].key == key {
			out[i].value = value
			return out
		}
	}
	return append(out, field{key: key, value: value})
}

func (o rawObject) encode() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshal(f.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// marshal is json.Marshal without HTML escaping, so text read from the
// dataset is written back unchanged.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// compact strips insignificant whitespace, leaving data unchanged if it is
// not valid JSON.
func compact(data []byte) json.RawMessage {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(data)); err != nil {
		return append(json.RawMessage(nil), data...)
	}
	return buf.Bytes()
}

// looseString reads a text field that hand-edited data may hold as a number
// or boolean. Strings decode normally, null is empty, anything else keeps its
// JSON text.
func looseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
