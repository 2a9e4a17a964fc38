package datastore

import (
	"bytes"
	"encoding/json"
)

// clone copies v through JSON. Numbers are kept as json.Number so large integers survive.
func clone[T any](v T) (T, error) {
	var zero T
	b, err := json.Marshal(v)
	if err != nil {
		return zero, err
	}

	var cloned T
	decoder := json.NewDecoder(bytes.NewReader(b))
	decoder.UseNumber()
	if err = decoder.Decode(&cloned); err != nil {
		return zero, err
	}

	return cloned, nil
}

// convert re-decodes v into T.
func convert[T any](v any) (T, error) {
	var out T
	b, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, err
	}

	return out, nil
}
