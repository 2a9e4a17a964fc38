package operations

import (
	"bytes"
	"crypto/sha256"
	"encoding"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sync"

	"github.com/smartcontractkit/operation-factory/pkg/logger"
)

// IsSerializable reports whether value survives a JSON round trip into a value of the same type
// without losing data. Values with unexported fields, channels or functions fail the check.
func IsSerializable(lggr logger.Logger, value any) bool {
	if value == nil {
		return true
	}

	raw, err := json.Marshal(value)
	if err != nil {
		lggr.Errorw("Value is not serializable", "type", reflect.TypeOf(value).String(), "error", err)
		return false
	}

	decoded := reflect.New(reflect.TypeOf(value))
	if err := json.Unmarshal(raw, decoded.Interface()); err != nil {
		lggr.Errorw("Value cannot be restored", "type", reflect.TypeOf(value).String(), "error", err)
		return false
	}

	again, err := json.Marshal(decoded.Elem().Interface())
	if err != nil || string(again) != string(raw) {
		lggr.Errorw("Value changes when serialized", "type", reflect.TypeOf(value).String())
		return false
	}

	if !exportedOnly(reflect.TypeOf(value), map[reflect.Type]bool{}) {
		lggr.Errorw("Value has unexported fields", "type", reflect.TypeOf(value).String())
		return false
	}

	return true
}

// exportedOnly reports whether every struct field reachable from t is exported or explicitly
// skipped by the json tag.
func exportedOnly(t reflect.Type, seen map[reflect.Type]bool) bool {
	if seen[t] {
		return true
	}
	seen[t] = true

	switch reflect.New(t).Interface().(type) {
	case json.Marshaler, encoding.TextMarshaler:
		return true
	}

	switch t.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return exportedOnly(t.Elem(), seen)
	case reflect.Map:
		return exportedOnly(t.Key(), seen) && exportedOnly(t.Elem(), seen)
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if f.Tag.Get("json") == "-" {
				continue
			}
			if !f.IsExported() && !f.Anonymous {
				return false
			}
			if !exportedOnly(f.Type, seen) {
				return false
			}
		}
	case reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return false
	default:
	}

	return true
}

// hashDefinitionInput identifies an execution by its definition and input.
func hashDefinitionInput(def Definition, input any) (string, error) {
	raw, err := json.Marshal(struct {
		Def   Definition `json:"definition"`
		Input any        `json:"input"`
	}{def, input})
	if err != nil {
		return "", err
	}

	// normalize so typed inputs and inputs read back from storage hash the same
	var normalized any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&normalized); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}

func cachedReportHash(cache *sync.Map, report Report[any, any]) (string, error) {
	if cache != nil {
		if hash, ok := cache.Load(report.ID); ok {
			return hash.(string), nil
		}
	}

	hash, err := hashDefinitionInput(report.Def, report.Input)
	if err != nil {
		return "", err
	}
	if cache != nil {
		cache.Store(report.ID, hash)
	}

	return hash, nil
}
