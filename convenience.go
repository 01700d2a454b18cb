package serializr

import (
	"github.com/goccy/go-json"
)

// MarshalJSON serializes thing through schema and encodes the result as
// JSON.
func MarshalJSON(schema *ModelSchema, thing any) ([]byte, error) {
	value, err := Serialize(schema, thing)
	if err != nil {
		return nil, err
	}
	return json.Marshal(value)
}

// UnmarshalJSON decodes data as JSON and deserializes it through schema,
// blocking until the whole graph (including any reference awaits) has
// settled. customArgs is forwarded to Deserialize unchanged.
func UnmarshalJSON(schema *ModelSchema, data []byte, customArgs any) (any, error) {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, err
	}

	type outcome struct {
		value any
		err   error
	}
	done := make(chan outcome, 1)

	Deserialize(schema, decoded, func(err error, value any) {
		done <- outcome{value: value, err: err}
	}, customArgs)

	result := <-done
	return result.value, result.err
}
