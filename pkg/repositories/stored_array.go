package repositories

import (
	"encoding/json"

	"github.com/ekaya-inc/food-agent/pkg/storage"
)

// storedElement is one element of a JSON array file. Elements that do not decode
// as T keep their raw bytes and are written back unchanged.
type storedElement[T any] struct {
	value T
	raw   json.RawMessage
}

func (e storedElement[T]) decoded() bool { return e.raw == nil }

func (e storedElement[T]) MarshalJSON() ([]byte, error) {
	if e.raw != nil {
		return e.raw, nil
	}
	return json.Marshal(e.value)
}

// readStoredArray reads the JSON array at path element by element. It returns the
// elements, how many could not be decoded as T and whether the file exists. Only a
// file that is not a JSON array at all is an error.
func readStoredArray[T any](path string) (elems []storedElement[T], undecoded int, exists bool, err error) {
	var raws []json.RawMessage
	exists, err = storage.ReadJSON(path, &raws)
	if err != nil {
		return nil, 0, exists, err
	}

	elems = make([]storedElement[T], 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			elems = append(elems, storedElement[T]{raw: raw})
			undecoded++
			continue
		}
		elems = append(elems, storedElement[T]{value: v})
	}
	return elems, undecoded, exists, nil
}

// values returns the decoded elements in file order.
func values[T any](elems []storedElement[T]) []T {
	out := make([]T, 0, len(elems))
	for _, e := range elems {
		if e.decoded() {
			out = append(out, e.value)
		}
	}
	return out
}

func wrapValues[T any](vs []T) []storedElement[T] {
	out := make([]storedElement[T], len(vs))
	for i, v := range vs {
		out[i] = storedElement[T]{value: v}
	}
	return out
}
