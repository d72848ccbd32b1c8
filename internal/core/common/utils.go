package common

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSON decodes a model response into T. Providers routinely wrap the
// object in markdown fences or surrounding prose, so the response is cut
// down to the outermost '{' .. '}' span before unmarshalling.
func ParseJSON[T any](response string) (T, error) {
	var out T

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end < start {
		return out, fmt.Errorf("no JSON object found in response")
	}
	data := response[start : end+1]

	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal JSON: %w\nData: %s", err, data)
	}
	return out, nil
}
