package api

import (
	"bytes"
	"encoding/json"

	"school-activities/internal/activities"
)

// activityListing renders activities as a JSON object keyed by name, keeping
// seed order. A Go map would sort the keys.
type activityListing []activities.Activity

func (l activityListing) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range l {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(a.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
