package firestore

import (
	"fmt"
	"path"
	"time"

	firestorev1 "google.golang.org/api/firestore/v1"
)

func stringValue(s string) firestorev1.Value {
	return firestorev1.Value{StringValue: s, ForceSendFields: []string{"StringValue"}}
}

func integerValue(n int64) firestorev1.Value {
	return firestorev1.Value{IntegerValue: n, ForceSendFields: []string{"IntegerValue"}}
}

func getString(fields map[string]firestorev1.Value, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	return v.StringValue
}

func getInt(fields map[string]firestorev1.Value, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	return int(v.IntegerValue)
}

// getTime reads a timestampValue. Missing or null fields yield the zero time.
func getTime(fields map[string]firestorev1.Value, key string) (time.Time, error) {
	v, ok := fields[key]
	if !ok || v.TimestampValue == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v.TimestampValue)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s timestamp %q: %w", key, v.TimestampValue, err)
	}
	return t, nil
}

// docID returns the final path segment of a document name
func docID(name string) string {
	return path.Base(name)
}

// serverTimestamp returns the time Firestore applied the first transform of the first write
func serverTimestamp(resp *firestorev1.CommitResponse) (time.Time, error) {
	if resp == nil || len(resp.WriteResults) == 0 || len(resp.WriteResults[0].TransformResults) == 0 {
		if resp != nil && resp.CommitTime != "" {
			return time.Parse(time.RFC3339Nano, resp.CommitTime)
		}
		return time.Time{}, fmt.Errorf("commit response missing transform results")
	}
	return time.Parse(time.RFC3339Nano, resp.WriteResults[0].TransformResults[0].TimestampValue)
}
