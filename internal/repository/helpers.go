package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/hangman/api/internal/database"
)

// isUniqueConstraintError checks if an error is a unique index violation
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unique") ||
		strings.Contains(errStr, "duplicate") ||
		strings.Contains(errStr, "already contains")
}

// inTable reports whether id is a record ID of table. Lookups with an ID
// from another table must miss instead of loading the wrong record.
func inTable(id, table string) bool {
	return strings.HasPrefix(id, table+":") && len(id) > len(table)+1
}

// convertSurrealID converts a SurrealDB ID (which may be a complex object) to a string
func convertSurrealID(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case models.RecordID:
		return fmt.Sprintf("%s:%v", v.Table, v.ID)
	case *models.RecordID:
		if v != nil {
			return fmt.Sprintf("%s:%v", v.Table, v.ID)
		}
	case map[string]interface{}:
		// {"tb": "game", "id": "xxx"} or {"tb": "game", "id": {"String": "xxx"}}
		tb, _ := v["tb"].(string)
		idPart := ""
		if idVal, ok := v["id"]; ok {
			idPart = extractIDValue(idVal)
		}
		if tb != "" && idPart != "" {
			return tb + ":" + idPart
		}
		return idPart
	}
	return fmt.Sprintf("%v", id)
}

func extractIDValue(val interface{}) string {
	if str, ok := val.(string); ok {
		return str
	}
	if m, ok := val.(map[string]interface{}); ok {
		if s, ok := m["String"].(string); ok {
			return s
		}
	}
	return fmt.Sprintf("%v", val)
}

// unwrapRecord navigates the {status, result: [...]} wrapper down to one
// record map
func unwrapRecord(result interface{}) (map[string]interface{}, error) {
	if result == nil {
		return nil, database.ErrNotFound
	}

	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok {
				if len(resultData) == 0 {
					return nil, database.ErrNotFound
				}
				result = resultData[0]
			}
		}
	}
	if arr, ok := result.([]interface{}); ok {
		if len(arr) == 0 {
			return nil, database.ErrNotFound
		}
		result = arr[0]
	}

	data, ok := result.(map[string]interface{})
	if !ok {
		return nil, errors.New("unexpected result format")
	}
	return data, nil
}

// extractQueryResults extracts the records of the first statement
func extractQueryResults(result []interface{}) []map[string]interface{} {
	if len(result) == 0 {
		return nil
	}
	rows := result
	if first, ok := result[0].(map[string]interface{}); ok {
		if resultArray, ok := first["result"].([]interface{}); ok {
			rows = resultArray
		}
	}

	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		if m, ok := row.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}
	return out
}

// extractCount extracts count from a `SELECT count() ... GROUP ALL` result
func extractCount(result interface{}) int {
	if resp, ok := result.(map[string]interface{}); ok {
		if status, ok := resp["status"].(string); ok && status == "OK" {
			if resultData, ok := resp["result"].([]interface{}); ok && len(resultData) > 0 {
				if data, ok := resultData[0].(map[string]interface{}); ok {
					return toInt(data["count"])
				}
			}
		}
		return toInt(resp["count"])
	}
	return 0
}

// toInt converts the numeric types a CBOR decode can produce to int
func toInt(v interface{}) int {
	switch c := v.(type) {
	case float64:
		return int(c)
	case float32:
		return int(c)
	case int:
		return c
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case int32:
		return int(c)
	case uint32:
		return int(c)
	}
	return 0
}

// getString extracts a string value from a map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// getID extracts a record ID field as a string
func getID(m map[string]interface{}, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	return convertSurrealID(v)
}

// getInt extracts an int value from a map
func getInt(m map[string]interface{}, key string) int {
	return toInt(m[key])
}

// getInt64Ptr extracts an optional int64 value from a map
func getInt64Ptr(m map[string]interface{}, key string) *int64 {
	switch v := m[key].(type) {
	case int64:
		return &v
	case uint64:
		n := int64(v)
		return &n
	case int:
		n := int64(v)
		return &n
	case float64:
		n := int64(v)
		return &n
	}
	return nil
}

// getFloat extracts a float value from a map
func getFloat(m map[string]interface{}, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	}
	return float64(toInt(m[key]))
}

// getBool extracts a bool value from a map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

// getTime extracts a time value from a map
func getTime(m map[string]interface{}, key string) *time.Time {
	switch v := m[key].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &t
		}
	case time.Time:
		return &v
	case models.CustomDateTime:
		t := v.Time
		return &t
	case *models.CustomDateTime:
		if v != nil {
			t := v.Time
			return &t
		}
	}
	return nil
}

// getTimeValue is getTime with a zero fallback
func getTimeValue(m map[string]interface{}, key string) time.Time {
	if t := getTime(m, key); t != nil {
		return *t
	}
	return time.Time{}
}

// getStringSlice extracts a string slice from a map
func getStringSlice(m map[string]interface{}, key string) []string {
	result := []string{}
	if v, ok := m[key].([]interface{}); ok {
		for _, item := range v {
			if s, ok := item.(string); ok {
				result = append(result, s)
			}
		}
	}
	return result
}

// getMap extracts a nested object from a map
func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

// surrealTime wraps t so it is stored as a SurrealDB datetime
func surrealTime(t time.Time) models.CustomDateTime {
	return models.CustomDateTime{Time: t.UTC()}
}

// surrealTimePtr is surrealTime for optional timestamps; nil stays NULL
func surrealTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return surrealTime(*t)
}

// setClause renders "a = $a, b = $b" for the given field names
func setClause(fields []string) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " = $" + f
	}
	return strings.Join(parts, ", ")
}
