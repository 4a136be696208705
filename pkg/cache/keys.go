package cache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// GenerateKeyWithParams joins prefix and params with ":".
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}

// BuildPattern matches every key starting with prefix.
func BuildPattern(prefix string) string {
	return prefix + "*"
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	}
	return json.Marshal(value)
}

func decode(data []byte, dest interface{}) error {
	switch d := dest.(type) {
	case *string:
		*d = string(data)
		return nil
	case *[]byte:
		*d = append((*d)[:0], data...)
		return nil
	}
	return json.Unmarshal(data, dest)
}
