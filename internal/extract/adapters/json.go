package adapters

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// flexFloat decodes a number that review APIs send either as a JSON number or a
// numeric string. null and unparseable values decode to nil.
type flexFloat struct {
	Value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	s := strings.Trim(string(b), `"`)
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		f.Value = &v
	}
	return nil
}

// flexBool decodes booleans that arrive as true/false, "true"/"false", 0/1 or
// a non-empty descriptor such as "buyer"
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	switch t := v.(type) {
	case bool:
		*f = flexBool(t)
	case float64:
		*f = t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "", "false", "0", "no", "nothing", "none":
			*f = false
		default:
			*f = true
		}
	}
	return nil
}

func nonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
