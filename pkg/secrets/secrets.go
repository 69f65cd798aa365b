package secrets

import (
	"encoding/json"
	"os"
	"strings"
	"sync"
)

var (
	once          sync.Once
	sensitiveEnvs []string

	headerKeySet = map[string]struct{}{
		"x-admin-key":         {},
		"authorization":       {},
		"proxy-authorization": {},
		"api-key":             {},
	}

	// JSON-RPC params carrying credentials must never reach the logs.
	paramKeySet = map[string]struct{}{
		"passphrase":       {},
		"secondpassphrase": {},
		"privatekey":       {},
		"wif":              {},
		"password":         {},
	}

	envNameSensitivePatterns = []string{
		"API_KEY", "TOKEN", "SECRET", "PASSWORD", "ACCESS_KEY", "PRIVATE_KEY",
	}
)

func initSensitiveEnvs() {
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, val := parts[0], parts[1]
		up := strings.ToUpper(name)
		for _, pat := range envNameSensitivePatterns {
			if strings.Contains(up, pat) && val != "" {
				sensitiveEnvs = append(sensitiveEnvs, val)
				break
			}
		}
	}
}

func RedactHeaders(h map[string]string) map[string]string {
	if len(h) == 0 {
		return h
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if _, ok := headerKeySet[strings.ToLower(k)]; ok {
			out[k] = "***"
			continue
		}
		out[k] = v
	}
	return out
}

// RedactJSONBody masks credential-bearing fields in a JSON document before
// it is logged. Non-object JSON and unparsable input are returned as-is;
// redaction is best effort, logging must not fail a request.
func RedactJSONBody(b []byte) []byte {
	var doc map[string]any
	if err := json.Unmarshal(b, &doc); err != nil {
		return b
	}
	redactMap(doc)
	out, err := json.Marshal(doc)
	if err != nil {
		return b
	}
	return out
}

func redactMap(m map[string]any) {
	for k, v := range m {
		if _, ok := paramKeySet[strings.ToLower(k)]; ok {
			m[k] = "***"
			continue
		}
		switch child := v.(type) {
		case map[string]any:
			redactMap(child)
		case []any:
			for _, item := range child {
				if cm, ok := item.(map[string]any); ok {
					redactMap(cm)
				}
			}
		}
	}
}

func RedactString(s string) string {
	once.Do(initSensitiveEnvs)
	for _, val := range sensitiveEnvs {
		if val == "" {
			continue
		}
		s = strings.ReplaceAll(s, val, "[HIDDEN]")
	}
	return s
}
