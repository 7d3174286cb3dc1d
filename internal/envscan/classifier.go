package envscan

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/matrixops/homeport/internal/descriptor"
)

var secretPatterns = []string{
	"secret", "key", "token", "password", "pass", "pwd",
	"auth", "authorization", "credential", "cred",
	"private", "priv", "cert", "certificate",
	"api_key", "apikey", "access_key", "secret_key",
	"client_secret", "client_id", "oauth",
	"bearer", "jwt", "session", "cookie",
	"salt", "hash", "signature", "signing",
	"encryption", "decrypt", "cipher",
	"webhook", "hook", "vault", "secure",
}

var databasePatterns = []string{
	"database_url", "db_url", "dsn", "connection_string",
	"postgres_url", "mysql_url", "mongodb_url", "redis_url",
}

var systemEnvVars = []string{
	"path", "home", "user", "shell", "pwd", "lang", "term", "tmpdir",
	"editor", "pager", "browser", "display", "hostname", "logname",
	"oldpwd", "shlvl", "uid", "gid",
}

// wellKnownTypes pins the homeserver override dialect to its actual types,
// ahead of the pattern heuristics. Without this the toggles would trip the
// "encryption"/"session" secret patterns.
var wellKnownTypes = map[string]EnvType{
	descriptor.EnvServerName:            EnvTypeConfig,
	descriptor.EnvAddress:               EnvTypeConfig,
	descriptor.EnvPort:                  EnvTypeNumeric,
	descriptor.EnvLog:                   EnvTypeConfig,
	descriptor.EnvDatabasePath:          EnvTypeConfig,
	descriptor.EnvMaxRequestSize:        EnvTypeNumeric,
	descriptor.EnvMaxConcurrentRequests: EnvTypeNumeric,
	descriptor.EnvAllowRegistration:     EnvTypeBoolean,
	descriptor.EnvAllowEncryption:       EnvTypeBoolean,
	descriptor.EnvAllowFederation:       EnvTypeBoolean,
	descriptor.EnvTrustedServers:        EnvTypeConfig,
	descriptor.EnvRegistrationToken:     EnvTypeSecret,
}

// ShouldIgnore reports whether a variable is shell/system noise with no
// place in a deployment report.
func ShouldIgnore(name string) bool {
	lower := strings.ToLower(name)
	for _, sysVar := range systemEnvVars {
		if lower == sysVar {
			return true
		}
	}
	return false
}

// ClassifyEnvVar determines the type and sensitivity of a variable.
func ClassifyEnvVar(name, value string) (EnvType, bool) {
	if t, ok := wellKnownTypes[name]; ok {
		return t, t == EnvTypeSecret
	}

	nameLower := strings.ToLower(name)

	if looksGenerated(value) {
		return EnvTypeGenerated, true
	}

	for _, pattern := range databasePatterns {
		if strings.Contains(nameLower, pattern) {
			return EnvTypeDatabase, true
		}
	}

	for _, pattern := range secretPatterns {
		if strings.Contains(nameLower, pattern) {
			return EnvTypeSecret, true
		}
	}

	if strings.HasPrefix(value, "http") || strings.Contains(nameLower, "url") {
		return EnvTypeURL, false
	}

	if value == "true" || value == "false" || strings.Contains(nameLower, "enable") ||
		strings.Contains(nameLower, "allow") || strings.Contains(nameLower, "flag") {
		return EnvTypeBoolean, false
	}

	if isNumeric(value) {
		return EnvTypeNumeric, false
	}

	return EnvTypeConfig, false
}

func looksGenerated(value string) bool {
	if len(value) < 8 {
		return false
	}

	// UUID pattern (36 chars with dashes)
	if len(value) == 36 && strings.Count(value, "-") == 4 {
		return true
	}

	// JWT tokens (3 base64 parts separated by dots)
	if strings.Count(value, ".") == 2 && len(value) > 50 {
		return true
	}

	// General high-entropy check for other generated values
	if len(value) >= 20 && hasHighEntropy(value) && containsMixedCase(value) && isURLSafeBase64(value) {
		return true
	}

	return false
}

func isURLSafeBase64(s string) bool {
	for _, r := range s {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func hasHighEntropy(value string) bool {
	charCount := make(map[rune]int)
	for _, r := range value {
		charCount[r]++
	}
	uniqueRatio := float64(len(charCount)) / float64(len(value))
	return uniqueRatio > 0.5
}

func containsMixedCase(value string) bool {
	hasUpper := false
	hasLower := false
	for _, r := range value {
		if unicode.IsUpper(r) {
			hasUpper = true
		}
		if unicode.IsLower(r) {
			hasLower = true
		}
		if hasUpper && hasLower {
			return true
		}
	}
	return false
}

func isNumeric(value string) bool {
	_, err := strconv.Atoi(value)
	return err == nil
}
