// Package secrets classifies filenames and text for sensitive-configuration
// signals. Pure functions only, no state and no I/O.

package secrets

import (
	"regexp"
	"strings"
)

var sensitiveKeywords = []string{
	"password", "passwd", "secret", "token", "api_key",
	"private_key", "auth", "credential", "database",
}

var secretFilenameHints = []string{
	"secret", "credential", "id_rsa", ".env", "htpasswd", "auth",
}

var configFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.env(\..+)?$`),
	regexp.MustCompile(`\.ya?ml$`),
	regexp.MustCompile(`\.json$`),
	regexp.MustCompile(`\.xml$`),
	regexp.MustCompile(`\.properties$`),
	regexp.MustCompile(`\.ini$`),
	regexp.MustCompile(`\.conf$`),
	regexp.MustCompile(`\.cfg$`),
	regexp.MustCompile(`\.toml$`),
	regexp.MustCompile(`(^|/)config\.[^/]+$`),
	regexp.MustCompile(`(^|/)settings\.[^/]+$`),
}

// IsConfigFilename reports whether name looks like a configuration file.
func IsConfigFilename(name string) bool {
	lowered := strings.ToLower(name)
	for _, p := range configFilePatterns {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}

// IsSecretFilename reports whether name alone suggests stored secrets.
func IsSecretFilename(name string) bool {
	lowered := strings.ToLower(name)
	for _, hint := range secretFilenameHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}

// ScanKeywords returns the distinct sensitive keywords present in text,
// in the fixed keyword order. Matching is case-insensitive.
func ScanKeywords(text string) []string {
	if text == "" {
		return nil
	}
	lowered := strings.ToLower(text)
	var found []string
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lowered, kw) {
			found = append(found, kw)
		}
	}
	return found
}
