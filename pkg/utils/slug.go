package utils

import (
	"regexp"
	"strings"
)

var (
	nonCodeChars     = regexp.MustCompile(`[^A-Z0-9]+`)
	nonFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)
)

// GenerateCodeFromName создает системный CODE из названия.
// "Hydraulics & Boom" -> "HYDRAU" при maxLen = 6.
func GenerateCodeFromName(name string, maxLen int) string {
	res := nonCodeChars.ReplaceAllString(strings.ToUpper(strings.TrimSpace(name)), "")
	if maxLen > 0 && len(res) > maxLen {
		res = res[:maxLen]
	}
	return res
}

// SanitizeFilename оставляет только [A-Za-z0-9._-], остальное заменяет на "_".
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	res := nonFilenameChars.ReplaceAllString(name, "_")
	res = strings.Trim(res, ".")
	if res == "" {
		return "file"
	}
	return res
}
