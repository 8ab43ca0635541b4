package common

import "strings"

// BaseName returns file up to its first dot ("tokyo.jpg" -> "tokyo").
func BaseName(file string) string {
	base, _, _ := strings.Cut(file, ".")
	return base
}
