package lifecycle

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

const (
	idAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	idCodeLength = 6
	idPrefixLen  = 3
)

// GenerateTaskID builds "<PREFIX>-<CODE>" where PREFIX is the first three
// characters of the department name upper-cased (empty without a department)
// and CODE is six random upper-case alphanumerics. Uniqueness is enforced by
// storage; callers retry on collision.
func GenerateTaskID(departmentName string) string {
	return generateTaskID(departmentName, rand.IntN)
}

func generateTaskID(departmentName string, intn func(int) int) string {
	prefix := departmentName
	if utf8.RuneCountInString(prefix) > idPrefixLen {
		prefix = string([]rune(prefix)[:idPrefixLen])
	}
	prefix = strings.ToUpper(prefix)

	var b strings.Builder
	b.Grow(len(prefix) + 1 + idCodeLength)
	b.WriteString(prefix)
	b.WriteByte('-')
	for i := 0; i < idCodeLength; i++ {
		b.WriteByte(idAlphabet[intn(len(idAlphabet))])
	}
	return b.String()
}
