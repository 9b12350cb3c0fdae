package db

import (
	"strconv"
	"strings"
)

// rebind rewrites ? placeholders to $1, $2... for PostgreSQL.
// Queries in this package never contain a literal '?'.
func (b Backend) rebind(q string) string {
	if b != Postgres {
		return q
	}
	var sb strings.Builder
	sb.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteByte(q[i])
	}
	return sb.String()
}
