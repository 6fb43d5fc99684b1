package postgres

import (
	"fmt"
	"strings"

	"github.com/hrygo/skedule/internal/util"
	"github.com/hrygo/skedule/store"
)

// placeholder returns the n-th positional parameter for PostgreSQL ($1, $2, ...).
func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func placeholders(n int) string {
	list := make([]string, 0, n)
	for i := 0; i < n; i++ {
		list = append(list, placeholder(i+1))
	}
	return strings.Join(list, ", ")
}

// titleCondition returns the WHERE fragment and argument matching task.title against pattern.
func titleCondition(match store.MatchPolicy, pattern string, n int) (string, any) {
	if match == store.MatchExact {
		return "task.title = " + placeholder(n), pattern
	}
	return `unaccent(task.title) ILIKE unaccent(` + placeholder(n) + `) ESCAPE '\'`, "%" + util.EscapeLike(pattern) + "%"
}
