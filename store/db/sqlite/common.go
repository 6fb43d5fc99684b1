package sqlite

import (
	"strings"

	"github.com/hrygo/skedule/internal/util"
	"github.com/hrygo/skedule/store"
)

// placeholder returns a placeholder for SQLite (uses ?)
func placeholder(_ int) string {
	return "?"
}

// placeholders returns n placeholders for SQLite
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
	return `fold(task.title) LIKE ` + placeholder(n) + ` ESCAPE '\'`, "%" + util.EscapeLike(util.Fold(pattern)) + "%"
}
