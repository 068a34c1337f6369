package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"eventcrm/internal/domain"
)

const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern returns an ILIKE pattern matching s as a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// whereBuilder accumulates AND-ed conditions with positional arguments.
// Every "?" in a condition is bound to the same argument.
type whereBuilder struct {
	conds []string
	args  []any
}

func (w *whereBuilder) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// page appends LIMIT/OFFSET for params. A zero PageSize adds nothing.
func (w *whereBuilder) page(params domain.PaginationParams) (string, []any) {
	if params.PageSize <= 0 {
		return "", w.args
	}
	args := append(append([]any{}, w.args...), params.PageSize, params.Offset())
	n := len(w.args)
	return " LIMIT $" + strconv.Itoa(n+1) + " OFFSET $" + strconv.Itoa(n+2), args
}

// orderBy renders ORDER BY for order using columns as the only source of SQL text.
// The tiebreak column keeps pagination stable.
func orderBy(order domain.SortOrder, def domain.SortOrder, columns map[string]string, tiebreak string) string {
	col, ok := columns[order.Field]
	if !ok {
		order = def
		col = columns[def.Field]
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	return " ORDER BY " + col + " " + dir + ", " + tiebreak + " ASC"
}
