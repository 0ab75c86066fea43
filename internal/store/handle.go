package store

import (
	"database/sql"
	"fmt"
)

// Handle is the worker's view of the database. It is only valid inside a
// closure passed to RunSync, Do or WithTx.
type Handle struct {
	db *sql.DB
	tx *sql.Tx
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	Prepare(query string) (*sql.Stmt, error)
}

// With a single physical connection every statement has to go through the
// open transaction, or it would wait for a connection the tx is holding.
func (h *Handle) conn() execer {
	if h.tx != nil {
		return h.tx
	}
	return h.db
}

// Execute runs a statement that takes no parameters and returns no rows.
func (h *Handle) Execute(query string) error {
	if _, err := h.conn().Exec(query); err != nil {
		return QueryError(query, err)
	}
	return nil
}

// Prepare compiles query. The statement must be released with Finalize.
func (h *Handle) Prepare(query string) (*sql.Stmt, error) {
	stmt, err := h.conn().Prepare(query)
	if err != nil {
		return nil, QueryError(query, err)
	}
	return stmt, nil
}

// Finalize releases a prepared statement. A nil statement is ignored.
func (h *Handle) Finalize(stmt *sql.Stmt) error {
	if stmt == nil {
		return nil
	}
	return stmt.Close()
}

// InTx reports whether a transaction is open.
func (h *Handle) InTx() bool {
	return h.tx != nil
}

// Begin opens a transaction. It is a no-op when one is already open.
func (h *Handle) Begin() error {
	if h.tx != nil {
		return nil
	}
	tx, err := h.db.Begin()
	if err != nil {
		return QueryError("BEGIN", err)
	}
	h.tx = tx
	return nil
}

// Commit commits the open transaction. It is a no-op outside a transaction.
func (h *Handle) Commit() error {
	if h.tx == nil {
		return nil
	}
	tx := h.tx
	h.tx = nil
	if err := tx.Commit(); err != nil {
		return QueryError("COMMIT", err)
	}
	return nil
}

// Rollback aborts the open transaction. It is a no-op outside a transaction.
func (h *Handle) Rollback() error {
	if h.tx == nil {
		return nil
	}
	tx := h.tx
	h.tx = nil
	if err := tx.Rollback(); err != nil {
		return QueryError("ROLLBACK", err)
	}
	return nil
}

// queryRows binds params, runs query and decodes every row.
func queryRows(h *Handle, query string, params ...any) ([]Row, error) {
	args, err := bindParams(params)
	if err != nil {
		return nil, err
	}

	stmt, err := h.Prepare(query)
	if err != nil {
		return nil, err
	}
	defer h.Finalize(stmt)

	rows, err := stmt.Query(args...)
	if err != nil {
		return nil, QueryError(query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, QueryError(query, err)
	}

	var out []Row
	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, QueryError(query, err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			v, err := decodeValue(col, raw[i])
			if err != nil {
				return nil, err
			}
			row[col] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, QueryError(query, err)
	}
	return out, nil
}

// execUpdate binds params, runs query and returns the number of rows changed.
func execUpdate(h *Handle, query string, params ...any) (int64, error) {
	args, err := bindParams(params)
	if err != nil {
		return 0, err
	}

	stmt, err := h.Prepare(query)
	if err != nil {
		return 0, err
	}
	defer h.Finalize(stmt)

	res, err := stmt.Exec(args...)
	if err != nil {
		return 0, QueryError(query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
