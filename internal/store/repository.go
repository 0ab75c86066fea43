package store

// RowMapper turns one decoded row into a record. It must report a missing or
// malformed column as InvalidData rather than panicking.
type RowMapper[T any] func(Row) (T, error)

// Repository supplies typed query and update primitives to the concrete
// repositories. Every call runs through the Conn worker, so callers never
// need their own locking.
type Repository[T any] struct {
	conn   *Conn
	mapRow RowMapper[T]
}

func NewRepository[T any](conn *Conn, mapRow RowMapper[T]) *Repository[T] {
	return &Repository[T]{conn: conn, mapRow: mapRow}
}

// ExecuteQuery binds params positionally and returns the decoded rows.
func (r *Repository[T]) ExecuteQuery(query string, params ...any) ([]Row, error) {
	return RunSync(r.conn, func(h *Handle) ([]Row, error) {
		return queryRows(h, query, params...)
	})
}

// ExecuteUpdate binds params positionally and returns the rows affected.
func (r *Repository[T]) ExecuteUpdate(query string, params ...any) (int64, error) {
	return RunSync(r.conn, func(h *Handle) (int64, error) {
		return execUpdate(h, query, params...)
	})
}

// QueryAll runs query and maps every row. An empty result is a nil slice.
func (r *Repository[T]) QueryAll(query string, params ...any) ([]T, error) {
	rows, err := r.ExecuteQuery(query, params...)
	if err != nil {
		return nil, err
	}
	return r.MapRows(rows)
}

// QueryOne maps the first row of query, or fails with NotFound naming
// resource and id when there is none.
func (r *Repository[T]) QueryOne(resource, id, query string, params ...any) (T, error) {
	var zero T
	rows, err := r.ExecuteQuery(query, params...)
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, NotFound(resource, id)
	}
	return r.mapRow(rows[0])
}

func (r *Repository[T]) MapRows(rows []Row) ([]T, error) {
	var out []T
	for _, row := range rows {
		v, err := r.mapRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// MapRow exposes the mapper for rows read inside a transaction.
func (r *Repository[T]) MapRow(row Row) (T, error) {
	return r.mapRow(row)
}
