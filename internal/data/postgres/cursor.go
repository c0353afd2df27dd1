package postgres

import (
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/Swapica/order-proxy-svc/internal/data"
	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

const cursorTable = "publish_cursors"
const nameCol = "name"

type cursor struct {
	db   *pgdb.DB
	name string
}

func NewCursor(db *pgdb.DB, name string) (data.Cursor, error) {
	q := cursor{db: db, name: name}
	if err := q.init(); err != nil {
		return cursor{}, errors.Wrap(err, "failed to initialize publish cursor storage")
	}
	return q, nil
}

func (q cursor) init() error {
	c, err := q.Get()
	if err != nil {
		return errors.Wrap(err, "failed to check cursor existence")
	}
	if c != nil {
		return nil
	}

	stmt := squirrel.Insert(cursorTable).Columns("seq", nameCol).Values(0, q.name).
		PlaceholderFormat(squirrel.Dollar)
	err = q.db.Exec(stmt)
	return errors.Wrap(err, "failed to insert cursor")
}

func (q cursor) Set(seq uint64) error {
	stmt := squirrel.Update(cursorTable).Set("seq", seq).Where(squirrel.Eq{nameCol: q.name}).
		PlaceholderFormat(squirrel.Dollar)
	err := q.db.Exec(stmt)
	return errors.Wrap(err, "failed to update cursor")
}

func (q cursor) Get() (*uint64, error) {
	var result struct {
		Seq uint64 `db:"seq"`
	}
	stmt := squirrel.Select("seq").From(cursorTable).Where(squirrel.Eq{nameCol: q.name}).
		PlaceholderFormat(squirrel.Dollar)

	if err := q.db.Get(&result, stmt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to select cursor")
	}

	return &result.Seq, nil
}
