package postgres

import (
	_ "embed"
	"strings"

	"gitlab.com/distributed_lab/kit/pgdb"
	"gitlab.com/distributed_lab/logan/v3/errors"
)

//go:embed schema.sql
var schema string

const downMarker = "-- +migrate Down"

func MigrateUp(db *pgdb.DB) error {
	up, _ := splitSchema()
	return errors.Wrap(db.ExecRaw(up), "failed to apply schema")
}

func MigrateDown(db *pgdb.DB) error {
	_, down := splitSchema()
	return errors.Wrap(db.ExecRaw(down), "failed to drop schema")
}

func splitSchema() (up, down string) {
	i := strings.Index(schema, downMarker)
	if i < 0 {
		return schema, ""
	}
	return schema[:i], schema[i+len(downMarker):]
}
