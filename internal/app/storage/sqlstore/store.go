// Package sqlstore implements the storage port on top of a SQL database.
// Each collection is a table of (seq, id, doc) rows where doc is the JSON
// document and seq preserves insertion order.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/R3E-Network/data_harmony/internal/app/domain/user"
	"github.com/R3E-Network/data_harmony/internal/app/storage"
	"github.com/R3E-Network/data_harmony/internal/platform/migrations"
)

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	tableUsers    = "users"
	tablePosts    = "posts"
	tableComments = "comments"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// DB owns the connection pool shared by the collections.
type DB struct {
	db *sqlx.DB
}

// Open connects to the database, verifies it within pingTimeout and applies
// migrations.
func Open(ctx context.Context, driver, dsn string, pingTimeout time.Duration) (*DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}
	if dsn == "" {
		return nil, errors.New("sqlstore: dsn not configured")
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", driver)
	}
	if driver == DriverSQLite {
		// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	pingCtx := ctx
	if pingTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, pingTimeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "ping %s", driver)
	}

	if driver == DriverPostgres {
		err = migrations.ApplyPostgres(ctx, db.DB)
	} else {
		err = migrations.Apply(ctx, db.DB)
	}
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// NewDB wraps an already migrated connection. driverName selects the
// placeholder style.
func NewDB(db *sql.DB, driverName string) *DB {
	return &DB{db: sqlx.NewDb(db, driverName)}
}

// Stores returns the three collections backed by this database.
func (d *DB) Stores() storage.Stores {
	return storage.Stores{
		Users:    NewCollection[user.User](d, tableUsers),
		Posts:    NewCollection[user.Post](d, tablePosts),
		Comments: NewCollection[user.Comment](d, tableComments),
	}
}

// Close releases the pool.
func (d *DB) Close() error {
	return d.db.Close()
}

var _ storage.Closer = (*DB)(nil)

// Collection is a table-backed storage.Collection.
type Collection[T storage.Document] struct {
	db    *sqlx.DB
	table string
}

var _ storage.UserStore = (*Collection[user.User])(nil)
var _ storage.PostStore = (*Collection[user.Post])(nil)
var _ storage.CommentStore = (*Collection[user.Comment])(nil)

// NewCollection binds a collection to table. The table name is trusted.
func NewCollection[T storage.Document](d *DB, table string) *Collection[T] {
	return &Collection[T]{db: d.db, table: table}
}

func (c *Collection[T]) query(format string) string {
	return c.db.Rebind(fmt.Sprintf(format, c.table))
}

func (c *Collection[T]) FindAll(ctx context.Context) ([]T, error) {
	var raws [][]byte
	if err := c.db.SelectContext(ctx, &raws, c.query(`SELECT doc FROM %s ORDER BY seq`)); err != nil {
		return nil, errors.Wrapf(err, "select %s", c.table)
	}

	out := make([]T, 0, len(raws))
	for _, raw := range raws {
		var doc T
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, errors.Wrapf(err, "decode %s document", c.table)
		}
		out = append(out, doc)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id int64) (T, bool, error) {
	var (
		doc T
		raw []byte
	)
	err := c.db.GetContext(ctx, &raw, c.query(`SELECT doc FROM %s WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return doc, false, nil
	}
	if err != nil {
		return doc, false, errors.Wrapf(err, "get %s %d", c.table, id)
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, false, errors.Wrapf(err, "decode %s document", c.table)
	}
	return doc, true, nil
}

func (c *Collection[T]) InsertOne(ctx context.Context, doc T) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrapf(err, "encode %s document", c.table)
	}
	_, err = c.db.ExecContext(ctx, c.query(`INSERT INTO %s (id, doc) VALUES (?, ?)`), doc.DocumentID(), string(raw))
	return c.insertErr(err, doc.DocumentID())
}

// InsertMany writes docs in one transaction.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []T) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := c.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, c.query(`INSERT INTO %s (id, doc) VALUES (?, ?)`))
	if err != nil {
		return errors.Wrapf(err, "prepare insert %s", c.table)
	}
	defer stmt.Close()

	for _, doc := range docs {
		raw, err := json.Marshal(doc)
		if err != nil {
			return errors.Wrapf(err, "encode %s document", c.table)
		}
		if _, err := stmt.ExecContext(ctx, doc.DocumentID(), string(raw)); err != nil {
			return c.insertErr(err, doc.DocumentID())
		}
	}
	return errors.Wrap(tx.Commit(), "commit")
}

func (c *Collection[T]) DeleteOne(ctx context.Context, id int64) (bool, error) {
	res, err := c.db.ExecContext(ctx, c.query(`DELETE FROM %s WHERE id = ?`), id)
	if err != nil {
		return false, errors.Wrapf(err, "delete %s %d", c.table, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "rows affected")
	}
	return n > 0, nil
}

func (c *Collection[T]) DeleteAll(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, c.query(`DELETE FROM %s`))
	if err != nil {
		return 0, errors.Wrapf(err, "clear %s", c.table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "rows affected")
	}
	return n, nil
}

func (c *Collection[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := c.db.GetContext(ctx, &n, c.query(`SELECT COUNT(*) FROM %s`)); err != nil {
		return 0, errors.Wrapf(err, "count %s", c.table)
	}
	return n, nil
}

func (c *Collection[T]) MaxID(ctx context.Context) (int64, error) {
	var id int64
	if err := c.db.GetContext(ctx, &id, c.query(`SELECT COALESCE(MAX(id), 0) FROM %s`)); err != nil {
		return 0, errors.Wrapf(err, "max id %s", c.table)
	}
	return id, nil
}

func (c *Collection[T]) insertErr(err error, id int64) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return errors.Wrapf(storage.ErrDuplicateID, "%s id %d", c.table, id)
	}
	return errors.Wrapf(err, "insert %s %d", c.table, id)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		}
	}
	return false
}
