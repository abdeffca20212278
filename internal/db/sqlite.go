package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/myrjola/gatehouse/internal/errors"
	"github.com/myrjola/gatehouse/internal/random"

	_ "embed"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed init.sql
var initialiseSchemaScript string

// DBs holds the two database connections, one for read/write operations and
// one for read-only operations. Splitting the two is a best practice for
// sqlite mentioned in https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
type DBs struct {
	ReadWrite *sqlx.DB
	Read      *sqlx.DB
}

// NewDB establishes the database connections and initialises the schema.
//
// The read/write connection is limited to a single open connection to avoid
// SQLITE_BUSY errors under concurrent writes.
func NewDB(ctx context.Context, url string) (*DBs, error) {
	var (
		err         error
		readWriteDB *sqlx.DB
		readDB      *sqlx.DB
	)

	// In-memory databases need shared cache mode so that both connections
	// access the same data. A random name keeps separate DBs instances from
	// sharing state, which matters for parallel tests.
	cacheConfig := "&cache=private"
	if url == ":memory:" {
		var name string
		if name, err = random.Letters(20); err != nil {
			return nil, errors.Wrap(err, "generate in-memory db name")
		}
		url = name
		cacheConfig = "&mode=memory&cache=shared"
	}

	readConfig := fmt.Sprintf("file:%s?_txlock=deferred&_journal_mode=wal&_busy_timeout=5000&_synchronous=normal%s", url, cacheConfig)
	readWriteConfig := fmt.Sprintf("file:%s?_txlock=immediate&_journal_mode=wal&_busy_timeout=5000&_synchronous=normal%s", url, cacheConfig)

	if readWriteDB, err = sqlx.ConnectContext(ctx, "sqlite3", readWriteConfig); err != nil {
		return nil, errors.Wrap(err, "connect read/write db")
	}

	readWriteDB.SetMaxOpenConns(1)
	readWriteDB.SetMaxIdleConns(1)
	readWriteDB.SetConnMaxLifetime(time.Hour)
	readWriteDB.SetConnMaxIdleTime(time.Hour)

	if _, err = readWriteDB.ExecContext(ctx, initialiseSchemaScript); err != nil {
		return nil, errors.Wrap(err, "initialise schema")
	}

	if readDB, err = sqlx.ConnectContext(ctx, "sqlite3", readConfig); err != nil {
		return nil, errors.Wrap(err, "connect read db")
	}

	readDB.SetMaxOpenConns(10)
	readDB.SetMaxIdleConns(10)
	readDB.SetConnMaxLifetime(time.Hour)
	readDB.SetConnMaxIdleTime(time.Hour)

	return &DBs{ReadWrite: readWriteDB, Read: readDB}, nil
}

// Close closes both connections and joins the errors.
func (dbs *DBs) Close() error {
	return errors.Join(dbs.ReadWrite.Close(), dbs.Read.Close())
}
