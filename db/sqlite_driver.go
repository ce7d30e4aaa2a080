package db

import (
	"database/sql"

	"github.com/mattn/go-sqlite3"
)

// SQLiteDriverName is the database/sql driver that registers the MySQL
// functions on every connection.
const SQLiteDriverName = "sqlite3_mylite"

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{
		ConnectHook: RegisterMySQLFunctions,
	})
}
