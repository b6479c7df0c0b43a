package main

// Database drivers of the SQL graph source, by driver name: postgres, pgx,
// mysql and sqlite.
import (
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)
