// Command migrate manages the tenantgate schema (the tenants directory
// table) with goose.
//
// Usage:
//
//	go run ./cmd/migrate up        # apply pending migrations
//	go run ./cmd/migrate down      # roll back the last migration
//	go run ./cmd/migrate status    # list applied and pending migrations
//	go run ./cmd/migrate version   # print the current schema version
//
// DATABASE_URL must point at the same PostgreSQL the server uses.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: migrate <command> [args]")
		fmt.Println("commands: up, down, status, version, redo, up-to <version>, down-to <version>")
		os.Exit(1)
	}
	command, args := os.Args[1], os.Args[2:]

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("connect to database: %v", err)
	}

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		log.Fatalf("goose %s: %v", command, err)
	}
}
