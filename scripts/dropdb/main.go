// Drops every application table for the configured environment. Useful when
// the schema changes during development; prod tables require an explicit
// CONFIRM_PROD=yes.
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	prefix := env + "_"
	if custom := os.Getenv("TABLE_PREFIX"); custom != "" {
		prefix = custom
	}

	if env == "prod" && os.Getenv("CONFIRM_PROD") != "yes" {
		log.Fatal("refusing to drop prod tables without CONFIRM_PROD=yes")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Drop children before parents so the foreign keys do not block.
	tables := []string{
		prefix + "messages",
		prefix + "conversations",
		prefix + "users",
	}

	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)); err != nil {
			log.Fatalf("failed to drop %s: %v", table, err)
		}
		fmt.Printf("dropped %s\n", table)
	}

	fmt.Println("done")
}
