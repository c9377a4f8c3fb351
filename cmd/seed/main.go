// cmd/seed/main.go
package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Create the warehouse schema and load sample order data",
		Commands: []*cli.Command{
			{
				Name:   "schema",
				Usage:  "Create the order and allocation-run tables",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runSchema,
			},
			{
				Name:   "sample",
				Usage:  "Insert sample order lines for local development",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runSample,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runSchema(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	statements := []string{
		`CREATE TABLE IF NOT EXISTS order_skus (
			id BIGSERIAL PRIMARY KEY,
			order_id BIGINT NOT NULL,
			code TEXT NOT NULL,
			quantity INT NOT NULL DEFAULT 1,
			ordered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			fulfilled_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ,
			closed_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_order_skus_code ON order_skus (code)`,
		`CREATE INDEX IF NOT EXISTS idx_order_skus_fulfilled_at ON order_skus (fulfilled_at)`,
		`CREATE TABLE IF NOT EXISTS allocation_runs (
			id BIGSERIAL PRIMARY KEY,
			status TEXT NOT NULL,
			total_skus INT NOT NULL DEFAULT 0,
			updated_skus INT NOT NULL DEFAULT 0,
			shortage_skus INT NOT NULL DEFAULT 0,
			failed_skus INT NOT NULL DEFAULT 0,
			started_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ,
			error_message TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS allocation_shortages (
			id BIGSERIAL PRIMARY KEY,
			run_id BIGINT NOT NULL REFERENCES allocation_runs (id),
			sku_code TEXT NOT NULL,
			unmet_count INT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocation_shortages_run_id ON allocation_shortages (run_id)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(c.Context, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	log.Println("Schema created")
	return nil
}

func runSample(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now()
	shipped := now.Add(-48 * time.Hour)

	type orderLine struct {
		orderID     int64
		code        string
		quantity    int
		fulfilledAt *time.Time
	}

	lines := []orderLine{
		{1001, "SKU-BASIC-BLK", 2, nil},
		{1001, "SKU-BASIC-WHT", 1, nil},
		{1002, "SKU-BASIC-BLK", 3, nil},
		{1003, "SKU-LIMITED-RED", 5, nil},
		{1004, "SKU-BASIC-BLK", 1, &shipped},
		{1005, "SKU-LIMITED-RED", 2, &shipped},
	}

	query := `
		INSERT INTO order_skus (order_id, code, quantity, ordered_at, fulfilled_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, line := range lines {
		if _, err := db.ExecContext(c.Context, query,
			line.orderID, line.code, line.quantity, now.Add(-72*time.Hour), line.fulfilledAt); err != nil {
			return fmt.Errorf("failed to insert order line: %w", err)
		}
	}

	log.Printf("Inserted %d sample order lines", len(lines))
	return nil
}
