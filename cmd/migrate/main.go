package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// Get database URL
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	// Get command
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}

	command := os.Args[1]

	// Connect to database
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close(ctx)

	switch command {
	case "drop":
		if err := dropTables(ctx, conn); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		fmt.Println("✅ All tables dropped successfully")

	case "up":
		if err := createTables(ctx, conn); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		fmt.Println("✅ All tables created successfully")

	case "seed":
		if err := seedData(ctx, conn); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		fmt.Println("✅ Data seeded successfully")

	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Usage: go run main.go [drop|up|seed]")
		os.Exit(1)
	}
}

func dropTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`DROP TABLE IF EXISTS login_requests CASCADE`,
		`DROP TABLE IF EXISTS sessions CASCADE`,
		`DROP TABLE IF EXISTS accounts CASCADE`,
		`DROP TABLE IF EXISTS provider_settings CASCADE`,
		`DROP TABLE IF EXISTS app_settings CASCADE`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
		fmt.Printf("  Dropped: %s\n", query)
	}

	return nil
}

func createTables(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		// Accounts hold both anonymous and full identities
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY,
			kind VARCHAR(20) NOT NULL DEFAULT 'full',
			username VARCHAR(255),
			email VARCHAR(255),
			name VARCHAR(255),
			avatar_url TEXT,
			google_id VARCHAR(255),
			google_profile JSONB,
			recovery_code VARCHAR(255),
			role VARCHAR(50) NOT NULL DEFAULT 'member',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT accounts_email_key UNIQUE (email),
			CONSTRAINT accounts_google_id_key UNIQUE (google_id),
			CONSTRAINT accounts_username_key UNIQUE (username)
		)`,

		// Sessions tie browser session IDs to accounts
		`CREATE TABLE IF NOT EXISTS sessions (
			session_id VARCHAR(255) PRIMARY KEY,
			account_id UUID REFERENCES accounts(id) ON DELETE CASCADE,
			auth_method VARCHAR(50),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Pending OAuth login requests, the id doubles as the state token
		`CREATE TABLE IF NOT EXISTS login_requests (
			id UUID PRIMARY KEY,
			session_id VARCHAR(255) NOT NULL,
			provider VARCHAR(50) NOT NULL,
			redirect_uri TEXT NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			error TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			completed_at TIMESTAMPTZ
		)`,

		// Per-provider OAuth client credentials, managed by admins
		`CREATE TABLE IF NOT EXISTS provider_settings (
			provider VARCHAR(50) PRIMARY KEY,
			client_id TEXT NOT NULL DEFAULT '',
			client_secret TEXT NOT NULL DEFAULT '',
			enabled BOOLEAN NOT NULL DEFAULT false,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Boolean application flags such as login_enabled
		`CREATE TABLE IF NOT EXISTS app_settings (
			key VARCHAR(100) PRIMARY KEY,
			value BOOLEAN NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		// Create indexes
		`CREATE INDEX IF NOT EXISTS idx_sessions_account_id ON sessions(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_login_requests_expires_at ON login_requests(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_login_requests_session_id ON login_requests(session_id)`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w\nQuery: %s", err, query)
		}
		fmt.Printf("  Created: %s\n", getTableName(query))
	}

	return nil
}

func seedData(ctx context.Context, conn *pgx.Conn) error {
	queries := []string{
		`INSERT INTO app_settings (key, value) VALUES ('login_enabled', TRUE)
		 ON CONFLICT (key) DO NOTHING`,
		`INSERT INTO provider_settings (provider, client_id, client_secret, enabled)
		 VALUES ('google', '', '', false)
		 ON CONFLICT (provider) DO NOTHING`,
	}

	for _, query := range queries {
		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to seed data: %w", err)
		}
	}

	fmt.Println("  Seeded default settings")

	return nil
}

func getTableName(query string) string {
	if len(query) > 50 {
		return query[:50] + "..."
	}
	return query
}
