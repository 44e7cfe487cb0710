// seed inserts two confirmed users and a demo project into the local dev
// database. Re-running it is safe.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/infrastructure/postgres"
	"github.com/ErlanBelekov/uptask-api/internal/password"
	"github.com/jackc/pgx/v5/pgxpool"
)

const seedPassword = "password123"

type userSpec struct {
	name  string
	email string
}

var (
	manager = userSpec{"seed-manager", "manager@test.local"}
	member  = userSpec{"seed-member", "member@test.local"}
)

var tasks = []struct {
	name        string
	description string
	status      string
}{
	{"Wireframes", "Low fidelity wireframes for every page", "completed"},
	{"Design system", "Colors, typography and components", "underReview"},
	{"Landing page", "Implement the landing page", "inProgress"},
	{"Contact form", "Form with validation and mail delivery", "pending"},
	{"Analytics", "Waiting on the client's tracking ids", "onHold"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL, postgres.PoolConfig{MaxConns: 2, ConnectTimeout: 5 * time.Second})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hasher, err := password.New(password.DevelopmentConfig())
	if err != nil {
		log.Fatalf("hasher: %v", err)
	}
	hash, err := hasher.Hash(seedPassword)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}

	managerID := upsertUser(ctx, pool, manager, hash)
	memberID := upsertUser(ctx, pool, member, hash)

	var projectID string
	err = pool.QueryRow(ctx, `
		SELECT id FROM projects WHERE manager_id = $1 AND project_name = 'Seed project'`,
		managerID,
	).Scan(&projectID)
	if err != nil {
		err = pool.QueryRow(ctx, `
			INSERT INTO projects (project_name, client_name, description, manager_id)
			VALUES ('Seed project', 'ACME', 'Demo project created by cmd/seed', $1)
			RETURNING id`,
			managerID,
		).Scan(&projectID)
		if err != nil {
			log.Fatalf("insert project: %v", err)
		}

		for _, t := range tasks {
			if _, err := pool.Exec(ctx, `
				INSERT INTO tasks (project_id, name, description, status) VALUES ($1, $2, $3, $4)`,
				projectID, t.name, t.description, t.status,
			); err != nil {
				log.Fatalf("insert task %s: %v", t.name, err)
			}
		}
	}

	if _, err := pool.Exec(ctx, `
		INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`,
		projectID, memberID,
	); err != nil {
		log.Fatalf("add member: %v", err)
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Manager:  %s / %s\n", manager.email, seedPassword)
	fmt.Printf("  Member:   %s / %s\n", member.email, seedPassword)
	fmt.Printf("  Project:  %s\n", projectID)
	fmt.Println()
	fmt.Println("Log in:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/api/v1/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", manager.email, seedPassword)
	fmt.Println()
	fmt.Println("    export JWT=<accessToken>")
	fmt.Printf("    curl -s http://localhost:8080/api/v1/projects/%s/tasks -H \"Authorization: Bearer $JWT\"\n", projectID)
}

func upsertUser(ctx context.Context, pool *pgxpool.Pool, u userSpec, hash string) string {
	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, confirmed)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (email) DO UPDATE SET password_hash = EXCLUDED.password_hash, confirmed = TRUE, updated_at = NOW()
		RETURNING id`,
		u.name, u.email, hash,
	).Scan(&id)
	if err != nil {
		log.Fatalf("upsert user %s: %v", u.email, err)
	}
	return id
}
