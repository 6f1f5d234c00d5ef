// Command check_prompts lists every prompt visible to the configured store
// and reports counts by category and type. Useful for verifying a migration
// or spotting a missing default.
//
// Usage:
//
//	go run cmd/tools/check_prompts/main.go
//
// Reads PROMPT_STORE, PROMPT_DIR and GCP_PROJECT_ID like the server does.
package main

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/outstaffer/candidate-summary-api/internal/prompts"
)

func main() {
	ctx := context.Background()

	repo, err := openRepository(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	all, err := repo.All(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to list prompts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Prompt Inventory ===")
	fmt.Println()

	byCategory := map[string]int{}
	byType := map[string]int{}
	for _, p := range all {
		marker := " "
		if p.IsDefault {
			marker = "*"
		}
		state := "enabled"
		if !p.Enabled {
			state = "disabled"
		}
		fmt.Printf("%s %-40s %-10s %-8s %s\n", marker, p.Slug, p.Category, p.Type, state)
		byCategory[p.Category]++
		byType[p.Type]++
	}

	fmt.Printf("\n%d prompts total\n", len(all))
	for category, n := range byCategory {
		fmt.Printf("  category %s: %d\n", category, n)
	}
	for typ, n := range byType {
		fmt.Printf("  type %s: %d\n", typ, n)
	}

	for _, category := range []string{prompts.CategorySingle, prompts.CategoryMultiple} {
		if p, err := repo.Default(ctx, category); err != nil {
			fmt.Printf("  default for %s: MISSING\n", category)
		} else {
			fmt.Printf("  default for %s: %s\n", category, p.Slug)
		}
	}
}

func openRepository(ctx context.Context) (prompts.Repository, error) {
	switch os.Getenv("PROMPT_STORE") {
	case "firestore":
		projectID := os.Getenv("GCP_PROJECT_ID")
		if projectID == "" {
			return nil, fmt.Errorf("GCP_PROJECT_ID environment variable not set")
		}
		client, err := firestore.NewClient(ctx, projectID)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
		}
		return prompts.NewFirestoreRepository(client), nil
	case "file":
		dir := os.Getenv("PROMPT_DIR")
		if dir == "" {
			return nil, fmt.Errorf("PROMPT_DIR environment variable not set")
		}
		return prompts.NewFileRepository(dir)
	default:
		return prompts.NewMemoryRepository()
	}
}
