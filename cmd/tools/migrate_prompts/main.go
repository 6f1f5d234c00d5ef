// Command migrate_prompts seeds the Firestore prompt collection from the
// embedded prompt library, optionally merging prompts from a local directory.
// It also creates the webhook automation config document when one does not
// exist yet.
//
// Usage:
//
//	go run cmd/tools/migrate_prompts/main.go [-dry-run] [-prompt-dir DIR]
//
// Requires GCP_PROJECT_ID environment variable to be set.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"

	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/store"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "print what would be migrated without writing")
	promptDir := flag.String("prompt-dir", "", "also migrate prompts from this directory")
	flag.Parse()

	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		fmt.Fprintln(os.Stderr, "ERROR: GCP_PROJECT_ID environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()

	memory, err := prompts.NewMemoryRepository()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to load embedded prompts: %v\n", err)
		os.Exit(1)
	}
	all, err := memory.All(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to list embedded prompts: %v\n", err)
		os.Exit(1)
	}

	if *promptDir != "" {
		fileRepo, err := prompts.NewFileRepository(*promptDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to load prompt directory: %v\n", err)
			os.Exit(1)
		}
		extra, err := fileRepo.All(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to list prompt directory: %v\n", err)
			os.Exit(1)
		}
		all = mergePrompts(all, extra)
	}

	fmt.Println("=== Prompt Migration ===")
	fmt.Println()

	if *dryRun {
		for _, p := range all {
			fmt.Printf("would migrate prompt %s (%s/%s, default=%t)\n", p.Slug, p.Category, p.Type, p.IsDefault)
		}
		fmt.Printf("\n%d prompts total (dry run, nothing written)\n", len(all))
		return
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to Firestore: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	repo := prompts.NewFirestoreRepository(client)
	created, skipped := 0, 0
	for i := range all {
		p := all[i]
		err := repo.Create(ctx, &p)
		switch {
		case errors.Is(err, prompts.ErrExists):
			fmt.Printf("skip %s (already exists)\n", p.Slug)
			skipped++
		case err != nil:
			fmt.Fprintf(os.Stderr, "ERROR: Failed to create %s: %v\n", p.Slug, err)
			os.Exit(1)
		default:
			fmt.Printf("created %s (%s/%s, default=%t)\n", p.Slug, p.Category, p.Type, p.IsDefault)
			created++
		}
	}
	fmt.Printf("\n%d created, %d skipped\n", created, skipped)

	// Seed the automation config alongside the prompts so a fresh project
	// has something for the admin UI to edit.
	st := store.New(client)
	if _, err := st.GetWebhookConfig(ctx); errors.Is(err, store.ErrNotFound) {
		if _, err := st.UpdateWebhookConfig(ctx, store.DefaultWebhookConfig()); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to seed webhook config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("seeded default webhook config")
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to read webhook config: %v\n", err)
		os.Exit(1)
	} else {
		fmt.Println("webhook config already present, left untouched")
	}
}

// mergePrompts appends prompts from extra whose slug is not already present.
func mergePrompts(base, extra []prompts.Prompt) []prompts.Prompt {
	seen := make(map[string]bool, len(base))
	for _, p := range base {
		seen[p.Slug] = true
	}
	for _, p := range extra {
		if !seen[p.Slug] {
			base = append(base, p)
			seen[p.Slug] = true
		}
	}
	return base
}
