// Command fix_prompt_types repairs the type field on migrated prompt
// documents. Early migrations wrote every prompt as a summary prompt, which
// made email templates show up in the summary pickers. It also re-asserts
// "summary-for-platform-v2" as the single-candidate default.
//
// Runs as a dry run unless -apply is given.
//
// Usage:
//
//	go run cmd/tools/fix_prompt_types/main.go [-apply]
//
// Requires GCP_PROJECT_ID environment variable to be set.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/firestore"

	"github.com/outstaffer/candidate-summary-api/internal/prompts"
)

// typeFixes maps slug prefixes to the type those prompts should carry.
var typeFixes = map[string]string{
	"recruitment":                   prompts.TypeSummary,
	"anonymous":                     prompts.TypeSummary,
	"candidate-submission":          prompts.TypeEmail,
	"email-summary-using-summaries": prompts.TypeEmail,
}

const defaultSlug = "summary-for-platform-v2"

func main() {
	apply := flag.Bool("apply", false, "write the fixes instead of printing them")
	flag.Parse()

	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		fmt.Fprintln(os.Stderr, "ERROR: GCP_PROJECT_ID environment variable not set")
		os.Exit(1)
	}

	ctx := context.Background()
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to connect to Firestore: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	repo := prompts.NewFirestoreRepository(client)
	all, err := repo.All(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: Failed to list prompts: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("=== Prompt Type Repair ===")
	fmt.Println()

	fixed, ok := 0, 0
	for i := range all {
		p := all[i]
		want := wantedType(p.Slug)
		if want == "" || p.Type == want {
			ok++
			continue
		}
		if *apply {
			was := p.Type
			p.Type = want
			if err := repo.Update(ctx, &p); err != nil {
				fmt.Fprintf(os.Stderr, "ERROR: Failed to update %s: %v\n", p.Slug, err)
				os.Exit(1)
			}
			fmt.Printf("fixed %s: %s -> %s\n", p.Slug, was, want)
		} else {
			fmt.Printf("would fix %s: %s -> %s\n", p.Slug, p.Type, want)
		}
		fixed++
	}

	if *apply {
		if err := repo.SetDefault(ctx, defaultSlug, "fix_prompt_types"); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Failed to set default %s: %v\n", defaultSlug, err)
			os.Exit(1)
		}
		fmt.Printf("default re-asserted: %s\n", defaultSlug)
	} else {
		fmt.Printf("would re-assert default: %s\n", defaultSlug)
	}

	fmt.Printf("\n%d fixed, %d already correct\n", fixed, ok)
	if !*apply {
		fmt.Println("dry run, nothing written (use -apply)")
	}
}

// wantedType returns the type a slug should carry, or "" when no rule matches.
func wantedType(slug string) string {
	for prefix, typ := range typeFixes {
		if strings.HasPrefix(slug, prefix) {
			return typ
		}
	}
	return ""
}
