package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/spf13/cobra"

	"github.com/outstaffer/candidate-summary-api/internal/alpharun"
	"github.com/outstaffer/candidate-summary-api/internal/config"
	"github.com/outstaffer/candidate-summary-api/internal/fireflies"
	"github.com/outstaffer/candidate-summary-api/internal/llm"
	"github.com/outstaffer/candidate-summary-api/internal/prompts"
	"github.com/outstaffer/candidate-summary-api/internal/quil"
	"github.com/outstaffer/candidate-summary-api/internal/recruitcrm"
	"github.com/outstaffer/candidate-summary-api/internal/summary"
	"github.com/outstaffer/candidate-summary-api/internal/types"
)

var (
	genCandidate string
	genJob       string
	genPrompt    string
	genContext   string
	genFireflies string
	genUseQuil   bool
	genOutput    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one candidate summary from the terminal",
	Long:  `Run the single-candidate generation flow against the live integrations and print the resulting HTML, or write it to a file.`,
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&genCandidate, "candidate", "", "RecruitCRM candidate slug")
	generateCmd.Flags().StringVar(&genJob, "job", "", "RecruitCRM job slug")
	generateCmd.Flags().StringVar(&genPrompt, "prompt", "", "Prompt id (defaults to the configured default prompt)")
	generateCmd.Flags().StringVar(&genContext, "context", "", "Additional context passed to the prompt")
	generateCmd.Flags().StringVar(&genFireflies, "fireflies-url", "", "Fireflies transcript URL or id")
	generateCmd.Flags().BoolVar(&genUseQuil, "use-quil", true, "Look for a matching Quil interview note")
	generateCmd.Flags().StringVarP(&genOutput, "output", "o", "", "Write the HTML to this file instead of stdout")
	_ = generateCmd.MarkFlagRequired("candidate")
	_ = generateCmd.MarkFlagRequired("job")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(_ *cobra.Command, _ []string) error {
	cfg := config.FromEnv()
	if cfg.RecruitCRMAPIKey == "" || cfg.GoogleAPIKey == "" {
		return fmt.Errorf("RECRUITCRM_API_KEY and GOOGLE_API_KEY are required")
	}

	ctx := context.Background()
	llmClient, err := llm.NewClient(ctx, llm.FromEnv(), cfg.GoogleAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create model client: %w", err)
	}
	defer llmClient.Close()

	repo, err := promptRepository(ctx, cfg)
	if err != nil {
		return err
	}

	ats := recruitcrm.NewClient(cfg.RecruitCRMAPIKey)
	generator := summary.NewGenerator(llmClient, repo)

	candidate, err := ats.Candidate(ctx, genCandidate)
	if err != nil {
		return fmt.Errorf("failed to fetch candidate %s: %w", genCandidate, err)
	}
	job, err := ats.Job(ctx, genJob)
	if err != nil {
		return fmt.Errorf("failed to fetch job %s: %w", genJob, err)
	}
	if fields, err := ats.AssociatedFields(ctx, genCandidate, genJob); err != nil {
		log.Printf("associated fields fetch failed: %v", err)
	} else {
		candidate.MergeAssociatedFields(fields)
	}

	promptID := genPrompt
	if promptID == "" {
		p, err := repo.Default(ctx, prompts.CategorySingle)
		if err != nil {
			return fmt.Errorf("no default prompt configured: %w", err)
		}
		promptID = p.Slug
	}

	in := summary.Input{
		PromptID:          promptID,
		Candidate:         candidate,
		Job:               job,
		AdditionalContext: genContext,
	}

	if cfg.AlphaRunAPIKey != "" {
		alpharunJobID := job.CustomFields.Value(recruitcrm.FieldJobID)
		interviewID, err := ats.InterviewID(ctx, genCandidate, genJob)
		if err != nil {
			log.Printf("interview id lookup failed: %v", err)
		} else if interviewID != "" && alpharunJobID != "" {
			iv, err := alpharun.NewClient(cfg.AlphaRunAPIKey).Interview(ctx, alpharunJobID, interviewID)
			if err != nil {
				log.Printf("interview fetch failed: %v", err)
			} else {
				in.Interview = iv
			}
		}
	}

	if candidate.HasResume() {
		if file := generator.UploadResume(ctx, candidate.Resume); file != nil {
			in.ResumeFile = file
			defer generator.CleanupFile(context.Background(), file)
		}
	}

	if genUseQuil {
		notes, err := ats.Notes(ctx, genCandidate)
		if err != nil {
			log.Printf("notes fetch failed: %v", err)
		} else if iv := quil.NewSelector(llmClient).InterviewForJob(ctx, notes, genJob, job.Name, jobDescriptionText(job)); iv != nil {
			in.Transcript = &types.Transcript{Title: iv.Title, Content: iv.SummaryHTML}
			in.TranscriptSource = summary.SourceQuil
		}
	}

	if in.Transcript == nil && genFireflies != "" && cfg.FirefliesAPIKey != "" {
		if id := fireflies.ExtractTranscriptID(genFireflies); id == "" {
			log.Printf("invalid fireflies transcript reference: %q", genFireflies)
		} else if raw, err := fireflies.NewClient(cfg.FirefliesAPIKey).Transcript(ctx, id); err != nil {
			log.Printf("fireflies fetch failed: %v", err)
		} else {
			t := fireflies.Normalize(raw)
			in.Transcript = &t
			in.TranscriptSource = summary.SourceFireflies
		}
	}

	html, sources, err := generator.GenerateSummary(ctx, in)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	if html == "" {
		return fmt.Errorf("model returned no content")
	}

	used := "none"
	if names := sources.Names(); len(names) > 0 {
		used = strings.Join(names, ", ")
	}
	log.Printf("Sources used: %s", used)

	if genOutput != "" {
		if err := os.WriteFile(genOutput, []byte(html), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", genOutput, err)
		}
		log.Printf("Summary written to %s", genOutput)
		return nil
	}
	fmt.Println(html)
	return nil
}

// promptRepository mirrors the server's prompt store selection.
func promptRepository(ctx context.Context, cfg *config.Config) (prompts.Repository, error) {
	switch cfg.PromptStore {
	case "firestore":
		fsClient, err := firestore.NewClient(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Firestore: %w", err)
		}
		return prompts.NewFirestoreRepository(fsClient), nil
	case "file":
		repo, err := prompts.NewFileRepository(cfg.PromptDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load prompt directory: %w", err)
		}
		return repo, nil
	default:
		repo, err := prompts.NewMemoryRepository()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded prompts: %w", err)
		}
		return repo, nil
	}
}

// jobDescriptionText pulls the plain-text description off the raw job
// payload when the ATS provides one.
func jobDescriptionText(job *types.Job) string {
	if text, ok := job.Fields["job_description_text"].(string); ok {
		return text
	}
	return ""
}
