// Package pdf renders summary HTML into PDF bytes using headless Chrome.
// Requires Chrome/Chromium to be installed on the system.
package pdf

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds a single render including browser startup.
const DefaultTimeout = 30 * time.Second

var filenameSanitizer = strings.NewReplacer(" ", "_", "/", "_")

// Filename builds the attachment filename for a candidate and job pair.
func Filename(candidateName, jobName string) string {
	return fmt.Sprintf("%s-%s.pdf", filenameSanitizer.Replace(candidateName), filenameSanitizer.Replace(jobName))
}

// Renderer converts HTML documents to PDF in a headless browser.
type Renderer struct {
	timeout time.Duration
}

// NewRenderer returns a renderer with the default timeout
func NewRenderer() *Renderer {
	return &Renderer{timeout: DefaultTimeout}
}

// NewRendererWithTimeout returns a renderer with a custom per-render timeout
func NewRendererWithTimeout(timeout time.Duration) *Renderer {
	return &Renderer{timeout: timeout}
}

// Generate renders htmlContent to PDF and returns the bytes plus the
// attachment filename for the candidate and job.
func (r *Renderer) Generate(ctx context.Context, htmlContent, candidateName, jobName string) ([]byte, string, error) {
	filename := Filename(candidateName, jobName)

	pdfBytes, err := r.render(ctx, htmlContent)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[pdf] generated %s (%d bytes)", filename, len(pdfBytes))
	return pdfBytes, filename, nil
}

func (r *Renderer) render(ctx context.Context, htmlContent string) ([]byte, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
	defer cancel()

	var pdfBytes []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBytes = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("pdf rendering failed: %w", err)
	}
	return pdfBytes, nil
}
