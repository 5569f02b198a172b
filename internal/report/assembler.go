// Package report reshapes a document's stored agent output into a
// client-facing report payload.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/db"
	"github.com/dmarsh/docketmind/internal/llm"
)

// summaryTimeout bounds the optional report-summary LLM call. The summary is
// best effort; a slow provider degrades it, never the report.
const summaryTimeout = 15 * time.Second

// summaryPlaceholder is returned when the summary call fails or times out.
const summaryPlaceholder = "Summary unavailable."

// Store is the slice of the database the assembler needs.
type Store interface {
	GetDocument(ctx context.Context, ownerID, id uuid.UUID) (*db.Document, error)
	GetAgentOutput(ctx context.Context, documentID uuid.UUID) (*db.AgentOutput, error)
}

// Section is one titled block of report content.
type Section struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// AgentReport groups one persona's sections.
type AgentReport struct {
	AgentName string    `json:"agent_name"`
	Sections  []Section `json:"sections"`
}

// Payload is the assembled report.
type Payload struct {
	Format      string        `json:"format"`
	Template    string        `json:"template"`
	Document    *db.Document  `json:"document"`
	Agents      []AgentReport `json:"agents"`
	Summary     *string       `json:"summary,omitempty"`
	DownloadURL *string       `json:"download_url"`
}

// Options controls report assembly.
type Options struct {
	Template       string
	Format         string
	IncludeSummary bool
}

// Assembler builds report payloads from stored agent outputs.
type Assembler struct {
	store Store
	llm   llm.Client
	tier  llm.ModelTier
}

// New creates an assembler. The LLM client is only used for the optional
// prose summary and may be nil, in which case summaries use the placeholder.
func New(store Store, client llm.Client) *Assembler {
	return &Assembler{
		store: store,
		llm:   client,
		tier:  llm.TierLite,
	}
}

// Build assembles the report for a document. The document must be owned by
// ownerID and must have a stored agent output.
func (a *Assembler) Build(ctx context.Context, ownerID, documentID uuid.UUID, opts Options) (*Payload, error) {
	doc, err := a.store.GetDocument(ctx, ownerID, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load document: %w", err)
	}
	if doc == nil {
		return nil, &ErrDocumentNotFound{DocumentID: documentID}
	}

	output, err := a.store.GetAgentOutput(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent output: %w", err)
	}
	if output == nil {
		return nil, &ErrNoOutput{DocumentID: documentID}
	}

	payload := &Payload{
		Format:   normalizeFormat(opts.Format),
		Template: opts.Template,
		Document: doc,
		Agents:   buildAgentReports(output),
	}

	if opts.IncludeSummary {
		summary := a.summarize(ctx, doc, payload.Agents)
		payload.Summary = &summary
	}

	return payload, nil
}

func normalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "json"
	}
	return format
}

// buildAgentReports emits one report per persona containing exactly the
// non-empty output fields, in the persona's fixed field order.
func buildAgentReports(output *db.AgentOutput) []AgentReport {
	reports := make([]AgentReport, 0, 3)

	jester := sections(
		Section{Title: "Meme Caption", Content: output.JesterMemeCaption},
		Section{Title: "Video Script", Content: output.JesterVideoScript},
		Section{Title: "Social Post", Content: output.JesterSocialPost},
	)
	if len(jester) > 0 {
		reports = append(reports, AgentReport{AgentName: "jester", Sections: jester})
	}

	arbiter := sections(
		Section{Title: "Violations", Content: decodeJoined(output.ArbiterViolations)},
		Section{Title: "Citations", Content: decodeJoined(output.ArbiterCitations)},
		Section{Title: "Analysis", Content: output.ArbiterAnalysis},
	)
	if len(arbiter) > 0 {
		reports = append(reports, AgentReport{AgentName: "arbiter", Sections: arbiter})
	}

	merchant := sections(
		Section{Title: "Product Name", Content: output.MerchantProductName},
		Section{Title: "Product Description", Content: output.MerchantProductDescription},
		Section{Title: "Product Link", Content: output.MerchantProductLink},
	)
	if len(merchant) > 0 {
		reports = append(reports, AgentReport{AgentName: "merchant", Sections: merchant})
	}

	return reports
}

// sections keeps only the candidates with non-empty content.
func sections(candidates ...Section) []Section {
	var kept []Section
	for _, s := range candidates {
		if strings.TrimSpace(s.Content) != "" {
			kept = append(kept, s)
		}
	}
	return kept
}

// decodeJoined turns a stored JSON string array into a semicolon-joined line.
// Values that fail to decode are passed through as-is rather than dropped.
func decodeJoined(raw string) string {
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return raw
	}
	return strings.Join(items, "; ")
}

// summarize asks the LLM for a short prose summary of the report. Failures
// and timeouts fall back to a placeholder.
func (a *Assembler) summarize(ctx context.Context, doc *db.Document, agents []AgentReport) string {
	if a.llm == nil {
		return summaryPlaceholder
	}

	callCtx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	summary, err := a.llm.Generate(callCtx, []llm.Message{
		llm.SystemMessage("You summarize legal document analysis reports in 2-3 plain sentences. No markdown, no preamble."),
		llm.UserMessage(buildSummaryPrompt(doc, agents)),
	}, a.tier)
	if err != nil {
		log.Printf("[report] summary generation failed for document %s: %v", doc.ID, err)
		return summaryPlaceholder
	}

	summary = strings.TrimSpace(summary)
	if summary == "" {
		return summaryPlaceholder
	}
	return summary
}

func buildSummaryPrompt(doc *db.Document, agents []AgentReport) string {
	var sb strings.Builder
	sb.WriteString("Report for document \"")
	sb.WriteString(doc.FileName)
	sb.WriteString("\":\n")
	for _, agent := range agents {
		sb.WriteString("\n## ")
		sb.WriteString(agent.AgentName)
		sb.WriteString("\n")
		for _, s := range agent.Sections {
			sb.WriteString(s.Title)
			sb.WriteString(": ")
			sb.WriteString(s.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
