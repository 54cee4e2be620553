// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render turns workflow results into reader-facing artifacts,
// selecting and phrasing sections by the reader's financial literacy.
// Rendering is pure: no clock, no IO, same result in means same artifact
// out.
// Implements: prd006-presentation (R1-R3);
//
//	docs/ARCHITECTURE § Presentation.
package render

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// Artifact is a rendered research result.
// Per prd006-presentation R1.2.
type Artifact struct {
	// Symbol is the researched ticker.
	Symbol string `json:"symbol" yaml:"symbol"`

	// Literacy is the reader level the artifact was rendered for.
	Literacy types.Literacy `json:"literacy" yaml:"literacy"`

	// Markdown is the rendered document.
	Markdown string `json:"markdown" yaml:"markdown"`

	// Omitted names the sections the literacy filter dropped.
	Omitted []string `json:"omitted,omitempty" yaml:"omitted,omitempty"`
}

// Render builds the Markdown artifact for a result at the given literacy
// level. An empty literacy renders for beginners; an unknown one is a
// validation error. Per prd006-presentation R2.
func Render(result *types.WorkflowResult, literacy types.Literacy) (*Artifact, error) {
	const op = "render.Render"
	if result == nil {
		return nil, types.NewError(types.KindValidation, op, "no result to render")
	}
	lit, err := types.ParseLiteracy(string(literacy))
	if err != nil {
		return nil, err
	}

	included := make([]types.Section, 0, len(result.Sections))
	var omitted []string
	for _, sec := range result.Sections {
		if sec.Audience.Includes(lit) {
			included = append(included, sec)
		} else {
			omitted = append(omitted, sec.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s Research\n\n", result.Symbol)
	fmt.Fprintf(&b, "%s workflow over a %s horizon, executed %s.\n",
		workflowLabel(result.Workflow),
		strings.ReplaceAll(string(result.Timeframe), "_", " "),
		result.ExecutedAt.UTC().Format("2006-01-02 15:04 MST"))

	if result.Status == types.ResultPartial && len(result.Failures) > 0 {
		b.WriteString("\n> Partial result: " + failureLine(result.Failures) + "\n")
	}

	for _, sec := range included {
		title := sec.Title
		if title == "" {
			title = sec.Name
		}
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", title, strings.TrimSpace(sec.Body))

		if lit == types.LiteracyBeginner {
			writeGlossary(&b, sec.Body)
		}
	}

	if lit == types.LiteracyAdvanced {
		if err := writeAppendix(&b, included); err != nil {
			return nil, err
		}
	}

	return &Artifact{
		Symbol:   result.Symbol,
		Literacy: lit,
		Markdown: b.String(),
		Omitted:  omitted,
	}, nil
}

func workflowLabel(wt types.WorkflowType) string {
	s := string(wt)
	if s == "" {
		return "Unknown"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func failureLine(failures []types.StageFailure) string {
	parts := make([]string, len(failures))
	for i, f := range failures {
		parts[i] = fmt.Sprintf("%s failed (%s)", f.Stage, f.Message)
	}
	return strings.Join(parts, "; ") + "."
}

// writeGlossary appends plain-language expansions for known terms that
// appear in the section body. Per prd006-presentation R2.3.
func writeGlossary(b *strings.Builder, body string) {
	lines := glossaryFor(body)
	if len(lines) == 0 {
		return
	}
	b.WriteString("\nTerms used above:\n\n")
	for _, line := range lines {
		b.WriteString(line + "\n")
	}
}

// writeAppendix dumps each section's structured data as YAML for advanced
// readers. YAML map keys marshal sorted, keeping the appendix
// deterministic. Per prd006-presentation R2.4.
func writeAppendix(b *strings.Builder, sections []types.Section) error {
	var withData []types.Section
	for _, sec := range sections {
		if len(sec.Data) > 0 {
			withData = append(withData, sec)
		}
	}
	if len(withData) == 0 {
		return nil
	}
	b.WriteString("\n## Technical Appendix\n")
	for _, sec := range withData {
		encoded, err := yaml.Marshal(sec.Data)
		if err != nil {
			return types.WrapError(types.KindAnalysis, "render.writeAppendix", err)
		}
		fmt.Fprintf(b, "\n### %s\n\n```yaml\n%s```\n", sec.Name, encoded)
	}
	return nil
}
