// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"bytes"
	"text/template"

	"github.com/pdiddy/equity-engine/pkg/types"
)

// plannerSystemTmpl frames the planning conversation: the model's role, the
// tool-call wire format, and the reader it writes for.
// Per prd004-workflow-execution R4.2.
var plannerSystemTmpl = template.Must(template.New("plannerSystem").Parse(`You are an equity research assistant. You answer questions about stocks using live data fetched through tools.

To use a tool, reply with a single JSON object and nothing else:

{"tool": "<tool name>", "args": {"symbol": "AAPL"}}

Call one tool at a time and wait for its result before deciding your next step. You have at most {{.MaxCalls}} tool calls for this question. When you have enough data, reply with your final answer as plain prose, without any JSON object.

Ground every figure in a tool result. If a tool fails or returns nothing useful, say so instead of inventing numbers. Write for a {{.Literacy}} investor: {{.Voice}}`))

// plannerUserTmpl opens the transcript with the question and the tool catalog.
var plannerUserTmpl = template.Must(template.New("plannerUser").Parse(`Question: {{.Question}}

Available tools:
{{.Tools}}
Start by fetching the data the question needs.`))

// observationHeader labels tool output appended to the transcript.
const observationHeader = "Tool execution result:"

// loopNudge is appended when the planner repeats a recent tool call. It names
// the repeated call so the model can change course.
// Per prd004-workflow-execution R4.5.
const loopNudge = `You already called %s with those exact arguments and its result is above. Do not repeat it. Either call a different tool, change the arguments, or give your final answer now.`

// stopForAnswer is appended when planning has to end: the model gets one
// last turn that must be a final answer.
const stopForAnswer = `Stop calling tools. Write your final answer now using the tool results above. Reply with plain prose only.`

type plannerSystemData struct {
	MaxCalls int
	Literacy types.Literacy
	Voice    string
}

type plannerUserData struct {
	Question string
	Tools    string
}

// literacyVoice phrases the reader guidance for each literacy level.
func literacyVoice(l types.Literacy) string {
	switch l {
	case types.LiteracyAdvanced:
		return "be quantitative and terse, technical vocabulary is fine."
	case types.LiteracyIntermediate:
		return "use standard financial terms without defining the basics."
	default:
		return "explain financial terms in plain language and avoid jargon."
	}
}

func renderPrompt(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", types.WrapError(types.KindAnalysis, "workflow.renderPrompt", err)
	}
	return buf.String(), nil
}
