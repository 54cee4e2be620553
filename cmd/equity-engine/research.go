// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/equity-engine/internal/repo"
	"github.com/pdiddy/equity-engine/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Create, run, and inspect researches",
	Long: `Research manages the unit of work of the engine: a single symbol with an
optional question, executed by a workflow into a sectioned result. Use
subcommands to create a research, run it to completion, and view the
rendered report.`,
}

// --- create subcommand ---

var researchCreateCmd = &cobra.Command{
	Use:   "create SYMBOL",
	Short: "Create a pending research for a stock symbol",
	Long: `Create validates the symbol and workflow, attaches the reader profile
(an explicit --profile, or the current one), and persists a pending
research. Run it with "research run".`,
	Args: cobra.ExactArgs(1),
	RunE: runResearchCreate,
}

func runResearchCreate(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	question, _ := cmd.Flags().GetString("question")
	workflow, _ := cmd.Flags().GetString("workflow")
	timeframe, _ := cmd.Flags().GetString("timeframe")
	profileID, _ := cmd.Flags().GetString("profile")

	r, err := rt.engine.Create(cmd.Context(), types.ResearchSpec{
		Symbol:    args[0],
		Question:  question,
		Workflow:  types.WorkflowType(workflow),
		Timeframe: types.Timeframe(timeframe),
		ProfileID: profileID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created research %s (%s, %s workflow, %s timeframe)\n", r.ID, r.Symbol, r.Workflow, r.Timeframe)
	fmt.Printf("Run it with: equity-engine research run %s\n", r.ID)
	return nil
}

// --- run subcommand ---

var researchRunCmd = &cobra.Command{
	Use:   "run ID",
	Short: "Execute a pending research to completion",
	Long: `Run executes the research workflow. Static workflows gather quote, price
history, and fundamentals concurrently and derive regime and risk read-outs;
agentic workflows let the configured LLM plan tool calls to answer the
research question. Interrupting with Ctrl-C records the research as failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearchRun,
}

func runResearchRun(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	id := args[0]
	fmt.Printf("Running research %s...\n", id)

	r, err := rt.engine.Run(ctx, id)
	if err != nil {
		return err
	}

	fmt.Printf("Research %s %s in %s\n", r.ID, r.Status, r.CompletedAt.Sub(r.StartedAt).Round(time.Millisecond))
	if r.Result == nil {
		return nil
	}
	fmt.Printf("Sections: %d", len(r.Result.Sections))
	if r.Result.Iterations > 0 {
		fmt.Printf("  Planning iterations: %d", r.Result.Iterations)
	}
	fmt.Println()
	if r.Result.HasFailures() {
		fmt.Println("Partial result, failed stages:")
		for _, f := range r.Result.Failures {
			fmt.Printf("  - %s: %s\n", f.Stage, f.Message)
		}
	}
	fmt.Printf("View it with: equity-engine research show %s\n", r.ID)
	return nil
}

// --- show subcommand ---

var researchShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Render a completed research for a reader",
	Long: `Show renders the stored result as a literacy-tiered report. The reader
level comes from the research profile unless --literacy overrides it.
Formats: markdown (default), html, yaml.`,
	Args: cobra.ExactArgs(1),
	RunE: runResearchShow,
}

func runResearchShow(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	literacy, _ := cmd.Flags().GetString("literacy")
	format, _ := cmd.Flags().GetString("format")

	art, err := rt.engine.RenderArtifact(cmd.Context(), args[0], types.Literacy(literacy))
	if err != nil {
		return err
	}

	switch format {
	case "markdown", "":
		fmt.Print(art.Markdown)
	case "html":
		fmt.Print(art.HTML())
	case "yaml":
		out, err := yaml.Marshal(art)
		if err != nil {
			return err
		}
		fmt.Print(string(out))
	default:
		return fmt.Errorf("unsupported format %q: use markdown, html, or yaml", format)
	}
	return nil
}

// --- list subcommand ---

var researchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List researches, newest first",
	Args:  cobra.NoArgs,
	RunE:  runResearchList,
}

func runResearchList(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	status, _ := cmd.Flags().GetString("status")
	symbol, _ := cmd.Flags().GetString("symbol")

	researches, err := rt.engine.List(cmd.Context(), repo.ResearchFilter{
		Status: types.ResearchStatus(status),
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
	})
	if err != nil {
		return err
	}
	if len(researches) == 0 {
		fmt.Println("No researches found.")
		return nil
	}

	fmt.Printf("%-40s  %-8s  %-8s  %-11s  %s\n", "ID", "SYMBOL", "WORKFLOW", "STATUS", "CREATED")
	for _, r := range researches {
		fmt.Printf("%-40s  %-8s  %-8s  %-11s  %s\n",
			r.ID, r.Symbol, r.Workflow, r.Status, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d research(es)\n", len(researches))
	return nil
}

// --- delete subcommand ---

var researchDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a research",
	Args:  cobra.ExactArgs(1),
	RunE:  runResearchDelete,
}

func runResearchDelete(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.engine.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted research %s\n", args[0])
	return nil
}

func init() {
	researchCreateCmd.Flags().String("question", "", "research question (required for agentic workflows)")
	researchCreateCmd.Flags().String("workflow", "", "workflow type: static or agentic (default static)")
	researchCreateCmd.Flags().String("timeframe", "", "investment horizon: short_term, mid_term, or long_term (default mid_term)")
	researchCreateCmd.Flags().String("profile", "", "profile ID to attach (default: the current profile)")

	researchShowCmd.Flags().String("literacy", "", "override the reader level: beginner, intermediate, or advanced")
	researchShowCmd.Flags().String("format", "markdown", "output format: markdown, html, or yaml")

	researchListCmd.Flags().String("status", "", "filter by status: pending, in_progress, completed, failed")
	researchListCmd.Flags().String("symbol", "", "filter by stock symbol")

	researchCmd.AddCommand(researchCreateCmd)
	researchCmd.AddCommand(researchRunCmd)
	researchCmd.AddCommand(researchShowCmd)
	researchCmd.AddCommand(researchListCmd)
	researchCmd.AddCommand(researchDeleteCmd)

	rootCmd.AddCommand(researchCmd)
}
