// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/equity-engine/pkg/types"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage reader profiles",
	Long: `Profiles describe the reader of research reports, most importantly their
financial literacy (beginner, intermediate, or advanced). The current
profile is attached to new researches and decides how reports render.`,
}

// --- create subcommand ---

var profileCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a reader profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	literacy, _ := cmd.Flags().GetString("literacy")

	p, err := rt.engine.CreateProfile(cmd.Context(), args[0], types.Literacy(literacy))
	if err != nil {
		return err
	}
	fmt.Printf("Created profile %s (%s, %s)\n", p.ID, p.DisplayName, p.Literacy)
	fmt.Printf("Make it current with: equity-engine profile use %s\n", p.ID)
	return nil
}

// --- list subcommand ---

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles; the current one is starred",
	Args:  cobra.NoArgs,
	RunE:  runProfileList,
}

func runProfileList(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	profiles, err := rt.engine.ListProfiles(cmd.Context())
	if err != nil {
		return err
	}
	if len(profiles) == 0 {
		fmt.Println("No profiles found. Create one with: equity-engine profile create NAME")
		return nil
	}

	currentID := ""
	if current, err := rt.engine.CurrentProfile(cmd.Context()); err == nil {
		currentID = current.ID
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	fmt.Printf("   %-41s  %-20s  %-12s  %s\n", "ID", "NAME", "LITERACY", "CREATED")
	for _, p := range profiles {
		marker := " "
		if p.ID == currentID {
			marker = "*"
		}
		fmt.Printf("%s  %-41s  %-20s  %-12s  %s\n",
			marker, p.ID, p.DisplayName, p.Literacy, p.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

// --- use subcommand ---

var profileUseCmd = &cobra.Command{
	Use:   "use ID",
	Short: "Make a profile current",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileUse,
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.engine.UseProfile(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Current profile set to %s\n", args[0])
	return nil
}

// --- show subcommand ---

var profileShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "Show a profile (the current one without an ID)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	var p *types.ResearchProfile
	var err2 error
	if len(args) == 1 {
		p, err2 = rt.engine.GetProfile(cmd.Context(), args[0])
	} else {
		p, err2 = rt.engine.CurrentProfile(cmd.Context())
	}
	if err2 != nil {
		return err2
	}

	fmt.Printf("ID:        %s\n", p.ID)
	fmt.Printf("Name:      %s\n", p.DisplayName)
	fmt.Printf("Literacy:  %s\n", p.Literacy)
	fmt.Printf("Created:   %s\n", p.CreatedAt.Local().Format("2006-01-02 15:04"))
	if len(p.Preferences) > 0 {
		fmt.Println("Preferences:")
		for k, v := range p.Preferences {
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
	return nil
}

// --- delete subcommand ---

var profileDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileDelete,
}

func runProfileDelete(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	if err := rt.engine.DeleteProfile(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted profile %s\n", args[0])
	return nil
}

func init() {
	profileCreateCmd.Flags().String("literacy", "", "financial literacy: beginner, intermediate, or advanced (default beginner)")

	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileUseCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileDeleteCmd)

	rootCmd.AddCommand(profileCmd)
}
