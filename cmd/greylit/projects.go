package main

import (
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(projectsCmd)
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List project numbers already in the database",
	Args:  cobra.NoArgs,
	RunE:  runProjects,
}

// ProjectsResult is the response for the projects command.
type ProjectsResult struct {
	Count    int      `json:"count"`
	Projects []string `json:"projects"`
}

func runProjects(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig()
	ctx, cancel := signalContext()
	defer cancel()

	s := mustOpenStore(ctx, cfg)
	defer s.Close()

	numbers, err := s.ProjectNumbers(ctx)
	if err != nil {
		exitWithErr(err, "listing projects")
	}
	refs := make([]string, 0, len(numbers))
	for ref := range numbers {
		refs = append(refs, ref)
	}
	sort.Strings(refs)

	if humanOutput {
		for _, ref := range refs {
			outputHuman("%s\n", ref)
		}
		outputHuman("%d projects\n", len(refs))
		return nil
	}
	return outputJSON(ProjectsResult{Count: len(refs), Projects: refs})
}
