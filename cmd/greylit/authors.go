package main

import (
	"github.com/spf13/cobra"

	"github.com/adsarch/greylit/internal/author"
)

var authorsStrict bool

func init() {
	authorsCmd.Flags().BoolVar(&authorsStrict, "strict", false, "Fail if any segment cannot be parsed")
	rootCmd.AddCommand(authorsCmd)
}

var authorsCmd = &cobra.Command{
	Use:   "authors <author-list>",
	Short: "Parse an author list",
	Long: `Parse an author list of the form "Surname, Forename Initials & ...".

Usage:
  greylit authors "Doe, John A. & Smith, Jane B."
  greylit authors --strict "Doe, John & Smith"`,
	Args: cobra.ExactArgs(1),
	RunE: runAuthors,
}

// AuthorsResult is the response for the authors command.
type AuthorsResult struct {
	Records  []author.Record `json:"records"`
	Unparsed []string        `json:"unparsed,omitempty"`
}

func runAuthors(cmd *cobra.Command, args []string) error {
	mode := author.Lenient
	if authorsStrict {
		mode = author.Strict
	}

	res, err := author.ParseWithMode(args[0], mode)
	if err != nil {
		exitWithErr(err, "parsing authors")
	}
	if res.Records == nil {
		res.Records = []author.Record{}
	}

	if humanOutput {
		for _, r := range res.Records {
			outputHuman("%s\n", r)
		}
		for _, u := range res.Unparsed {
			outputHuman("unparsed: %q\n", u)
		}
		return nil
	}
	return outputJSON(AuthorsResult{Records: res.Records, Unparsed: res.Unparsed})
}
