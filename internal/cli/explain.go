package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/sqlgen"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Schema string // schema file or directory
	Count  bool   // explain the counting form of the query
}

// ExplainResult holds the compiled query for output.
type ExplainResult struct {
	Entity string `json:"entity"`
	SQL    string `json:"sql"`
	Args   []any  `json:"args,omitempty"`
	Tree   string `json:"tree"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query.yaml>",
		Short: "Compile a query document and print its SQL",
		Long: `Compile a query document against a schema and print the SQL statement
and bound arguments it produces. With --verbose the assembled
specification tree is reported on stderr.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema file or directory (required)")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "explain the counting form of the query")

	return cmd
}

func runExplain(opts *ExplainOptions, queryPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if opts.Schema == "" {
		return outputCommandError(formatter, ErrCodeGeneric, "--schema is required")
	}

	reg, lf := loadRegistry(opts.Schema)
	if lf != nil {
		return outputCommandError(formatter, lf.Code, lf.Message)
	}
	formatter.VerboseLog("Loaded %d entities from %s", len(reg.Entities()), opts.Schema)

	doc, lf := loadQuery(queryPath)
	if lf != nil {
		return outputCommandError(formatter, lf.Code, lf.Message)
	}

	spec, err := doc.Spec()
	if err != nil {
		return outputCommandError(formatter, ErrCodeQueryLoad, fmt.Sprintf("%s: %v", queryPath, err))
	}
	formatter.VerboseLog("Specification: %s", spec)

	var q *sqlgen.Query
	if opts.Count {
		q, err = sqlgen.Count(reg, doc.From)
	} else {
		q, err = sqlgen.Select(reg, doc.From)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeCompile, err.Error())
	}
	if err := q.Apply(spec); err != nil {
		return outputCommandError(formatter, ErrCodeCompile, err.Error())
	}

	sql, args, err := q.Build()
	if err != nil {
		return outputCommandError(formatter, ErrCodeCompile, err.Error())
	}

	return outputExplainSuccess(formatter, &ExplainResult{
		Entity: doc.From,
		SQL:    sql,
		Args:   args,
		Tree:   spec.String(),
	})
}

// outputExplainSuccess outputs the compiled query.
func outputExplainSuccess(formatter *OutputFormatter, result *ExplainResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, result.SQL)
	if len(result.Args) > 0 {
		fmt.Fprintf(formatter.Writer, "args: %v\n", result.Args)
	}
	return nil
}

// outputCommandError outputs a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
