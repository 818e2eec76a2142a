package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/sift/queryfile"
	"github.com/roach88/sift/schema"
	"github.com/roach88/sift/sqlgen"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Schema string // schema file or directory
}

// ValidationIssue is one reported problem.
type ValidationIssue struct {
	File    string `json:"file,omitempty"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Schema  string            `json:"schema"`
	Checked int               `json:"checked"` // number of query documents checked
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate [query.yaml...]",
		Short: "Validate a schema and query documents",
		Long: `Validate an entity schema and, optionally, query documents against it.

Each query document is parsed, assembled and compiled; problems are
reported per file without stopping at the first one.`,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Schema, "schema", "s", "", "schema file or directory (required)")

	return cmd
}

func runValidate(opts *ValidateOptions, files []string, cmd *cobra.Command) error {
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
		if lf.Code == ErrCodeNotFound {
			return outputCommandError(formatter, lf.Code, lf.Message)
		}
		// An unloadable schema is a validation verdict, not a usage error.
		result := ValidationResult{
			Schema: opts.Schema,
			Errors: []ValidationIssue{{File: opts.Schema, Message: lf.Message}},
		}
		return outputValidationErrors(formatter, result)
	}
	formatter.VerboseLog("Schema OK: %d entities", len(reg.Entities()))

	var issues []ValidationIssue
	for _, path := range files {
		if err := checkQuery(reg, path); err != nil {
			issues = append(issues, ValidationIssue{File: path, Message: err.Error()})
			continue
		}
		formatter.VerboseLog("OK: %s", path)
	}

	result := ValidationResult{
		Schema:  opts.Schema,
		Checked: len(files),
		Errors:  issues,
	}
	if len(issues) > 0 {
		return outputValidationErrors(formatter, result)
	}

	result.Valid = true
	return outputValidateSuccess(formatter, reg, result)
}

// checkQuery loads a query document and compiles it against the schema.
func checkQuery(reg *schema.Registry, path string) error {
	doc, err := queryfile.Load(path)
	if err != nil {
		return err
	}
	spec, err := doc.Spec()
	if err != nil {
		return err
	}

	q, err := sqlgen.Select(reg, doc.From)
	if err != nil {
		return err
	}
	if err := q.Apply(spec); err != nil {
		return err
	}
	_, _, err = q.Build()
	return err
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, reg *schema.Registry, result ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if result.Checked == 0 {
		fmt.Fprintf(formatter.Writer, "✓ Schema valid (%d entities)\n", len(reg.Entities()))
		return nil
	}
	fmt.Fprintf(formatter.Writer, "✓ Schema and %d query document(s) valid\n", result.Checked)
	return nil
}

// outputValidationErrors outputs validation failures (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    ErrCodeCompile,
				Message: result.Errors[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range result.Errors {
		if issue.File != "" {
			fmt.Fprintln(formatter.Writer, issue.File)
		}
		fmt.Fprintf(formatter.Writer, "  %s\n\n", issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}
