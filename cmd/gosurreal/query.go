package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CaliLuke/go-surreal/surtype"
)

var (
	queryVars    string
	queryFile    string
	queryCompact bool
)

var queryCmd = &cobra.Command{
	Use:   "query [STATEMENT...]",
	Short: "Run SurrealQL statements and print their results as JSON",
	Long: `query runs one or more SurrealQL statements against the server and
prints each statement's result as JSON. Statements come from the
arguments, joined with spaces, or from a script file via --file.
Semicolons split the input into statements; semicolons inside string
literals and comments are left alone.

Examples:

  gosurreal query 'SELECT * FROM person WHERE age > 30'
  gosurreal query --vars '{"name":"alice"}' 'SELECT * FROM person WHERE name = $name'
  gosurreal query --file schema.surql`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		script := strings.Join(args, " ")
		if queryFile != "" {
			if script != "" {
				return fmt.Errorf("statements come from arguments or --file, not both")
			}
			data, err := os.ReadFile(queryFile)
			if err != nil {
				return err
			}
			script = string(data)
		}
		if strings.TrimSpace(script) == "" {
			return fmt.Errorf("no statements given")
		}

		statements, err := surtype.SplitStatements(script)
		if err != nil {
			return err
		}
		vars, err := parseVars(queryVars)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		c, err := connect(ctx)
		if err != nil {
			return err
		}
		defer c.Close()

		for _, stmt := range statements {
			results, err := c.Query(ctx, stmt, vars)
			if err != nil {
				return err
			}
			for _, res := range results {
				if err := res.Err(); err != nil {
					return fmt.Errorf("%s: %w", stmt, err)
				}
				out, err := renderJSON(res.Result)
				if err != nil {
					return err
				}
				fmt.Println(out)
			}
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().StringVar(&queryVars, "vars", "", "statement variables as a JSON object")
	queryCmd.Flags().StringVar(&queryFile, "file", "", "read statements from a .surql file")
	queryCmd.Flags().BoolVar(&queryCompact, "compact", false, "print results on one line")
	rootCmd.AddCommand(queryCmd)
}

func parseVars(s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var vars map[string]any
	if err := json.Unmarshal([]byte(s), &vars); err != nil {
		return nil, fmt.Errorf("parsing --vars: %w", err)
	}
	return vars, nil
}

func renderJSON(v any) (string, error) {
	var raw []byte
	var err error
	if queryCompact {
		raw, err = json.Marshal(v)
	} else {
		raw, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	return string(raw), nil
}
