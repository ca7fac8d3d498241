package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jward/annex/internal/apidb"
)

var apidbCmd = &cobra.Command{
	Use:   "apidb",
	Short: "Manage the compiled API index",
	// No Run — prints help by default.
}

var apidbBuildCmd = &cobra.Command{
	Use:   "build <api-versions.xml> <out.db>",
	Short: "Compile an api-versions.xml definition into a SQLite index",
	Long:  "Reads the XML API definition, normalizes JVM-internal names to source form, and writes a read-only SQLite index usable as --api-filter.",
	Args:  cobra.ExactArgs(2),
	RunE:  runAPIDBBuild,
}

func init() {
	apidbCmd.AddCommand(apidbBuildCmd)
}

func runAPIDBBuild(cmd *cobra.Command, args []string) error {
	definition, out := args[0], args[1]
	n, err := apidb.Build(definition, out)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Indexed %d signature(s) into %s\n", n, out)
	return nil
}
