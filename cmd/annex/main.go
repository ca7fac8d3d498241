package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/jward/annex"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "annex",
	Short:         "Extract source-retention annotations from Java sources",
	Long:          "Annex parses Java source units with tree-sitter, records documentation-irrelevant annotations, and exports an external annotations archive plus ProGuard keep rules.",
	SilenceErrors: true,
	SilenceUsage:  true,
	// No Run — prints help by default.
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(apidbCmd)
}

var (
	flagOutput         string
	flagProguard       string
	flagTypedefFile    string
	flagStripTypedefs  bool
	flagAPIFilter      string
	flagMerge          []string
	flagClasspath      []string
	flagAllowErrors    bool
	flagClassRetention bool
	flagEncoding       string
	flagExcludes       []string
	flagSerial         bool
	flagForce          bool
	flagQuiet          bool
)

var extractCmd = &cobra.Command{
	Use:   "extract [paths...]",
	Short: "Extract annotations from Java source units",
	Long:  "Parses the given files or directories (walked for .java units), extracts source-retention annotations, merges external sources, and writes the configured artifacts.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&flagOutput, "output", "", "destination of the zipped annotations archive")
	extractCmd.Flags().StringVar(&flagProguard, "proguard", "", "destination of the ProGuard keep-rule file")
	extractCmd.Flags().StringVar(&flagTypedefFile, "typedef-file", "", "record typedef classes in this recipe file")
	extractCmd.Flags().BoolVar(&flagStripTypedefs, "strip-typedefs", false, "remove typedef classes before export")
	extractCmd.Flags().StringVar(&flagAPIFilter, "api-filter", "", "compiled API index; removed declarations are skipped")
	extractCmd.Flags().StringArrayVar(&flagMerge, "merge", nil, "external annotation source (zip or directory); repeatable, earlier wins")
	extractCmd.Flags().StringArrayVar(&flagClasspath, "classpath", nil, "jar or directory used for annotation name resolution; repeatable")
	extractCmd.Flags().BoolVar(&flagAllowErrors, "allow-errors", false, "keep units with syntax errors instead of aborting")
	extractCmd.Flags().BoolVar(&flagClassRetention, "include-class-retention", false, "extract class-retention annotations too")
	extractCmd.Flags().StringVar(&flagEncoding, "encoding", "", "source charset by IANA name (default UTF-8)")
	extractCmd.Flags().StringArrayVar(&flagExcludes, "exclude", []string{"**/build/generated/**"}, "glob excluding unit paths; repeatable")
	extractCmd.Flags().BoolVar(&flagSerial, "serial", false, "disable parallel extraction")
	extractCmd.Flags().BoolVar(&flagForce, "force", false, "run even when the classpath lacks the annotation library")
	extractCmd.Flags().BoolVar(&flagQuiet, "quiet", false, "no progress output")
}

func runExtract(cmd *cobra.Command, args []string) error {
	start := time.Now()

	paths, err := discoverUnits(args)
	if err != nil {
		return err
	}

	opts := []annex.Option{
		annex.WithOutput(flagOutput),
		annex.WithProguard(flagProguard),
		annex.WithAPIFilter(flagAPIFilter),
		annex.WithMergeSources(flagMerge...),
		annex.WithClasspath(flagClasspath...),
		annex.WithExcludes(flagExcludes...),
		annex.WithParallel(!flagSerial),
		annex.WithMarkerDetection(!flagForce),
	}
	if flagTypedefFile != "" {
		opts = append(opts, annex.WithTypedefRecipe(flagTypedefFile))
	}
	if flagStripTypedefs {
		opts = append(opts, annex.WithTypedefStrip())
	}
	if flagAllowErrors {
		opts = append(opts, annex.WithAllowErrors())
	}
	if flagClassRetention {
		opts = append(opts, annex.WithIncludeClassRetention())
	}
	if flagEncoding != "" {
		opts = append(opts, annex.WithEncoding(flagEncoding))
	}
	if !flagQuiet {
		opts = append(opts, annex.WithProgress(newExtractBar()))
	}

	engine, err := annex.New(opts...)
	if err != nil {
		return err
	}

	rep, err := engine.Run(context.Background(), paths)
	if err != nil {
		return err
	}

	for _, d := range rep.Diagnostics {
		fmt.Fprintf(os.Stderr, "warning: %s\n", d)
	}

	if rep.Skipped {
		fmt.Fprintln(os.Stderr, "Skipped: no annotation library on the classpath (use --force to run anyway)")
		return nil
	}
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "Extracted %d record(s) from %d unit(s), %d merged, %d typedef class(es) in %s\n",
			rep.Extracted, rep.UnitsParsed, rep.Merged, rep.TypedefClasses,
			time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// newExtractBar returns a progress callback that lazily builds a bar once
// the unit count is known. The engine may invoke it from worker
// goroutines.
func newExtractBar() func(done, total int) {
	var mu sync.Mutex
	var bar *progressbar.ProgressBar
	return func(done, total int) {
		mu.Lock()
		defer mu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Extracting"),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("units/s"),
				progressbar.OptionThrottle(65*time.Millisecond),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(os.Stderr)
				}),
			)
		}
		bar.Set(done)
	}
}

// discoverUnits expands the argument list into Java unit paths.
// Directories are walked for .java files; file arguments pass through
// untouched. Path filtering beyond the extension belongs to the engine's
// exclusion globs.
func discoverUnits(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if strings.HasPrefix(d.Name(), ".") && d.Name() != "." && path != arg {
					return filepath.SkipDir
				}
				return nil
			}
			if strings.HasSuffix(path, ".java") {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return paths, nil
}
