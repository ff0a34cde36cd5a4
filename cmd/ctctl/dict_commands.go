package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgallion1/customtrans/internal/dictionary"
	"github.com/dgallion1/customtrans/internal/hosts"
	"github.com/dgallion1/customtrans/internal/pipeline"
	"github.com/spf13/cobra"
)

func newDictCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Work with glossaries",
	}
	cmd.AddCommand(newDictCheckCommand(ctx))
	cmd.AddCommand(newDictImportCommand(ctx))
	cmd.AddCommand(newDictSkeletonCommand(ctx))
	return cmd
}

func newDictCheckCommand(ctx *commandContext) *cobra.Command {
	var strict bool
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Compile a glossary file and report misformatted lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			report, err := a.Orchestrator.CheckGlossary(cmd.Context(), filepath.Base(args[0]), string(data))
			if err != nil {
				return err
			}
			printReport(cmd, report)
			if strict && len(report.Warnings) > 0 {
				return fmt.Errorf("%d misformatted line(s)", len(report.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail when any line is misformatted")
	return cmd
}

func newDictImportCommand(ctx *commandContext) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Convert a document into a glossary and save it",
		Long: "Converts a .dict, .txt, .csv, .md, .html, .docx or .pdf document into\n" +
			"glossary text and saves it under --name, invalidating affected chapters.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			if name == "" {
				return errors.New("--name is required")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			report, err := a.Orchestrator.ImportGlossary(cmd.Context(), name, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			printReport(cmd, report)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Glossary name, e.g. common_dict.dict")
	return cmd
}

func newDictSkeletonCommand(ctx *commandContext) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "skeleton <work-id>",
		Short: "Print the skeleton glossary for a work",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}
			work, err := a.Catalog.Work(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			adapter, err := hosts.ForHost(work.Host)
			if err != nil {
				return err
			}
			text := dictionary.Skeleton(work.Title, work.Abbr, adapter.SeriesURL(work.Code))
			if !write {
				fmt.Fprint(cmd.OutOrStdout(), text)
				return nil
			}

			src, err := a.Glossaries.Read(work.GlossaryName())
			if err != nil {
				return err
			}
			if src.Present {
				return fmt.Errorf("glossary %s already exists", work.GlossaryName())
			}
			if err := a.Glossaries.Write(work.GlossaryName(), text); err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), statusOK, "wrote %s", work.GlossaryName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&write, "write", false, "Save it as the work's glossary when none exists")
	return cmd
}

func printReport(cmd *cobra.Command, report pipeline.GlossaryReport) {
	out := cmd.OutOrStdout()
	for _, w := range report.Warnings {
		printStatus(out, statusWarn, "%s", w.String())
	}
	kind := statusOK
	if len(report.Warnings) > 0 {
		kind = statusWarn
	}
	printStatus(out, kind, "%s: %d entries, %d warning(s)", report.Name, report.Entries, len(report.Warnings))
}
