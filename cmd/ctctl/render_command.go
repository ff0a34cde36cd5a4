package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/dgallion1/customtrans/internal/content"
	"github.com/dgallion1/customtrans/internal/render"
	"github.com/spf13/cobra"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var (
		format  string
		outPath string
	)
	cmd := &cobra.Command{
		Use:   "render <work-id> <chapter>",
		Short: "Fetch, annotate and print one chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("chapter must be a positive number, got %q", args[1])
			}
			a, err := ctx.ensureApp()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}

			if format == "docx" {
				return a.Orchestrator.ExportChapter(cmd.Context(), args[0], n, out)
			}
			artifact, err := a.Orchestrator.Chapter(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			for _, notice := range artifact.Notices {
				kind := statusWarn
				if notice.Level == render.LevelError {
					kind = statusError
				}
				printStatus(cmd.ErrOrStderr(), kind, "%s", notice.Message)
			}

			switch format {
			case "text":
				return writeText(out, artifact)
			case "html":
				return render.WriteHTML(out, artifact)
			case "json":
				return encodeJSON(out, artifact)
			default:
				return fmt.Errorf("unknown format %q (want text, html, json or docx)", format)
			}
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, html, json or docx")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

// writeText prints the translated chapter, one record per line.
func writeText(w io.Writer, a *render.Artifact) error {
	if !a.Available {
		return nil
	}
	fmt.Fprintf(w, "%s\n\n", a.Frame.ChapterTitle)
	for _, kind := range []content.Kind{content.KindPrescript, content.KindMain, content.KindPostscript} {
		section := a.Chapter.Section(kind)
		for _, rec := range section {
			if rec.Form == content.FormImage {
				fmt.Fprintf(w, "[image: %s]\n", rec.ImageSource)
				continue
			}
			fmt.Fprintln(w, rec.Translated(a.Chapter.Glossary))
		}
		if len(section) > 0 {
			fmt.Fprintln(w)
		}
	}
	return nil
}
