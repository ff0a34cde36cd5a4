package render

import (
	"fmt"
	"io"

	"github.com/dgallion1/customtrans/internal/content"
	"github.com/fumiama/go-docx"
)

// WriteDOCX exports an available chapter as a Word document with glossary
// translations substituted into the text. Images are listed by source.
func WriteDOCX(w io.Writer, a *Artifact) error {
	if !a.Available {
		return fmt.Errorf("export chapter %d: chapter is unavailable", a.Frame.Chapter)
	}

	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(a.Frame.WorkTitle).Size("36")

	for _, kind := range sectionKinds {
		for _, rec := range a.Chapter.Section(kind) {
			if rec.Form == content.FormImage {
				doc.AddParagraph().AddText("[image: " + rec.ImageSource + "]")
				continue
			}
			run := doc.AddParagraph().AddText(rec.Translated(a.Chapter.Glossary))
			if kind == content.KindTitle {
				run.Size("28")
			}
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
