package glossimport

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
)

func TestDOCXImporter_Paragraphs(t *testing.T) {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("剣 --> Sword")
	doc.AddParagraph().AddText("   ")
	doc.AddParagraph().AddText("@name{ナルト, Naruto}")

	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}

	p := &DOCXImporter{}
	got, err := p.Import(&buf, "gloss.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "剣 --> Sword\n@name{ナルト, Naruto}\n"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestDOCXImporter_RejectsGarbage(t *testing.T) {
	p := &DOCXImporter{}
	if _, err := p.Import(bytes.NewReader([]byte("not a zip")), "bad.docx"); err == nil {
		t.Error("expected error for malformed docx")
	}
}
