package glossimport

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// TextImporter passes dictionary text through, normalizing line endings
// and dropping a byte order mark.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var out strings.Builder
	first := true
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		out.WriteString(line)
		out.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	return out.String(), nil
}
