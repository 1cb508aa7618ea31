package export

import (
	"fmt"
	"os"

	"github.com/mandolyte/mdtopdf"
)

// ConvertMarkdownToPDF renders an already written markdown report into a
// PDF at pdfPath.
func ConvertMarkdownToPDF(markdownPath string, pdfPath string) error {
	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return fmt.Errorf("renderer.Process() > %w", err)
	}
	return nil
}
