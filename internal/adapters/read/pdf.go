package read

import (
	"bytes"
	"strings"

	godpdf "github.com/ledongthuc/pdf"
)

// extractPDFText reads every page of a PDF byte stream and joins their
// plain text, page breaks marked with a blank line. ledongthuc/pdf is the
// pack's only PDF-capable dependency (kalambet-tbyd), so this is where it
// gets exercised.
func extractPDFText(raw []byte) (string, error) {
	r, err := godpdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String()), nil
}
