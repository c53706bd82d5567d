package loader

import (
	"regexp"

	"github.com/yosssi/gohtml"
)

// blank matches markup-level whitespace, including the no-break spaces the
// converter emits for empty runs.
const blank = `(?:\s|\x{00A0}|&nbsp;|&#160;|&#xa0;|&#xA0;)*`

// cleanupRules run in order: emptied spans must go before the paragraphs and
// divs that contain them can be recognised as empty.
var cleanupRules = []*regexp.Regexp{
	// evaluation banner, first variant
	regexp.MustCompile(`<p\b[^>]*>\s*<span\b[^>]*>\s*Evaluation Only\. Created with Aspose\.Words\. Copyright 2003-20\d\d Aspose Pty Ltd\.\s*</span>\s*</p>\s*`),
	// evaluation banner, second variant
	regexp.MustCompile(`<p\b[^>]*>\s*<span\b[^>]*>\s*Created with an evaluation copy of Aspose\.Words\. To discover the full versions of our APIs please visit: https://products\.aspose\.com/words/\s*</span>\s*</p>\s*`),
	// image-only paragraph: <p><span><img></span><span></span></p>
	regexp.MustCompile(`<p\b[^>]*>\s*<span\b[^>]*>\s*<img\b[^>]*>\s*</span>\s*<span\b[^>]*>` + blank + `</span>\s*</p>\s*`),
	regexp.MustCompile(`<span\b[^>]*>` + blank + `</span>\s*`),
	regexp.MustCompile(`<p\b[^>]*>` + blank + `</p>\s*`),
	regexp.MustCompile(`<div\b[^>]*>` + blank + `</div>\s*`),
}

// Clean strips converter boilerplate and empty nodes from converted HTML.
// The ordered rules are re-applied until nothing changes, so nested empty
// containers collapse fully and Clean(Clean(x)) == Clean(x).
func Clean(html string) string {
	for {
		next := html
		for _, re := range cleanupRules {
			next = re.ReplaceAllString(next, "")
		}
		if next == html {
			return next
		}
		html = next
	}
}

// Prettify reformats HTML into indented, one-node-per-line form.
func Prettify(html string) string {
	return gohtml.Format(html)
}
