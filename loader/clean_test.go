package loader

import (
	"strings"
	"testing"
)

const (
	bannerV1 = `<p class="banner"><span style="font-size:8pt">Evaluation Only. Created with Aspose.Words. Copyright 2003-2023 Aspose Pty Ltd.</span></p>`
	bannerV2 = `<p><span>Created with an evaluation copy of Aspose.Words. To discover the full versions of our APIs please visit: https://products.aspose.com/words/</span></p>`
)

func TestClean_RemovesBannersAndEmptyNodes(t *testing.T) {
	input := "<div>\n" +
		bannerV1 + "\n" +
		"<p><span>First</span></p>\n" +
		"<p><span></span></p>\n" +
		"<p><span>Second</span></p>\n" +
		bannerV2 + "\n" +
		"</div>"

	got := Clean(input)
	want := "<div>\n<p><span>First</span></p>\n<p><span>Second</span></p>\n</div>"
	if got != want {
		t.Fatalf("unexpected clean output:\n%s\nwant:\n%s", got, want)
	}
}

func TestClean_KeepsTextOrder(t *testing.T) {
	input := bannerV2 + "<p><span>one</span></p>" + bannerV1 + "<p><span>two</span></p><p><span>three</span></p>"
	got := Clean(input)
	if strings.Contains(got, "Aspose") {
		t.Fatalf("banner left in output: %q", got)
	}
	i1, i2, i3 := strings.Index(got, "one"), strings.Index(got, "two"), strings.Index(got, "three")
	if i1 < 0 || i2 < i1 || i3 < i2 {
		t.Fatalf("paragraph order changed: %q", got)
	}
}

func TestClean_ImageOnlyParagraph(t *testing.T) {
	input := "<p>\n  <span>\n    <img src=\"seal.png\" />\n  </span>\n  <span>\n  </span>\n</p>\n<p><span>text</span></p>"
	got := Clean(input)
	if got != "<p><span>text</span></p>" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestClean_NoBreakSpaceSpans(t *testing.T) {
	got := Clean("<p><span>&#xa0;</span></p><p><span>\u00a0</span></p><p>x</p>")
	if got != "<p>x</p>" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestClean_Idempotent(t *testing.T) {
	inputs := []string{
		"<div><div><p> </p></div></div>",
		"<div>\n <div>\n  <p>\n   <span>\n   </span>\n  </p>\n </div>\n</div>\n<p>kept</p>",
		bannerV1 + "\n" + bannerV2,
		"<pre>  </pre><p><b>bold</b></p>",
		"",
	}
	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Fatalf("clean not idempotent for %q:\nonce:  %q\ntwice: %q", in, once, twice)
		}
	}
	if got := Clean("<div><div><p> </p></div></div>"); got != "" {
		t.Fatalf("expected nested empty containers to collapse, got %q", got)
	}
}

func TestClean_LeavesPreAlone(t *testing.T) {
	in := "<pre>  </pre>"
	if got := Clean(in); got != in {
		t.Fatalf("expected <pre> untouched, got %q", got)
	}
}

func TestPrettify_Idempotent(t *testing.T) {
	in := `<html><body><div><p><span>Hello</span></p><p><span>World</span></p></div></body></html>`
	once := Prettify(in)
	if once == in {
		t.Fatalf("expected reformatted output")
	}
	if twice := Prettify(once); twice != once {
		t.Fatalf("prettify not idempotent:\nonce:\n%s\ntwice:\n%s", once, twice)
	}
	if !strings.Contains(once, "Hello") || !strings.Contains(once, "World") {
		t.Fatalf("text lost: %s", once)
	}
}
