package extract

import (
	"context"
	"strings"
	"testing"
)

func TestExtractTextFromHTMLVisibleText(t *testing.T) {
	page := `<!doctype html>
<html>
<head>
  <title>Acme Outdoor</title>
  <meta name="description" content="Gear for the trail, shipped free over $75.">
  <style>.hero { height: 720px; }</style>
  <script>console.log("tracking")</script>
</head>
<body>
  <header><nav>Home Shop Sale</nav></header>
  <section class="hero">
    <h1>Summer Sale: 20% off everything</h1>
    <img src="hero.jpg" alt="Hiker on a ridge at sunset">
    <button>Shop Now</button>
  </section>
  <footer>Free returns within 30 days</footer>
</body>
</html>`

	text, err := ExtractTextFromHTML(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{
		"Gear for the trail, shipped free over $75.",
		"Summer Sale: 20% off everything",
		"[image: Hiker on a ridge at sunset]",
		"Shop Now",
		"Free returns within 30 days",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected extracted text to contain %q, got:\n%s", want, text)
		}
	}
	if strings.Contains(text, "tracking") || strings.Contains(text, "720px") {
		t.Fatalf("expected script/style content to be stripped, got:\n%s", text)
	}
}

func TestExtractTextFromHTMLKeepsBlockStructure(t *testing.T) {
	page := `<div><h1>Title</h1><p>First paragraph</p><p>Second paragraph</p></div>`
	text, err := ExtractTextFromHTML(context.Background(), page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), text)
	}
}

func TestExtractTextFromHTMLEmptyPage(t *testing.T) {
	if _, err := ExtractTextFromHTML(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty page")
	}
}
