package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"

	"cro-backend/internal/shared/storage/object"
)

// skipElements never contribute visible storefront text.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"template": true,
	"iframe":   true,
}

// blockElements force a line break so the extracted text keeps the page's
// reading structure.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"header": true, "footer": true, "nav": true, "aside": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "form": true, "button": true,
}

// ExtractText pulls visible text from a stored storefront snapshot and
// persists a derived .extracted.txt copy next to it.
func ExtractText(ctx context.Context, store object.ObjectStore, snapshotKey string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	body, err := store.Open(ctx, snapshotKey)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", snapshotKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", snapshotKey, err)
	}

	text, err := ExtractTextFromHTML(ctx, string(raw))
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", snapshotKey, err)
	}

	extractedKey := snapshotKey + ".extracted.txt"
	if err := saveExtracted(ctx, store, extractedKey, text); err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", snapshotKey, err)
	}

	return text, nil
}

// ExtractTextFromHTML extracts the visible text of a storefront page,
// including image alt text and meta description, which the audit prompt
// relies on.
func ExtractTextFromHTML(ctx context.Context, page string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(page) == "" {
		return "", errors.New("empty page content")
	}

	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var b strings.Builder
	walk(root, &b)
	return collapseBlankLines(b.String()), nil
}

func walk(node *html.Node, b *strings.Builder) {
	switch node.Type {
	case html.ElementNode:
		if skipElements[node.Data] {
			return
		}
		switch node.Data {
		case "img":
			if alt := attr(node, "alt"); alt != "" {
				writeLine(b, "[image: "+alt+"]")
			}
		case "meta":
			if strings.EqualFold(attr(node, "name"), "description") {
				if content := attr(node, "content"); content != "" {
					writeLine(b, content)
				}
			}
		}
	case html.TextNode:
		if text := strings.TrimSpace(node.Data); text != "" {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
				b.WriteString(" ")
			}
			b.WriteString(strings.Join(strings.Fields(text), " "))
		}
	}

	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walk(child, b)
	}

	if node.Type == html.ElementNode && blockElements[node.Data] {
		writeNewline(b)
	}
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func writeLine(b *strings.Builder, line string) {
	writeNewline(b)
	b.WriteString(line)
	b.WriteString("\n")
}

func writeNewline(b *strings.Builder) {
	if b.Len() > 0 && !strings.HasSuffix(b.String(), "\n") {
		b.WriteString("\n")
	}
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}

type keySaver interface {
	SaveWithKey(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)
}

func saveExtracted(ctx context.Context, store object.ObjectStore, key string, text string) error {
	saver, ok := store.(keySaver)
	if !ok {
		return errors.New("object store does not support SaveWithKey")
	}
	reader := strings.NewReader(text)
	_, err := saver.SaveWithKey(ctx, key, "text/plain; charset=utf-8", reader)
	return err
}
