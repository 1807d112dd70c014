// Package mailtext turns raw mail bodies into clean plain text for the
// classifier prompt.
package mailtext

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// junkRunes strips zero-width and formatting characters that mail clients
// sprinkle through HTML bodies. They confuse the model and bloat the prompt.
var junkRunes = regexp.MustCompile("[\u00a0\u034f\u2007\u200b\u200c\u200d\ufeff]")

var blankLines = regexp.MustCompile(`\n{3,}`)

// Render produces the classifier's view of one message: a small header
// block followed by the cleaned body.
func Render(sender, subject string, receivedAt time.Time, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FROM: %s\n", sender)
	fmt.Fprintf(&b, "SUBJECT: %s\n", subject)
	if !receivedAt.IsZero() {
		fmt.Fprintf(&b, "DATE: %s\n", receivedAt.Format(time.RFC1123Z))
	}
	b.WriteString("--- EMAIL BODY ---\n")
	b.WriteString(Normalize(body))
	return b.String()
}

// Normalize cleans up a plain-text body: entity unescape, junk character
// removal, newline normalization, blank-run collapse and removal of
// immediately repeated lines (a common artifact of multipart fallbacks).
func Normalize(text string) string {
	text = html.UnescapeString(text)
	text = junkRunes.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	prev := ""
	for _, line := range lines {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed != "" && trimmed == prev {
			continue
		}
		out = append(out, line)
		prev = trimmed
	}

	text = strings.Join(out, "\n")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// skipElements are subtrees whose text content is never message prose.
var skipElements = map[string]bool{
	"script": true,
	"style":  true,
	"head":   true,
	"title":  true,
}

// blockElements get a line break after their content.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true,
	"tr": true, "table": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "ul": true, "ol": true,
}

// HTMLText extracts readable text from an HTML body. Block-level elements
// become line breaks; script, style and head content is dropped.
func HTMLText(htmlBody string) string {
	tok := html.NewTokenizer(strings.NewReader(htmlBody))
	var b strings.Builder
	skipDepth := 0

	for {
		switch tok.Next() {
		case html.ErrorToken:
			return Normalize(b.String())
		case html.StartTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if skipElements[tag] {
				skipDepth++
			} else if tag == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tok.TagName()
			tag := string(name)
			if skipElements[tag] {
				if skipDepth > 0 {
					skipDepth--
				}
			} else if blockElements[tag] {
				b.WriteByte('\n')
			}
		case html.SelfClosingTagToken:
			name, _ := tok.TagName()
			if string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(tok.Text())
			}
		}
	}
}

// BodyText picks the best body representation: plain text when present,
// otherwise text extracted from the HTML part.
func BodyText(text, htmlBody string) string {
	if strings.TrimSpace(text) != "" {
		return Normalize(text)
	}
	if strings.TrimSpace(htmlBody) != "" {
		return HTMLText(htmlBody)
	}
	return ""
}
