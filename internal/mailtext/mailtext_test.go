package mailtext

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "entities and junk characters",
			in:   "Salary: &euro;70k​​ per year",
			want: "Salary:€70k per year",
		},
		{
			name: "windows newlines",
			in:   "line one\r\nline two\rline three",
			want: "line one\nline two\nline three",
		},
		{
			name: "blank run collapse",
			in:   "first\n\n\n\n\nsecond",
			want: "first\n\nsecond",
		},
		{
			name: "adjacent duplicate lines dropped",
			in:   "View in browser\nView in browser\nHello",
			want: "View in browser\nHello",
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "  \n\nbody\n\n  ",
			want: "body",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestHTMLText(t *testing.T) {
	in := `<html><head><title>hi</title><style>p{color:red}</style></head>
<body><p>Thanks for applying to <b>Acme</b>.</p>
<div>Interview on Tuesday.<br>Bring ID.</div>
<script>track()</script></body></html>`

	got := HTMLText(in)
	assert.Contains(t, got, "Thanks for applying to Acme.")
	assert.Contains(t, got, "Interview on Tuesday.\nBring ID.")
	assert.NotContains(t, got, "track()")
	assert.NotContains(t, got, "color:red")
	assert.NotContains(t, got, "hi")
}

func TestBodyText_PrefersPlainText(t *testing.T) {
	assert.Equal(t, "plain body", BodyText("plain body", "<p>html body</p>"))
	assert.Equal(t, "html body", BodyText("  ", "<p>html body</p>"))
	assert.Equal(t, "", BodyText("", ""))
}

func TestRender(t *testing.T) {
	received := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	got := Render("jobs@acme.example", "Application received", received, "Hello\r\n\r\n\r\nWorld")

	assert.Contains(t, got, "FROM: jobs@acme.example\n")
	assert.Contains(t, got, "SUBJECT: Application received\n")
	assert.Contains(t, got, "--- EMAIL BODY ---\n")
	assert.Contains(t, got, "Hello\n\nWorld")
}

func TestRender_ZeroTimeOmitsDate(t *testing.T) {
	got := Render("a@b", "s", time.Time{}, "body")
	assert.NotContains(t, got, "DATE:")
}
