package markdown

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain text", "hello world", "hello world"},
		{"crlf", "a\r\nb", "a\nb"},
		{"br", "a<br>b", "a\nb"},
		{"br self closing", "a<br/>b", "a\nb"},
		{"br spaced", "a< br / >b", "a\nb"},
		{"paragraphs", "<p>Hello</p><br/><b>world</b>", "\n\nHello\n\n**world**"},
		{"bold", "<b>x</b> and <strong>y</strong>", "**x** and **y**"},
		{"italic", "<i>x</i> and <em>y</em>", "*x* and *y*"},
		{"underline", "<u>x</u>", "__x__"},
		{"strip unknown tags", `<script>alert(1)</script><div class="x">y</div>`, "alert(1)y"},
		{"entities", "a &amp; b &lt;c&gt;", "a & b <c>"},
		{"collapse newlines", "a\n\n\n\n\nb", "a\n\nb"},
		{"mixed case tags", "<B>x</B><BR><EM>y</EM>", "**x**\n*y*"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.in)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		"<p>Hello</p><br/><b>world</b>",
		"plain",
		"<i>a</i>\n\n\n<u>b</u>",
		"a &amp; b",
		"**already** *markdown* __text__",
	}

	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
