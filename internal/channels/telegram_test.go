package channels

import "testing"

func TestMarkdownToTelegramHTML(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"**bold** and ~~gone~~", "<b>bold</b> and <s>gone</s>"},
		{"# Title\n- one\n- two", "Title\n• one\n• two"},
		{"use `a<b`", "use <code>a&lt;b</code>"},
		{"```go\nx := 1 < 2\n```", "<pre><code>x := 1 &lt; 2\n</code></pre>"},
		{"[docs](https://example.com)", `<a href="https://example.com">docs</a>`},
		{"5 > 3 & 2 < 4", "5 &gt; 3 &amp; 2 &lt; 4"},
	}
	for _, tc := range cases {
		if got := markdownToTelegramHTML(tc.in); got != tc.want {
			t.Errorf("markdownToTelegramHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestIntFromMeta(t *testing.T) {
	meta := map[string]any{"a": 3, "b": float64(4), "c": int64(5), "d": "6"}
	for key, want := range map[string]int{"a": 3, "b": 4, "c": 5, "d": 0, "missing": 0} {
		if got := intFromMeta(meta, key); got != want {
			t.Errorf("intFromMeta(%q) = %d, want %d", key, got, want)
		}
	}
}
