package jsonutils

import "testing"

func TestToJSON(t *testing.T) {
	got := ToJSON(map[string]any{"b": 1, "a": "x"})
	want := "{\n  \"a\": \"x\",\n  \"b\": 1\n}"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := ToJSON(func() {}); got != "" {
		t.Errorf("expected empty string for unencodable value, got %q", got)
	}
}

func TestPreview(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"line one\nline   two", 20, "line one line two"},
		{"abcdefghij", 4, "abcd…"},
		{"ééééé", 2, "éé…"},
	}
	for _, tt := range tests {
		if got := Preview(tt.in, tt.n); got != tt.want {
			t.Errorf("Preview(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
