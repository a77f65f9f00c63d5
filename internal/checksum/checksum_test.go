package checksum

import "testing"

func TestDocumentStable(t *testing.T) {
	a := Document("posts/a.md", "title: A", "body")
	b := Document("posts/a.md", "title: A", "body")
	if a == "" {
		t.Fatal("empty fingerprint")
	}
	if a != b {
		t.Errorf("fingerprint not stable: %q vs %q", a, b)
	}
}

func TestDocumentChanges(t *testing.T) {
	base := Document("posts/a.md", "title: A", "body")
	cases := map[string]string{
		"metadata": Document("posts/a.md", "title: B", "body"),
		"body":     Document("posts/a.md", "title: A", "other"),
		"path":     Document("posts/b.md", "title: A", "body"),
	}
	for name, fp := range cases {
		if fp == base {
			t.Errorf("%s change did not alter fingerprint", name)
		}
	}
}
