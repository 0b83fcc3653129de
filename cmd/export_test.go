package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/agent-peek/internal"
)

func TestRenderExport_Markdown(t *testing.T) {
	messages := []internal.Message{
		{Role: "user", Text: "what happened?"},
		{Role: "assistant", Text: "the test flaked"},
	}

	got, err := renderExport("Flaky test", messages, "markdown")
	if err != nil {
		t.Fatalf("renderExport: %v", err)
	}

	want := "# Flaky test\n\n## User\n\nwhat happened?\n\n## Assistant\n\nthe test flaked\n"
	if got != want {
		t.Errorf("markdown export = %q, want %q", got, want)
	}

	// "md" is an accepted alias.
	alias, err := renderExport("Flaky test", messages, "md")
	if err != nil {
		t.Fatalf("renderExport(md): %v", err)
	}
	if alias != got {
		t.Error("md alias renders differently from markdown")
	}
}

func TestRenderExport_JSON(t *testing.T) {
	messages := []internal.Message{
		{Role: "user", Text: "hello"},
		{Role: "assistant", Text: "hi"},
	}

	got, err := renderExport("Greeting", messages, "json")
	if err != nil {
		t.Fatalf("renderExport: %v", err)
	}
	if !strings.HasSuffix(got, "\n") {
		t.Error("json export missing trailing newline")
	}

	var doc struct {
		Title    string             `json:"title"`
		Messages []internal.Message `json:"messages"`
	}
	if err := json.Unmarshal([]byte(got), &doc); err != nil {
		t.Fatalf("json export does not parse: %v", err)
	}
	if doc.Title != "Greeting" {
		t.Errorf("title = %q, want Greeting", doc.Title)
	}
	if len(doc.Messages) != 2 || doc.Messages[0] != messages[0] || doc.Messages[1] != messages[1] {
		t.Errorf("messages = %v, want %v", doc.Messages, messages)
	}
}

func TestRenderExport_UnknownFormat(t *testing.T) {
	if _, err := renderExport("t", nil, "xml"); err == nil {
		t.Error("unknown format accepted, want error")
	}
}
