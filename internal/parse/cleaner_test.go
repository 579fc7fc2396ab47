package parse

import (
	"strings"
	"testing"
)

func TestCleaner_RemovesFillerWords(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("Um, so basically you know we configure the portal.")
	if strings.Contains(strings.ToLower(got), "um") {
		t.Errorf("expected 'um' removed, got %q", got)
	}
	if strings.Contains(strings.ToLower(got), "basically") {
		t.Errorf("expected 'basically' removed, got %q", got)
	}
	if strings.Contains(strings.ToLower(got), "you know") {
		t.Errorf("expected 'you know' removed, got %q", got)
	}
	if !strings.Contains(got, "configure the portal") {
		t.Errorf("expected content kept, got %q", got)
	}
}

func TestCleaner_WordBoundaries(t *testing.T) {
	cleaner := NewCleaner()

	// "er" inside "server" and "ah" inside "ahead" must survive
	got := cleaner.Normalize("Deploy the server and go ahead with the upgrade.")
	if !strings.Contains(got, "server") {
		t.Errorf("expected 'server' intact, got %q", got)
	}
	if !strings.Contains(got, "ahead") {
		t.Errorf("expected 'ahead' intact, got %q", got)
	}
}

func TestCleaner_RemovesTranscriberTags(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("Open the console [inaudible] and select the subscription (laughs).")
	if strings.Contains(got, "[inaudible]") || strings.Contains(got, "(laughs)") {
		t.Errorf("expected transcriber tags removed, got %q", got)
	}
	if !strings.Contains(got, "Open the console") {
		t.Errorf("expected content kept, got %q", got)
	}
}

func TestCleaner_PreservesVisualMarkers(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("Here is the overview [screen shows the resource group] with [crosstalk] details.")
	if !strings.Contains(got, "[screen shows the resource group]") {
		t.Errorf("expected visual marker preserved, got %q", got)
	}
	if strings.Contains(got, "[crosstalk]") {
		t.Errorf("expected transcriber tag removed, got %q", got)
	}
}

func TestCleaner_RemovesRepetitiveTemplates(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("As we mentioned earlier, the cluster needs three nodes.")
	if strings.Contains(strings.ToLower(got), "mentioned earlier") {
		t.Errorf("expected boilerplate removed, got %q", got)
	}
	if !strings.Contains(got, "the cluster needs three nodes") {
		t.Errorf("expected content kept, got %q", got)
	}
}

func TestCleaner_FixesPunctuation(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("Select the region.Then save the settings !")
	if !strings.Contains(got, "region. Then") {
		t.Errorf("expected space inserted after period, got %q", got)
	}
	if strings.Contains(got, " !") {
		t.Errorf("expected space before punctuation removed, got %q", got)
	}

	if got := cleaner.Normalize("Done!!!"); strings.Contains(got, "!!") {
		t.Errorf("expected repeated punctuation collapsed, got %q", got)
	}
}

func TestCleaner_NormalizesWhitespace(t *testing.T) {
	cleaner := NewCleaner()

	got := cleaner.Normalize("  Configure   um   the gateway.  ")
	if got != "Configure the gateway." {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
}

func TestCleaner_CustomFillerWords(t *testing.T) {
	cleaner := NewCleaner("folks", "")

	got := cleaner.Normalize("Folks, enable the firewall now.")
	if strings.Contains(strings.ToLower(got), "folks") {
		t.Errorf("expected custom filler removed, got %q", got)
	}
	if !strings.Contains(got, "enable the firewall") {
		t.Errorf("expected content kept, got %q", got)
	}
}
