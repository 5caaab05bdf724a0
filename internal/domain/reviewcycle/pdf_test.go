package reviewcycle

import (
	"bytes"
	"testing"
)

func TestRenderTimelinePDF(t *testing.T) {
	out, err := RenderTimelinePDF(sampleCycle(), "Acme", day(2025, 3, 12))
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Fatalf("output is not a pdf: %q", out[:8])
	}
}
