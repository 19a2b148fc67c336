// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package output

import (
	"strings"
	"testing"

	"github.com/jeranaias/deskshell/internal/util"
)

func TestProcess_Short(t *testing.T) {
	p := Process("hello")
	if p.Preview != "hello" {
		t.Errorf("Preview = %q, want %q", p.Preview, "hello")
	}
	if p.HasFullOutput() || p.Compressed || p.Truncated {
		t.Errorf("short output should be kept only as preview: %+v", p)
	}

	exact := strings.Repeat("a", DefaultPreviewLength)
	p = Process(exact)
	if p.Preview != exact {
		t.Error("output of exactly the preview length should not be shortened")
	}
	if p.HasFullOutput() {
		t.Error("output of exactly the preview length needs no full copy")
	}
}

func TestProcess_Verbatim(t *testing.T) {
	out := strings.Repeat("b", 500)
	p := Process(out)

	if want := strings.Repeat("b", 200) + "..."; p.Preview != want {
		t.Errorf("Preview = %q, want %q", p.Preview, want)
	}
	if !p.HasFullOutput() || p.FullOutput != out {
		t.Error("full output should be stored verbatim")
	}
	if p.OutputType() != TypeText || p.Compressed {
		t.Errorf("OutputType = %q, Compressed = %v; want text, false", p.OutputType(), p.Compressed)
	}
}

func TestProcess_CompressedRoundTrip(t *testing.T) {
	out := strings.Repeat("line of output 0123456789\n", 200)[:5000]
	p := Process(out)

	if !p.Compressed || p.Truncated {
		t.Fatalf("Compressed = %v, Truncated = %v; want true, false", p.Compressed, p.Truncated)
	}
	if p.OutputType() != TypeCompressed {
		t.Errorf("OutputType = %q, want %q", p.OutputType(), TypeCompressed)
	}
	if got := Decompress(p.FullOutput); got != out {
		t.Error("Decompress did not restore the original output")
	}
	if got := Restore(p.FullOutput, p.OutputType()); got != out {
		t.Error("Restore did not restore the original output")
	}
}

func TestProcess_Truncation(t *testing.T) {
	out := strings.Repeat("x", 20000)
	p := Process(out)

	if !p.Truncated || !p.Compressed {
		t.Fatalf("Truncated = %v, Compressed = %v; want both true", p.Truncated, p.Compressed)
	}
	if p.OriginalLength != 20000 {
		t.Errorf("OriginalLength = %d, want 20000", p.OriginalLength)
	}

	stored := Decompress(p.FullOutput)
	trailer := TruncationTrailer(20000)
	if !strings.HasSuffix(stored, trailer) {
		t.Errorf("stored output should end with %q", trailer)
	}
	if got, want := util.RuneLen(stored), DefaultMaxStoredLength+util.RuneLen(trailer); got != want {
		t.Errorf("stored length = %d, want %d", got, want)
	}
	if !strings.Contains(stored, "original length: 20000") {
		t.Error("trailer should name the original length")
	}
}

func TestProcess_CountsRunes(t *testing.T) {
	out := strings.Repeat("日", 300)
	p := Process(out)
	if want := strings.Repeat("日", 200) + "..."; p.Preview != want {
		t.Errorf("Preview has %d runes, want 203", util.RuneLen(p.Preview))
	}
	if p.FullOutput != out || p.Compressed {
		t.Error("300 runes is below the compression threshold and should be stored verbatim")
	}
}

func TestProcess_CustomPolicy(t *testing.T) {
	m := NewManager(Policy{PreviewLength: 5, CompressThreshold: 50, MaxStoredLength: 20})
	p := m.Process(strings.Repeat("z", 30))

	if p.Preview != "zzzzz..." {
		t.Errorf("Preview = %q, want %q", p.Preview, "zzzzz...")
	}
	if !p.Truncated {
		t.Error("30 chars over a 20 char limit should truncate")
	}
	// 20 chars plus the trailer passes the 50-char threshold.
	if !p.Compressed {
		t.Error("truncated output with trailer should be compressed")
	}
	if !strings.HasPrefix(Decompress(p.FullOutput), strings.Repeat("z", 20)+"\n...") {
		t.Error("stored output should be the first 20 chars followed by the trailer")
	}

	if got := NewManager(Policy{}).Policy(); got != DefaultPolicy() {
		t.Errorf("zero policy = %+v, want defaults %+v", got, DefaultPolicy())
	}
}

func TestDecompress_SoftFail(t *testing.T) {
	tests := []string{
		"plain text, not base64!",
		"aGVsbG8gd29ybGQ=", // valid base64, not gzip
		"",
	}
	for _, in := range tests {
		if got := Decompress(in); got != in {
			t.Errorf("Decompress(%q) = %q, want input unchanged", in, got)
		}
	}
}

func TestCompress(t *testing.T) {
	enc, err := Compress("hello hello hello")
	if err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if enc == "hello hello hello" {
		t.Error("Compress returned its input")
	}
	if got := Decompress(enc); got != "hello hello hello" {
		t.Errorf("Decompress = %q", got)
	}
}
