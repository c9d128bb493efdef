// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

func TestClockStamp(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "morning",
			in:   time.Date(2025, 3, 10, 9, 41, 0, 0, time.UTC),
			want: "09:41 AM",
		},
		{
			name: "afternoon",
			in:   time.Date(2025, 3, 10, 15, 4, 59, 0, time.UTC),
			want: "03:04 PM",
		},
		{
			name: "midnight",
			in:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			want: "12:00 AM",
		},
		{
			name: "noon",
			in:   time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
			want: "12:00 PM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClockStamp(tt.in); got != tt.want {
				t.Errorf("ClockStamp() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "hello", 10, "hello"},
		{"exact length", "hello", 5, "hello"},
		{"truncated with ellipsis", "hello world", 8, "hello..."},
		{"zero max", "hello", 0, ""},
		{"negative max", "hello", -1, ""},
		{"tiny max skips ellipsis", "hello", 2, "he"},
		{"multibyte preserved", "வணக்கம் நிலா", 9, "வணக்கம..."},
		{"emoji preserved", "hi 🌙🌙🌙🌙", 5, "hi..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"fits", "hello", 10, "hello"},
		{"breaks at space", "hello world", 7, "hello\nworld"},
		{"hard break without spaces", "abcdefgh", 4, "abcd\nefgh"},
		{"preserves newlines", "one\ntwo three", 5, "one\ntwo\nthree"},
		{"zero width passthrough", "hello", 0, "hello"},
		{"trailing space trimmed at break", "aa bb cc", 3, "aa\nbb\ncc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WrapText(tt.in, tt.max); got != tt.want {
				t.Errorf("WrapText(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWrapTextWideRunes(t *testing.T) {
	// Each CJK rune is two cells; four runes need two lines at width 4.
	got := WrapText("你好世界", 4)
	want := "你好\n世界"
	if got != want {
		t.Errorf("WrapText(wide, 4) = %q, want %q", got, want)
	}
}

func BenchmarkWrapText(b *testing.B) {
	text := "Nila remembers the little things you said last week and brings them up at exactly the right moment, which is either endearing or unsettling depending on the hour."
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		WrapText(text, 42)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "credential.json")

	if err := WriteFileAtomic(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "first" {
		t.Errorf("content = %q, want %q", got, "first")
	}

	// Overwrite must replace the whole file, not append.
	if err := WriteFileAtomic(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("WriteFileAtomic() overwrite error = %v", err)
	}
	got, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "second" {
		t.Errorf("content after overwrite = %q, want %q", got, "second")
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if perm := info.Mode().Perm(); perm != 0o600 {
			t.Errorf("file mode = %o, want 600", perm)
		}
	}

	// No temp files may survive a successful write.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	for _, e := range entries {
		if e.Name() != "credential.json" {
			t.Errorf("unexpected leftover file %q", e.Name())
		}
	}
}
