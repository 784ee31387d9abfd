package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		DebugLevel: zapcore.DebugLevel,
		InfoLevel:  zapcore.InfoLevel,
		WarnLevel:  zapcore.WarnLevel,
		ErrorLevel: zapcore.ErrorLevel,
		"verbose":  defaultZapLevel,
		"":         defaultZapLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewAndNop(t *testing.T) {
	l := New(WarnLevel)
	if l == nil || l.SugaredLogger == nil {
		t.Fatal("New returned nil logger")
	}
	if l.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("warn logger should not enable info")
	}
	n := Nop().Named("test")
	n.Infow("ignored", "k", "v")
}

func TestNewEncoderFormats(t *testing.T) {
	entry := zapcore.Entry{Level: zapcore.InfoLevel, Message: "log_stored"}

	buf, err := newEncoder(FormatJSON).EncodeEntry(entry, nil)
	if err != nil {
		t.Fatalf("json encode: %v", err)
	}
	if got := buf.String(); got[0] != '{' {
		t.Fatalf("json encoder produced %q", got)
	}

	buf, err = newEncoder("unknown").EncodeEntry(entry, nil)
	if err != nil {
		t.Fatalf("console encode: %v", err)
	}
	if got := buf.String(); got[0] == '{' {
		t.Fatalf("unknown format should fall back to console, got %q", got)
	}
}
