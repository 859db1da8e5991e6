package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetup(t *testing.T) {
	defer logrus.SetLevel(logrus.InfoLevel)
	defer logrus.SetOutput(os.Stderr)

	var buf bytes.Buffer
	if err := Setup("debug", "json", &buf); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}

	NewLogger("store").WithField("issue_id", 7).Debug("inserted issue")

	out := buf.String()
	for _, want := range []string{`"component":"store"`, `"issue_id":7`, `"msg":"inserted issue"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %s", out, want)
		}
	}
}

func TestSetup_Errors(t *testing.T) {
	defer logrus.SetOutput(os.Stderr)

	var buf bytes.Buffer
	if err := Setup("loud", "text", &buf); err == nil {
		t.Error("Setup() expected error for unknown level")
	}
	if err := Setup("info", "xml", &buf); err == nil {
		t.Error("Setup() expected error for unknown format")
	}
}
