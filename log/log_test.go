// Copyright 2019 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestInfo(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	logger := getLogger(&buffer)
	logger.Info("Hello")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["level"], "info")
	assertResult(t, fields["msg"], "Hello")
}

func TestWarn(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	logger := getLogger(&buffer)
	logger.Warn("Bad Warning")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["level"], "warning")
	assertResult(t, fields["msg"], "Bad Warning")
}

func TestWarnf(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	logger := getLogger(&buffer)
	logger.Warnf("Bad %s", "Warning")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["msg"], "Bad Warning")
}

func TestWithField(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	logger := getLogger(&buffer)
	logger.WithField("foo", "bar").Info("Hello")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["foo"], "bar")
}

func TestWithFieldChains(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	logger := getLogger(&buffer)
	logger.WithField("foo", "bar").WithField("baz", "qux").Warn("chained")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["foo"], "bar")
	assertResult(t, fields["baz"], "qux")
}

func TestGlobalWarn(t *testing.T) {
	var buffer bytes.Buffer
	var fields map[string]interface{}

	globalLogger.SetOutput(&buffer)
	Warn("Hello Global")

	if err := json.Unmarshal(buffer.Bytes(), &fields); err != nil {
		t.Fatalf("unexpected error: %s", err.Error())
	}
	assertResult(t, fields["level"], "warning")
	assertResult(t, fields["msg"], "Hello Global")
}

func assertResult(t *testing.T, actual, expected interface{}) {
	t.Helper()
	if actual != expected {
		t.Fatalf("expected result %v but got %v", expected, actual)
	}
}

func getLogger(w *bytes.Buffer) Logger {
	logger := NewLogger()
	logger.SetOutput(w)
	return logger
}
