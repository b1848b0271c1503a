package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const baselineOutput = `goos: linux
BenchmarkValidateSessionToken-8            	   20000	     50000 ns/op	    2048 B/op	      40 allocs/op
BenchmarkValidateSessionToken-8            	   20000	     52000 ns/op	    2048 B/op	      40 allocs/op
BenchmarkIssueVerifyCredential-8           	   10000	    100000 ns/op	    4096 B/op	      80 allocs/op
BenchmarkMetricsIncValidatePathParallel-8  	100000000	        10.0 ns/op	       0 B/op	       0 allocs/op
BenchmarkMetricsInc-8                      	100000000	         2.0 ns/op
PASS
`

func TestParseBenchmarks(t *testing.T) {
	samples, err := parseBenchmarks(strings.NewReader(baselineOutput))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := samples["BenchmarkValidateSessionToken"]["ns/op"]; len(got) != 2 {
		t.Fatalf("validate ns/op samples = %v", got)
	}
	if _, ok := samples["BenchmarkMetricsInc"]; ok {
		t.Fatal("untracked benchmark should be skipped")
	}
}

func TestNormalizeBenchmarkName(t *testing.T) {
	cases := map[string]string{
		"BenchmarkValidateSessionToken-8":   "BenchmarkValidateSessionToken",
		"BenchmarkValidateSessionToken":     "BenchmarkValidateSessionToken",
		"BenchmarkFoo-bar":                  "BenchmarkFoo-bar",
		"BenchmarkIssueVerifyCredential-16": "BenchmarkIssueVerifyCredential",
	}
	for in, want := range cases {
		if got := normalizeBenchmarkName(in); got != want {
			t.Fatalf("normalizeBenchmarkName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMedian(t *testing.T) {
	if got := median([]float64{3, 1, 2}); got != 2 {
		t.Fatalf("median odd = %v", got)
	}
	if got := median([]float64{4, 1, 3, 2}); got != 2.5 {
		t.Fatalf("median even = %v", got)
	}
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRunDetectsRegression(t *testing.T) {
	base := writeFile(t, "base.txt", baselineOutput)
	slower := writeFile(t, "cand.txt", strings.ReplaceAll(baselineOutput, "100000 ns/op", "200000 ns/op"))

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-baseline", base, "-candidate", base}, &stdout, &stderr); code != 0 {
		t.Fatalf("identical runs exit %d: %s", code, stderr.String())
	}

	stderr.Reset()
	if code := run([]string{"-baseline", base, "-candidate", slower}, &stdout, &stderr); code != 1 {
		t.Fatalf("regression exit %d, want 1", code)
	}
	if !strings.Contains(stderr.String(), "BenchmarkIssueVerifyCredential ns/op regressed") {
		t.Fatalf("unexpected stderr: %s", stderr.String())
	}
}

func TestRunRequiresPaths(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := run(nil, &stdout, &stderr); code != 2 {
		t.Fatalf("exit %d, want 2", code)
	}
}
