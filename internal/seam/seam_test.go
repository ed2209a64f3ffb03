package seam

import "testing"

func TestDetectCsharpToNodeViaHttpClient(t *testing.T) {
	d := New()
	s, ok := d.Detect("csharp", "node", `var client = new HttpClient();`, "OrderService", "NotificationService")
	if !ok {
		t.Fatal("expected seam detection")
	}
	if s.SourceLanguage != "csharp" || s.TargetLanguage != "node" {
		t.Fatalf("unexpected seam: %+v", s)
	}
}

func TestDetectCapturesEndpoint(t *testing.T) {
	d := New()
	s, ok := d.Detect("csharp", "node", `await client.PostAsync("https://notify.internal/send", body);`, "OrderService", "NotifyService")
	if !ok {
		t.Fatal("expected seam detection")
	}
	if s.Endpoint != "https://notify.internal/send" {
		t.Fatalf("endpoint = %q", s.Endpoint)
	}
}

func TestDetectNoMatchReturnsFalse(t *testing.T) {
	d := New()
	_, ok := d.Detect("csharp", "node", `var x = 1 + 1;`, "a", "b")
	if ok {
		t.Fatal("expected no seam detected")
	}
}

func TestDetectUnregisteredPairReturnsFalse(t *testing.T) {
	d := New()
	_, ok := d.Detect("go", "rust", `cgo.Call()`, "a", "b")
	if ok {
		t.Fatal("expected no seam for unregistered pair")
	}
}

func TestAddPatternRegistersNewRule(t *testing.T) {
	d := New()
	d.AddPattern("go", "rust", `cgo\.Call`)
	s, ok := d.Detect("go", "rust", `cgo.Call(fn)`, "a", "b")
	if !ok || s.TargetLanguage != "rust" {
		t.Fatalf("expected detection after AddPattern, got %+v %v", s, ok)
	}
}

func TestAddPatternIgnoresInvalidRegex(t *testing.T) {
	d := New()
	before := len(d.RegisteredPairs())
	d.AddPattern("go", "weird", `(unterminated`)
	_, ok := d.Detect("go", "weird", "(unterminated", "a", "b")
	if ok {
		t.Fatal("invalid pattern should not have been registered")
	}
	after := len(d.RegisteredPairs())
	if after != before {
		t.Fatalf("pair count changed from invalid pattern: %d -> %d", before, after)
	}
}

func TestRegisteredPairsIncludesBuiltins(t *testing.T) {
	d := New()
	pairs := d.RegisteredPairs()
	found := false
	for _, p := range pairs {
		if p[0] == "python" && p[1] == "sql" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected python->sql in %v", pairs)
	}
}
