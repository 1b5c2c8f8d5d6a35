package proptree

import "testing"

func TestParseScalarAndNode(t *testing.T) {
	input := `
		// a comment
		42 {
			name = "x";
			0 {
				username = "u";
				password = "p";
				timestamp = 1;
			}
		}
	`
	root, err := Parse([]byte(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	entry, ok := root.GetNode("42")
	if !ok {
		t.Fatalf("missing node 42")
	}
	name, ok := entry.Get("name")
	if !ok || name != "x" {
		t.Fatalf("got name %q, ok=%v", name, ok)
	}

	snap, ok := entry.GetNode("0")
	if !ok {
		t.Fatalf("missing snapshot node 0")
	}
	username, _ := snap.Get("username")
	password, _ := snap.Get("password")
	if username != "u" || password != "p" {
		t.Fatalf("got username=%q password=%q", username, password)
	}
}

func TestWriteParseRoundTrip(t *testing.T) {
	root := &Node{}
	root.Set("alpha", "one")
	child := root.AppendNode("beta")
	child.Set("gamma", "with \"quotes\" and \\backslash\\")

	data := Write(root)
	reparsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Write(...)): %v\n%s", err, data)
	}

	v, ok := reparsed.Get("alpha")
	if !ok || v != "one" {
		t.Fatalf("got alpha=%q", v)
	}
	betaNode, ok := reparsed.GetNode("beta")
	if !ok {
		t.Fatalf("missing beta node")
	}
	gamma, ok := betaNode.Get("gamma")
	if !ok || gamma != "with \"quotes\" and \\backslash\\" {
		t.Fatalf("got gamma=%q", gamma)
	}
}

func TestParseBracedRoot(t *testing.T) {
	root, err := Parse([]byte(`{ a = "1"; b { c = "2"; } }`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if v, ok := root.Get("a"); !ok || v != "1" {
		t.Fatalf("got a=%q", v)
	}
	if _, ok := root.GetNode("b"); !ok {
		t.Fatalf("missing node b")
	}
}

func TestParseBracedRootRejectsTrailingData(t *testing.T) {
	_, err := Parse([]byte(`{ a = "1"; } b = "2";`))
	if err == nil {
		t.Fatalf("expected an error for data after the root's closing brace")
	}
}

func TestParseUnterminatedNodeFails(t *testing.T) {
	_, err := Parse([]byte("a { b = \"c\";"))
	if err == nil {
		t.Fatalf("expected an error for an unterminated node")
	}
}

func TestParseBareWordValue(t *testing.T) {
	root, err := Parse([]byte("flag = true;"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, ok := root.Get("flag")
	if !ok || v != "true" {
		t.Fatalf("got flag=%q", v)
	}
}

// Fuzz_Parse feeds Parse arbitrary byte buffers, asserting it only ever
// returns a node or an error, never panics, regardless of shape.
func Fuzz_Parse(f *testing.F) {
	f.Add([]byte(""))
	f.Add([]byte("42 { name = \"x\"; 0 { username = \"u\"; password = \"p\"; timestamp = 1; } }"))
	f.Add([]byte("a { b = \"c\";"))
	f.Add([]byte("{{{{"))
	f.Add([]byte("k = \"unterminated"))

	f.Fuzz(func(t *testing.T, buf []byte) {
		_, _ = Parse(buf)
	})
}

// Fuzz_ParseDatabase feeds ParseDatabase arbitrary byte buffers, asserting
// it never panics on malformed or adversarial import text.
func Fuzz_ParseDatabase(f *testing.F) {
	f.Add([]byte("42 { name = \"x\"; 0 { username = \"u\"; password = \"p\"; timestamp = 1; } }"))
	f.Add([]byte(""))
	f.Add([]byte("not_a_number { name = \"x\"; }"))

	f.Fuzz(func(t *testing.T, buf []byte) {
		_, _ = ParseDatabase(buf)
	})
}
