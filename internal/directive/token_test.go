package directive

import (
	"reflect"
	"testing"
)

func TestTokenize_Simple(t *testing.T) {
	toks, err := Tokenize("parallel for", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []string
	for _, tok := range toks {
		got = append(got, tok.Text)
	}
	want := []string{"parallel", "for"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTokenize_ClauseWithArgs(t *testing.T) {
	toks, err := Tokenize(`private(x, y) reduction(+: sum)`, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var kinds []TokenKind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}
	wantFirst := TokName
	if kinds[0] != wantFirst {
		t.Errorf("first token kind = %v, want %v", kinds[0], wantFirst)
	}
}

func TestTokenize_String(t *testing.T) {
	toks, err := Tokenize(`message("abort: %s" , x)`, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == TokString && tok.Text == `"abort: %s"` {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a string token, got %v", toks)
	}
}

func TestTokenize_UnclosedParen(t *testing.T) {
	_, err := Tokenize("num_threads(4", 1, 1)
	if err == nil {
		t.Fatal("expected an error for an unclosed paren")
	}
	ue, ok := err.(*UnbalancedError)
	if !ok {
		t.Fatalf("got %T, want *UnbalancedError", err)
	}
	if !ue.Opened {
		t.Errorf("Opened = false, want true")
	}
}

func TestTokenize_UnopenedParen(t *testing.T) {
	_, err := Tokenize("num_threads 4)", 1, 1)
	if err == nil {
		t.Fatal("expected an error for an unopened paren")
	}
	ue, ok := err.(*UnbalancedError)
	if !ok {
		t.Fatalf("got %T, want *UnbalancedError", err)
	}
	if ue.Opened {
		t.Errorf("Opened = true, want false")
	}
}

func TestTokenize_MismatchedBracket(t *testing.T) {
	_, err := Tokenize("private(a[0})", 1, 1)
	if err == nil {
		t.Fatal("expected an error for a mismatched bracket")
	}
}

func TestUntokenize_RoundTrip(t *testing.T) {
	src := "private(x, y) schedule(static, 4)"
	toks, err := Tokenize(src, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := Untokenize(toks)
	want := "private(x, y) schedule(static, 4)"
	if got != want {
		t.Errorf("Untokenize() = %q, want %q", got, want)
	}
}

func TestTokenKind_String(t *testing.T) {
	cases := map[TokenKind]string{
		TokName:   "name",
		TokNumber: "number",
		TokPunct:  "punct",
		TokString: "string",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", int(k), got, want)
		}
	}
}
