package lexer

import "testing"

func TestScanTokensKeywordsAndOperators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TokenType
	}{
		{
			name:  "let binding",
			input: "let x = 1",
			want:  []TokenType{TokenLet, TokenIdent, TokenEqual, TokenInt, TokenEOF},
		},
		{
			name:  "compound assign and increment",
			input: "x += 1; y++",
			want:  []TokenType{TokenIdent, TokenPlusEq, TokenInt, TokenSemicolon, TokenIdent, TokenPlusPlus, TokenEOF},
		},
		{
			name:  "comparisons",
			input: "a <= b && c != d",
			want:  []TokenType{TokenIdent, TokenLessEqual, TokenIdent, TokenAndAnd, TokenIdent, TokenBangEqual, TokenIdent, TokenEOF},
		},
		{
			name:  "host call name",
			input: "$print(1)",
			want:  []TokenType{TokenHostName, TokenLParen, TokenInt, TokenRParen, TokenEOF},
		},
		{
			name:  "new and instanceof",
			input: "new Foo() instanceof Foo",
			want:  []TokenType{TokenNew, TokenIdent, TokenLParen, TokenRParen, TokenInstanceOf, TokenIdent, TokenEOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := NewScanner(tt.input)
			tokens := sc.ScanTokens()
			if err := sc.Err(); err != nil {
				t.Fatalf("unexpected lex error: %v", err)
			}
			if len(tokens) != len(tt.want) {
				t.Fatalf("got %d tokens, want %d: %v", len(tokens), len(tt.want), tokens)
			}
			for i, tok := range tokens {
				if tok.Type != tt.want[i] {
					t.Errorf("token %d: got %s, want %s", i, tok.Type, tt.want[i])
				}
			}
		})
	}
}

func TestScanTokensLiteralValues(t *testing.T) {
	sc := NewScanner(`"hello" 42 3.5`)
	tokens := sc.ScanTokens()
	if err := sc.Err(); err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	if tokens[0].StrVal != "hello" {
		t.Errorf("string literal: got %q, want %q", tokens[0].StrVal, "hello")
	}
	if tokens[1].IntVal != 42 {
		t.Errorf("int literal: got %d, want 42", tokens[1].IntVal)
	}
	if tokens[2].FloatVal != 3.5 {
		t.Errorf("float literal: got %v, want 3.5", tokens[2].FloatVal)
	}
}

func TestScanTokensLineAndColumnTracking(t *testing.T) {
	sc := NewScanner("let x = 1\nlet y = 2")
	tokens := sc.ScanTokens()
	var secondLetLine int
	seen := 0
	for _, tok := range tokens {
		if tok.Type == TokenLet {
			seen++
			if seen == 2 {
				secondLetLine = tok.Line
			}
		}
	}
	if secondLetLine != 2 {
		t.Errorf("expected second `let` on line 2, got line %d", secondLetLine)
	}
}

func TestScanTokensUnterminatedStringSetsErr(t *testing.T) {
	sc := NewScanner(`"unterminated`)
	sc.ScanTokens()
	if sc.Err() == nil {
		t.Fatal("expected a lex error for an unterminated string literal")
	}
}
