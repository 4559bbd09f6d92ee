package lexer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLex(t *testing.T) {
	t.Parallel()
	type testCase struct {
		I string
		O []Token
	}
	mkCase := func(in string, toks ...Token) testCase {
		return testCase{in, toks}
	}
	tcs := []testCase{
		mkCase("", []Token{}...),
		mkCase("()", mkTok(LParen, "(", 0), mkTok(RParen, ")", 1)),

		mkCase(`\x.x`,
			mkTok(Lambda, `\`, 0), mkTok(Symbol, "x", 1), mkTok(Dot, ".", 2), mkTok(Symbol, "x", 3),
		),
		mkCase("#42", mkTok(Num, "#42", 0)),
		mkCase("#Cons", mkTok(CtorName, "#Cons", 0)),
		mkCase("@main", mkTok(RefName, "@main", 0)),
		mkCase("@@stream", mkTok(AloName, "@@stream", 0)),
		mkCase("*", mkTok(Star, "*", 0)),
		mkCase("?", mkTok(Question, "?", 0)),
		mkCase("'a'", mkTok(Char, "'a'", 0)),
		mkCase(`'\n'`, mkTok(Char, `'\n'`, 0)),

		mkCase("&3{#1,#2}",
			mkTok(Amp, "&", 0), mkTok(Int, "3", 1), mkTok(LBrace, "{", 2),
			mkTok(Num, "#1", 3), mkTok(Comma, ",", 5), mkTok(Num, "#2", 6),
			mkTok(RBrace, "}", 8),
		),
		mkCase("!&1{a,b}=v;k",
			mkTok(Bang, "!", 0), mkTok(Amp, "&", 1), mkTok(Int, "1", 2),
			mkTok(LBrace, "{", 3), mkTok(Symbol, "a", 4), mkTok(Comma, ",", 5),
			mkTok(Symbol, "b", 6), mkTok(RBrace, "}", 7), mkTok(Assign, "=", 8),
			mkTok(Symbol, "v", 9), mkTok(Semi, ";", 10), mkTok(Symbol, "k", 11),
		),
		mkCase("(+ #1 #2)",
			mkTok(LParen, "(", 0), mkTok(OpSym, "+", 1), mkTok(Num, "#1", 3),
			mkTok(Num, "#2", 6), mkTok(RParen, ")", 8),
		),
		mkCase("== != <= >= === << >>",
			mkTok(OpSym, "==", 0), mkTok(OpSym, "!=", 3), mkTok(OpSym, "<=", 6),
			mkTok(OpSym, ">=", 9), mkTok(OpSym, "===", 12), mkTok(OpSym, "<<", 16),
			mkTok(OpSym, ">>", 19),
		),
		mkCase("= x", mkTok(Assign, "=", 0), mkTok(Symbol, "x", 2)),
		mkCase("~s{a b}",
			mkTok(Tilde, "~", 0), mkTok(Symbol, "s", 1), mkTok(LBrace, "{", 2),
			mkTok(Symbol, "a", 3), mkTok(Symbol, "b", 5), mkTok(RBrace, "}", 6),
		),
		mkCase("{x : T}",
			mkTok(LBrace, "{", 0), mkTok(Symbol, "x", 1), mkTok(Colon, ":", 3),
			mkTok(Symbol, "T", 5), mkTok(RBrace, "}", 6),
		),
		mkCase("// note", mkTok(Comment, "// note", 0)),
		mkCase("#1 // tail\n#2",
			mkTok(Num, "#1", 0), mkTok(Comment, "// tail", 3), mkTok(Num, "#2", 11),
		),
	}
	for i, tc := range tcs {
		t.Run(fmt.Sprintf("%02d", i), func(t *testing.T) {
			t.Log(tc.I)
			l := NewLexer(strings.NewReader(tc.I))
			actual := []Token{}
			for range tc.O {
				tok, err := l.Next()
				require.NoError(t, err)
				require.False(t, tok.IsEOF())
				actual = append(actual, tok)
			}
			tok, err := l.Next()
			require.NoError(t, err)
			require.True(t, tok.IsEOF())

			require.Equal(t, tc.O, actual)
		})
	}
}

func TestLexErrors(t *testing.T) {
	t.Parallel()
	for _, in := range []string{"#", "# ", "@", "'a", `'\q'`} {
		t.Run(in, func(t *testing.T) {
			l := NewLexer(strings.NewReader(in))
			var err error
			for i := 0; i < 4 && err == nil; i++ {
				_, err = l.Next()
			}
			require.Error(t, err)
		})
	}
}

func TestLexIllegal(t *testing.T) {
	t.Parallel()
	l := NewLexer(strings.NewReader("$"))
	tok, err := l.Next()
	require.NoError(t, err)
	require.Equal(t, Illegal, tok.Type())
}

func mkTok(ty TokenType, text string, pos Pos) Token {
	return Token{
		ty:   ty,
		text: text,
		span: Span{pos, pos + Pos(len(text))},
	}
}
