package parser

import "strings"

// newlineReplacer folds every line terminator variant into "\n". The literal
// backtick-n is what PowerShell here-strings leave behind when piped through curl.
// Candidates are tried in argument order, so "\r\n" is consumed before "\r".
var newlineReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"`n", "\n",
)

// Normalize returns s with CRLF, CR and backtick-n replaced by a single LF.
// No other characters are touched and the result is stable under repeated calls.
func Normalize(s string) string {
	return newlineReplacer.Replace(s)
}
