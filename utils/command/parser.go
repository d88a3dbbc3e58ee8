package command

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var integerPattern = regexp.MustCompile(`^[+-]?\d+$`)

// Parser recognizes invocations that start with a fixed marker
type Parser struct {
	marker  string
	pattern *regexp.Regexp
}

// NewParser creates a parser for the given marker. An empty marker falls back to DefaultMarker.
func NewParser(marker string) *Parser {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return &Parser{
		marker:  marker,
		pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(marker) + `\s+(.+)`),
	}
}

var defaultParser = NewParser(DefaultMarker)

// Parse parses text with the default marker. It returns nil when the text holds no command.
func Parse(text string) *Command {
	return defaultParser.Parse(text)
}

// Marker returns the marker this parser looks for
func (p *Parser) Marker() string {
	return p.marker
}

// Parse extracts the first invocation from text. It returns nil when there is none.
func (p *Parser) Parse(text string) *Command {
	m := p.pattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	opts := splitOptions(strings.TrimSpace(m[1]))
	kind, instruction, ok := classify(opts.body)
	if !ok {
		return nil
	}

	cmd := &Command{
		Kind:             kind,
		RawText:          text,
		Count:            opts.count,
		ExcludeIssueBody: opts.noIssueBody,
	}
	if kind == KindCustom {
		cmd.CustomInstruction = instruction
	}
	return cmd
}

// options holds what splitOptions removed from the invocation and what is left
type options struct {
	body        string
	count       *int
	noIssueBody bool
}

// token is a whitespace separated word of the invocation. Quoted spans are one token.
type token struct {
	text       string
	start, end int
}

// tokenize splits s into tokens, keeping byte offsets so the untouched parts
// of the body can be reassembled verbatim.
func tokenize(s string) []token {
	var tokens []token
	i := 0
	for i < len(s) {
		if n := spaceAt(s, i); n > 0 {
			i += n
			continue
		}
		start := i
		if q := s[i]; q == '"' || q == '\'' {
			if end := strings.IndexByte(s[i+1:], q); end >= 0 {
				i += end + 2
				// a closing quote glued to more text still belongs to one word
				i = wordEnd(s, i)
				tokens = append(tokens, token{text: s[start:i], start: start, end: i})
				continue
			}
		}
		i = wordEnd(s, i)
		tokens = append(tokens, token{text: s[start:i], start: start, end: i})
	}
	return tokens
}

// wordEnd returns the offset of the first whitespace rune at or after i
func wordEnd(s string, i int) int {
	for i < len(s) && spaceAt(s, i) == 0 {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return i
}

// spaceAt returns the byte length of the whitespace rune starting at s[i], or 0
func spaceAt(s string, i int) int {
	r, size := utf8.DecodeRuneInString(s[i:])
	if r == utf8.RuneError || !unicode.IsSpace(r) {
		return 0
	}
	return size
}

// splitOptions removes --count/-c N and --no-issue-body wherever they occur.
// A count whose value is not a plain non-negative integer is not an option and
// stays in the body. Repeated counts: the last one in the text wins.
func splitOptions(rest string) options {
	var opts options
	tokens := tokenize(rest)
	consumed := make([]bool, len(tokens))

	for i := 0; i < len(tokens); i++ {
		name := strings.ToLower(tokens[i].text)
		switch name {
		case "--no-issue-body":
			opts.noIssueBody = true
			consumed[i] = true
		case "--count", "-c":
			if i+1 >= len(tokens) {
				continue
			}
			n, ok := parseCount(tokens[i+1].text)
			if !ok {
				continue
			}
			opts.count = &n
			consumed[i], consumed[i+1] = true, true
			i++
		}
	}

	var b strings.Builder
	prev := -1
	gap := false
	for i, t := range tokens {
		if consumed[i] {
			gap = true
			continue
		}
		if prev >= 0 {
			if gap {
				b.WriteByte(' ')
			} else {
				b.WriteString(rest[tokens[prev].end:t.start])
			}
		}
		b.WriteString(t.text)
		prev = i
		gap = false
	}
	opts.body = b.String()
	return opts
}

func parseCount(s string) (int, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// classify resolves the option-free body into a kind, in priority order:
// simple mnemonic, explicit custom, implicit custom.
func classify(body string) (Kind, string, bool) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", "", false
	}

	if kind, ok := ParseKind(body); ok && kind != KindCustom {
		return kind, "", true
	}

	if arg, ok := explicitCustomArgument(body); ok {
		return KindCustom, unquote(arg), true
	}

	instruction := unquote(body)
	if integerPattern.MatchString(strings.TrimSpace(instruction)) {
		return "", "", false
	}
	return KindCustom, instruction, true
}

// explicitCustomArgument returns the argument after a leading "custom" keyword
func explicitCustomArgument(body string) (string, bool) {
	const keyword = "custom"
	if len(body) <= len(keyword) || !strings.EqualFold(body[:len(keyword)], keyword) {
		return "", false
	}
	if spaceAt(body, len(keyword)) == 0 {
		return "", false
	}
	arg := strings.TrimSpace(body[len(keyword):])
	if arg == "" {
		return "", false
	}
	return arg, true
}

// unquote strips one pair of double quotes, or failing that single quotes,
// when they enclose the whole argument. Anything else is returned trimmed.
func unquote(arg string) string {
	arg = strings.TrimSpace(arg)
	for _, q := range []string{`"`, `'`} {
		if len(arg) >= 2 && strings.HasPrefix(arg, q) && strings.HasSuffix(arg, q) {
			inner := arg[1 : len(arg)-1]
			if !strings.Contains(inner, q) {
				return inner
			}
		}
	}
	return arg
}
