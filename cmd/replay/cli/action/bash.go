package action

import "strings"

// DeletionsFromCommand scans a Bash command for file removals (`rm` and
// `git rm`). Each segment of a pipeline or &&/||/; chain is scanned
// independently. Tokenization respects single quotes, double quotes, and
// backslash escapes; glob arguments are recorded verbatim.
func DeletionsFromCommand(command string) []Deletion {
	var deletions []Deletion
	for _, segment := range splitSegments(tokenize(command)) {
		deletions = append(deletions, scanSegment(segment)...)
	}
	return deletions
}

// scanSegment extracts removals from one command segment.
func scanSegment(tokens []string) []Deletion {
	// Skip env assignments and sudo prefixes
	i := 0
	for i < len(tokens) && (tokens[i] == "sudo" || isEnvAssignment(tokens[i])) {
		i++
	}
	if i >= len(tokens) {
		return nil
	}

	switch tokens[i] {
	case "rm":
		return parseRemoveArgs(tokens[i+1:])
	case "git":
		if i+1 < len(tokens) && tokens[i+1] == "rm" {
			return parseRemoveArgs(tokens[i+2:])
		}
	}
	return nil
}

// parseRemoveArgs walks rm-style arguments: flags first (recursive when a
// short flag contains r/R), then paths. "--" ends flag parsing.
func parseRemoveArgs(args []string) []Deletion {
	var deletions []Deletion
	recursive := false
	flagsDone := false
	for _, arg := range args {
		if !flagsDone && arg == "--" {
			flagsDone = true
			continue
		}
		if !flagsDone && strings.HasPrefix(arg, "-") && arg != "-" {
			if !strings.HasPrefix(arg, "--") && strings.ContainsAny(arg, "rR") {
				recursive = true
			}
			if arg == "--recursive" {
				recursive = true
			}
			continue
		}
		deletions = append(deletions, Deletion{Path: arg, Recursive: recursive})
	}
	return deletions
}

func isEnvAssignment(token string) bool {
	idx := strings.Index(token, "=")
	if idx <= 0 {
		return false
	}
	for _, r := range token[:idx] {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// splitSegments splits a token stream on shell separators.
func splitSegments(tokens []string) [][]string {
	var segments [][]string
	var current []string
	for _, tok := range tokens {
		switch tok {
		case "&&", "||", ";", "|", "&":
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
		default:
			current = append(current, tok)
		}
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// tokenize splits a command line into tokens, honoring quotes and
// backslash escapes. Unquoted separators (&&, ||, ;, |, &) become their
// own tokens.
func tokenize(command string) []string {
	var tokens []string
	var current strings.Builder
	hasContent := false

	flush := func() {
		if hasContent {
			tokens = append(tokens, current.String())
			current.Reset()
			hasContent = false
		}
	}

	runes := []rune(command)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				i++
				current.WriteRune(runes[i])
				hasContent = true
			}
		case '\'':
			// Single quotes: literal until the closing quote
			i++
			for i < len(runes) && runes[i] != '\'' {
				current.WriteRune(runes[i])
				i++
			}
			hasContent = true
		case '"':
			// Double quotes: backslash still escapes
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < len(runes) {
					i++
				}
				current.WriteRune(runes[i])
				i++
			}
			hasContent = true
		case ' ', '\t', '\n':
			flush()
		case '&', '|', ';':
			flush()
			if (r == '&' || r == '|') && i+1 < len(runes) && runes[i+1] == r {
				tokens = append(tokens, string(r)+string(r))
				i++
			} else {
				tokens = append(tokens, string(r))
			}
		default:
			current.WriteRune(r)
			hasContent = true
		}
	}
	flush()

	return tokens
}
