package dispatch

// VocabEntry pairs a wire token with the canonical name of its method.
type VocabEntry struct {
	Token string
	Name  string
}

// Select returns the vocabulary entries named by allow, in allow-list
// order, or the whole vocabulary for "ALL". Tokens missing from vocab
// yield an *UnknownCommandError and no entries.
func Select(vocab []VocabEntry, allow string) ([]VocabEntry, error) {
	tokens, all := ParseAllowList(allow)
	if all {
		out := make([]VocabEntry, len(vocab))
		copy(out, vocab)
		return out, nil
	}

	byToken := make(map[string]VocabEntry, len(vocab))
	for _, v := range vocab {
		byToken[v.Token] = v
	}

	var (
		out     []VocabEntry
		unknown []string
		seen    = make(map[string]bool, len(tokens))
	)
	for _, tok := range tokens {
		v, ok := byToken[tok]
		if !ok {
			unknown = append(unknown, tok)
			continue
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, v)
	}
	if len(unknown) > 0 {
		return nil, &UnknownCommandError{Tokens: unknown}
	}
	return out, nil
}
