package models

import "encoding/json"

// Fingerprint is an ordered set of distinct feature tokens derived from an
// incident. Order is first-occurrence order of extraction; it carries no
// meaning but is deterministic for a given input. Two fingerprints are
// comparable only through the similarity scorer.
type Fingerprint struct {
	tokens []string
	index  map[string]struct{}
}

// NewFingerprint creates an empty fingerprint
func NewFingerprint() *Fingerprint {
	return &Fingerprint{
		index: make(map[string]struct{}),
	}
}

// Add appends a token unless it is already present. Reports whether the
// token was new.
func (f *Fingerprint) Add(token string) bool {
	if token == "" {
		return false
	}
	if _, ok := f.index[token]; ok {
		return false
	}
	f.index[token] = struct{}{}
	f.tokens = append(f.tokens, token)
	return true
}

// Contains reports whether the fingerprint holds the given token
func (f *Fingerprint) Contains(token string) bool {
	if f == nil {
		return false
	}
	_, ok := f.index[token]
	return ok
}

// Len returns the number of distinct tokens
func (f *Fingerprint) Len() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// Tokens returns the tokens in first-occurrence order. The returned slice
// is a copy; callers may not mutate the fingerprint through it.
func (f *Fingerprint) Tokens() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.tokens))
	copy(out, f.tokens)
	return out
}

// MarshalJSON encodes the fingerprint as a plain token array
func (f *Fingerprint) MarshalJSON() ([]byte, error) {
	if f == nil || f.tokens == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(f.tokens)
}

// UnmarshalJSON decodes a token array, dropping duplicates while keeping
// first-occurrence order.
func (f *Fingerprint) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	f.tokens = nil
	f.index = make(map[string]struct{})
	for _, t := range tokens {
		f.Add(t)
	}
	return nil
}
