package simhash

import "strings"

// FingerprintListing computes a fingerprint of a search listing from its
// title and snippet. Tokens are lowercased and shingled (3-grams) so the
// small wording shifts between storefront variants of the same product
// land within a small Hamming distance of each other. Returns 0 when both
// inputs are empty.
func FingerprintListing(title, snippet string) uint64 {
	tokens := strings.Fields(strings.ToLower(title + " " + snippet))
	if len(tokens) == 0 {
		return 0
	}

	shingles := makeShingles(tokens, 3)
	if len(shingles) == 0 {
		// Too few tokens for shingles; fingerprint the tokens directly.
		return Fingerprint(strings.Join(tokens, " "))
	}

	return Fingerprint(strings.Join(shingles, " "))
}

// makeShingles creates n-gram shingles from a slice of tokens.
func makeShingles(tokens []string, n int) []string {
	if len(tokens) < n {
		return nil
	}

	shingles := make([]string, 0, len(tokens)-n+1)
	for i := 0; i <= len(tokens)-n; i++ {
		shingles = append(shingles, strings.Join(tokens[i:i+n], "_"))
	}
	return shingles
}
