package provider

import (
	"regexp"

	"github.com/mr-tron/base58"
)

var addressPattern = regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{32,44}`)

// IsMintAddress reports whether s decodes to a 32-byte Solana public key.
func IsMintAddress(s string) bool {
	if len(s) < 32 || len(s) > 44 {
		return false
	}
	b, err := base58.Decode(s)
	return err == nil && len(b) == 32
}

// ExtractMintAddresses returns the distinct Solana addresses found in text,
// in order of first appearance.
func ExtractMintAddresses(text string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, m := range addressPattern.FindAllString(text, -1) {
		if _, ok := seen[m]; ok || !IsMintAddress(m) {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
