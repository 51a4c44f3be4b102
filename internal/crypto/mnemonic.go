package crypto

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic is returned when a recovery phrase fails validation:
// wrong word count, a word outside the BIP39 dictionary, or a bad checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

const (
	mnemonicWordCount = 12
	entropyBits       = 128 // 128 bits + 4-bit checksum = 12 words
)

// GenerateMnemonic draws fresh entropy from the system source and encodes it
// as a 12-word recovery phrase. Failure of the entropy source is not
// recoverable.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(entropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	return mnemonicFromEntropy(entropy)
}

func mnemonicFromEntropy(entropy []byte) (string, error) {
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("failed to encode mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ParseMnemonic normalizes and validates a typed recovery phrase. Whitespace
// runs (including tabs and newlines) collapse to single spaces and letters are
// lowercased before validation, so the result is the canonical phrase.
func ParseMnemonic(input string) (string, error) {
	phrase := NormalizeMnemonic(input)
	if phrase == "" {
		return "", fmt.Errorf("%w: empty phrase", ErrInvalidMnemonic)
	}
	words := strings.Split(phrase, " ")
	if len(words) != mnemonicWordCount {
		return "", fmt.Errorf("%w: expected %d words, got %d", ErrInvalidMnemonic, mnemonicWordCount, len(words))
	}
	for _, word := range words {
		if !IsWord(word) {
			return "", fmt.Errorf("%w: %q is not a dictionary word", ErrInvalidMnemonic, word)
		}
	}
	if !bip39.IsMnemonicValid(phrase) {
		return "", fmt.Errorf("%w: checksum mismatch", ErrInvalidMnemonic)
	}
	return phrase, nil
}

// NormalizeMnemonic lowercases the input and collapses all whitespace runs to
// single spaces.
func NormalizeMnemonic(input string) string {
	return strings.ToLower(strings.Join(strings.Fields(input), " "))
}

var (
	wordSetOnce sync.Once
	wordSet     map[string]struct{}
)

// WordList returns the full BIP39 English dictionary in index order.
func WordList() []string {
	return bip39.GetWordList()
}

// IsWord reports whether word is in the BIP39 English dictionary.
func IsWord(word string) bool {
	wordSetOnce.Do(func() {
		list := bip39.GetWordList()
		wordSet = make(map[string]struct{}, len(list))
		for _, w := range list {
			wordSet[w] = struct{}{}
		}
	})
	_, ok := wordSet[word]
	return ok
}

// WordsWithPrefix returns the dictionary words starting with prefix, for
// import-form autocomplete.
func WordsWithPrefix(prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	var matches []string
	for _, w := range bip39.GetWordList() {
		if strings.HasPrefix(w, prefix) {
			matches = append(matches, w)
		}
	}
	return matches
}
