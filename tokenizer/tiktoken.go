// Package tokenizer provides token counting for prompt-context budgeting.
package tokenizer

import (
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts the tokens a text occupies in a model context window.
type Counter interface {
	CountTokens(text string) (int, error)
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding data
// can be downloaded on first use, so initialization is lazy.
type TiktokenCounter struct {
	encoding string
	enc      *tiktoken.Tiktoken
	once     sync.Once
	initErr  error
}

// NewTiktokenCounter creates a counter for the given encoding. An empty
// encoding defaults to cl100k_base.
func NewTiktokenCounter(encoding string) *TiktokenCounter {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	return &TiktokenCounter{encoding: encoding}
}

func (c *TiktokenCounter) init() error {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding(c.encoding)
		if err != nil {
			c.initErr = fmt.Errorf("init tiktoken encoding %s: %w", c.encoding, err)
			return
		}
		c.enc = enc
	})
	return c.initErr
}

// CountTokens returns the number of tokens in text.
func (c *TiktokenCounter) CountTokens(text string) (int, error) {
	if err := c.init(); err != nil {
		return 0, err
	}
	return len(c.enc.Encode(text, nil, nil)), nil
}

// HeuristicCounter approximates tokens as runes/4, the usual rule of thumb
// for English text. It needs no encoding data and suits tests and offline
// environments.
type HeuristicCounter struct{}

// CountTokens returns the approximate number of tokens in text.
func (HeuristicCounter) CountTokens(text string) (int, error) {
	n := utf8.RuneCountInString(text)
	count := n / 4
	if n%4 != 0 {
		count++
	}
	return count, nil
}
