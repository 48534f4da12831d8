package lexer

import (
	"crypto/sha256"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shreeve/rip-sub000/token"
)

// DefaultCacheSize is the number of token streams a Session keeps.
const DefaultCacheSize = 256

// Session is the state shared by the compilations of one process run: the
// counter that names anonymous inputs and a cache of finished token
// streams. It is safe for concurrent use.
type Session struct {
	anonymous atomic.Int64
	cache     *lru.Cache[cacheKey, []*token.Token]
}

type cacheKey struct {
	name string
	sum  [sha256.Size]byte
	opts string
}

// NewSession returns a session caching up to size token streams. A size of
// zero or less uses DefaultCacheSize.
func NewSession(size int) (*Session, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[cacheKey, []*token.Token](size)
	if err != nil {
		return nil, fmt.Errorf("creating token cache: %w", err)
	}
	return &Session{cache: cache}, nil
}

// AnonymousName returns a fresh name for input that has no file name.
func (s *Session) AnonymousName() string {
	return fmt.Sprintf("<anonymous-%d>", s.anonymous.Add(1))
}

// Tokenize is lexer.Tokenize with caching. Inputs without a file name get
// an anonymous one. Callers receive their own copy of the stream and may
// mutate it. Runs with a Logger or with UntilBalanced bypass the cache;
// use TokenizeIndex for the consumed length.
func (s *Session) Tokenize(code string, opts Options) ([]*token.Token, error) {
	if opts.Filename == "" {
		opts.Filename = s.AnonymousName()
	}
	if opts.Logger != nil || opts.UntilBalanced {
		return Tokenize(code, opts)
	}
	key := cacheKey{
		name: opts.Filename,
		sum:  sha256.Sum256([]byte(code)),
		opts: fmt.Sprintf("%d:%d:%d:%t:%d", opts.Line, opts.Column, opts.Offset,
			opts.NoRewrite, opts.MaxInterpolationDepth),
	}
	if tokens, ok := s.cache.Get(key); ok {
		return token.Clone(tokens), nil
	}
	tokens, err := Tokenize(code, opts)
	if err != nil {
		return nil, err
	}
	s.cache.Add(key, tokens)
	return token.Clone(tokens), nil
}

// Len reports how many token streams are cached.
func (s *Session) Len() int { return s.cache.Len() }
