package lexer

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreeve/rip-sub000/token"
)

func TestSessionCache(t *testing.T) {
	s, err := NewSession(2)
	require.NoError(t, err)

	first, err := s.Tokenize("x = 1", Options{Filename: "a.rip"})
	require.NoError(t, err)
	second, err := s.Tokenize("x = 1", Options{Filename: "a.rip"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, token.Tags(first), token.Tags(second))

	// Callers own their copy.
	first[0].Text = "changed"
	first[0].Loc.Range[0] = 99
	third, err := s.Tokenize("x = 1", Options{Filename: "a.rip"})
	require.NoError(t, err)
	assert.Equal(t, "x", third[0].Text)
	assert.Equal(t, 0, third[0].Loc.Range[0])

	_, err = s.Tokenize("x = 1", Options{Filename: "a.rip", NoRewrite: true})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	_, err = s.Tokenize("y = 2", Options{Filename: "b.rip"})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len(), "cache is bounded")
}

func TestSessionErrorsAreNotCached(t *testing.T) {
	s, err := NewSession(0)
	require.NoError(t, err)
	_, err = s.Tokenize(`"abc`, Options{Filename: "bad.rip"})
	require.Error(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestSessionBypassesCache(t *testing.T) {
	s, err := NewSession(4)
	require.NoError(t, err)

	var buf bytes.Buffer
	opts := Options{Filename: "a.rip", Logger: log.New(&buf, "", 0)}
	for range 2 {
		_, err := s.Tokenize("f a", opts)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "rewritten token stream: "))

	_, err = s.Tokenize("{a: 1} rest", Options{Filename: "b.rip", UntilBalanced: true})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestAnonymousNames(t *testing.T) {
	s, err := NewSession(DefaultCacheSize)
	require.NoError(t, err)
	assert.Equal(t, "<anonymous-1>", s.AnonymousName())
	assert.Equal(t, "<anonymous-2>", s.AnonymousName())

	_, err = s.Tokenize(`"abc`, Options{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "<anonymous-3>:1:5:"), err.Error())
}

func TestSessionConcurrentUse(t *testing.T) {
	s, err := NewSession(8)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			name := fmt.Sprintf("f%d.rip", i%4)
			tokens, err := s.Tokenize("f a, b: c", Options{Filename: name})
			if err != nil {
				errs <- err
				return
			}
			if tokens[1].Tag != token.CallStart {
				errs <- fmt.Errorf("%s: got %s", name, token.Dump(tokens))
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
	assert.Equal(t, 4, s.Len())
}
