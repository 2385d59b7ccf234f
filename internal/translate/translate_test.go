package translate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLanguage(t *testing.T) {
	tcases := []struct {
		name     string
		tag      string
		expected string
	}{
		{name: "empty", tag: "", expected: "en"},
		{name: "whitespace", tag: "  ", expected: "en"},
		{name: "simple", tag: "fr", expected: "fr"},
		{name: "upper case", tag: "DE", expected: "de"},
		{name: "region", tag: "pt-br", expected: "pt-BR"},
		{name: "garbage", tag: "not a language!", expected: "en"},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeLanguage(tc.tag))
		})
	}
}

func TestGoogleTranslator_Translate(t *testing.T) {
	t.Run("successful translation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/translate_a/single", r.URL.Path)
			q := r.URL.Query()
			assert.Equal(t, "gtx", q.Get("client"))
			assert.Equal(t, "en", q.Get("sl"))
			assert.Equal(t, "fr", q.Get("tl"))
			assert.Equal(t, "t", q.Get("dt"))
			assert.Equal(t, "hello. how are you?", q.Get("q"))

			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`[[["bonjour. ","hello. ",null,null,10],["comment allez-vous?","how are you?",null,null,10]],null,"en"]`))
		}))
		defer srv.Close()

		tr := NewGoogleTranslator(srv.URL+"/", time.Second)
		out, err := tr.Translate(context.Background(), "en", "fr", "hello. how are you?")
		assert.NoError(t, err)
		assert.Equal(t, "bonjour. comment allez-vous?", out)
	})

	t.Run("same source and target skips the request", func(t *testing.T) {
		tr := NewGoogleTranslator("http://127.0.0.1:0", time.Second)
		out, err := tr.Translate(context.Background(), "en", "en", "hello")
		assert.NoError(t, err)
		assert.Equal(t, "hello", out)
	})

	t.Run("empty text skips the request", func(t *testing.T) {
		tr := NewGoogleTranslator("", time.Second)
		out, err := tr.Translate(context.Background(), "en", "fr", "")
		assert.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("disabled", func(t *testing.T) {
		tr := NewGoogleTranslator("", time.Second)
		_, err := tr.Translate(context.Background(), "en", "fr", "hello")
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("non 200 status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}))
		defer srv.Close()

		tr := NewGoogleTranslator(srv.URL, time.Second)
		_, err := tr.Translate(context.Background(), "en", "fr", "hello")
		assert.ErrorContains(t, err, "unexpected status")
	})

	t.Run("malformed body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not":"an array"}`))
		}))
		defer srv.Close()

		tr := NewGoogleTranslator(srv.URL, time.Second)
		_, err := tr.Translate(context.Background(), "en", "fr", "hello")
		assert.ErrorContains(t, err, "decode response")
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer srv.Close()
		defer close(block)

		tr := NewGoogleTranslator(srv.URL, 50*time.Millisecond)
		_, err := tr.Translate(context.Background(), "en", "fr", "hello")
		assert.Error(t, err, "expected request to time out")
	})
}

func Test_parseSegments(t *testing.T) {
	tcases := []struct {
		name     string
		body     []any
		expected string
		err      bool
	}{
		{
			name:     "single segment",
			body:     []any{[]any{[]any{"hola", "hello"}}, nil, "en"},
			expected: "hola",
		},
		{
			name: "empty body",
			body: []any{},
			err:  true,
		},
		{
			name: "first element not a list",
			body: []any{"hola"},
			err:  true,
		},
		{
			name: "no strings",
			body: []any{[]any{[]any{nil}}},
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := parseSegments(tc.body)
			if tc.err {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, out)
		})
	}
}
