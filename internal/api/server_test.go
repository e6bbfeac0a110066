package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/api"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTrie(t *testing.T) *trie.Trie {
	t.Helper()
	tr, err := trie.New()
	require.NoError(t, err)
	for _, w := range []string{"cat", "car", "cart", "dog", "hot dog"} {
		require.NoError(t, tr.InsertString(w))
	}
	return tr
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestAPI(t *testing.T) {
	tr := newTrie(t)
	server := api.NewServer(":0", tr, zerolog.Nop())
	testServer := httptest.NewServer(server.Handler())
	defer testServer.Close()

	t.Run("Complete", func(t *testing.T) {
		var result struct {
			Prefix string   `json:"prefix"`
			Words  []string `json:"words"`
		}
		status := getJSON(t, testServer.URL+"/complete?prefix=ca", &result)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ca", result.Prefix)
		assert.Equal(t, []string{"car", "cart", "cat"}, result.Words)
	})

	t.Run("Complete with space in prefix", func(t *testing.T) {
		var result struct {
			Words []string `json:"words"`
		}
		status := getJSON(t, testServer.URL+"/complete?prefix="+url.QueryEscape("hot "), &result)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, []string{"hot dog"}, result.Words)
	})

	t.Run("Complete unknown prefix", func(t *testing.T) {
		var result map[string]string
		status := getJSON(t, testServer.URL+"/complete?prefix=zz", &result)
		assert.Equal(t, http.StatusNotFound, status)
		assert.Contains(t, result["error"], "not found")
	})

	t.Run("Complete invalid prefix", func(t *testing.T) {
		var result map[string]string
		status := getJSON(t, testServer.URL+"/complete?prefix="+url.QueryEscape("é"), &result)
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("Graph whole tree", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/graph")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/vnd.graphviz", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, tr.Len()-1, strings.Count(string(body), " -> "))
		assert.Contains(t, string(body), `[label="root"]`)
	})

	t.Run("Graph subtree", func(t *testing.T) {
		resp, err := http.Get(testServer.URL + "/graph?prefix=ca")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(string(body), " -> "))
		assert.Contains(t, string(body), `[label="ca"]`)
	})

	t.Run("Graph unknown prefix", func(t *testing.T) {
		var result map[string]string
		status := getJSON(t, testServer.URL+"/graph?prefix=zz", &result)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("Stats", func(t *testing.T) {
		var stats trie.PoolStats
		status := getJSON(t, testServer.URL+"/stats", &stats)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, tr.Stats(), stats)
	})

	t.Run("Contains", func(t *testing.T) {
		for word, want := range map[string]bool{"cart": true, "ca": false, "hot dog": true} {
			var result struct {
				Word    string `json:"word"`
				Present bool   `json:"present"`
			}
			status := getJSON(t, testServer.URL+"/contains/"+url.PathEscape(word), &result)
			assert.Equal(t, http.StatusOK, status, word)
			assert.Equal(t, word, result.Word)
			assert.Equal(t, want, result.Present, word)
		}
	})

	t.Run("Unknown route", func(t *testing.T) {
		var result map[string]string
		status := getJSON(t, testServer.URL+"/nope", &result)
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := api.NewServer(listener.Addr().String(), newTrie(t), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Serve(ctx, listener)
	}()

	client := &http.Client{Transport: &http.Transport{}}
	defer client.CloseIdleConnections()

	require.Eventually(t, func() bool {
		resp, err := client.Get(fmt.Sprintf("http://%s/stats", listener.Addr()))
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
