package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terraria-chatbot-go/internal/config"
	"github.com/terraria-chatbot-go/internal/services/fallback"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(t *testing.T, baseURL, apiKey string, stream bool) (*Client, *fallback.Responder) {
	t.Helper()
	fb := fallback.NewResponder()
	cfg := &config.LLMConfig{
		BaseURL:   baseURL,
		APIKey:    apiKey,
		Model:     "test-model",
		MaxTokens: 256,
		Stream:    stream,
		Timeout:   5 * time.Second,
	}
	return NewClient(cfg, fb, testLogger()), fb
}

func TestGenerateWithoutCredentialDelegatesToFallback(t *testing.T) {
	client, fb := newTestClient(t, "http://unused.invalid", "", false)

	for _, query := range []string{
		"tell me about the Terra Blade",
		"how do I beat skeletron",
		"asdkjasd",
		"",
	} {
		assert.Equal(t, fb.Respond(query), client.Generate(context.Background(), query, nil))
	}
}

func TestGenerateBulk(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "Craft it at a Mythril Anvil."}},
			},
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, "secret", false)

	answer := client.Generate(context.Background(), "how do I get the Terra Blade?", []string{
		"Terra Blade (items): One of the most powerful melee weapons in the game.",
	})

	assert.Equal(t, "Craft it at a Mythril Anvil.", answer)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])

	// Context lines are embedded in the system instruction
	messages := gotBody["messages"].([]interface{})
	require.Len(t, messages, 2)
	system := messages[0].(map[string]interface{})
	assert.Equal(t, "system", system["role"])
	assert.Contains(t, system["content"], "Terra Blade (items)")
}

func TestGenerateBulkEmptyContextUsesPlaceholder(t *testing.T) {
	var systemContent string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		systemContent = body.Messages[0].Content

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, "secret", false)
	client.Generate(context.Background(), "hello", nil)

	assert.Contains(t, systemContent, "No specific context found")
}

func TestGenerateStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		chunks := []string{"The Terra Blade ", "is crafted from ", "a True Excalibur."}
		for _, chunk := range chunks {
			payload, _ := json.Marshal(map[string]interface{}{
				"choices": []map[string]interface{}{
					{"delta": map[string]string{"content": chunk}},
				},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: this line is not json\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ignored after done\"}}]}\n\n")
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL, "secret", true)

	answer := client.Generate(context.Background(), "terra blade recipe", nil)
	assert.Equal(t, "The Terra Blade is crafted from a True Excalibur.", answer)
}

func TestGenerateServerErrorFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream on fire", http.StatusBadGateway)
	}))
	defer server.Close()

	client, fb := newTestClient(t, server.URL, "secret", false)

	query := "how do I beat skeletron"
	assert.Equal(t, fb.Respond(query), client.Generate(context.Background(), query, nil))
}

func TestGenerateEmptyCompletionFallsBack(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": ""}},
			},
		})
	}))
	defer server.Close()

	client, fb := newTestClient(t, server.URL, "secret", false)

	query := "tell me about the merchant"
	assert.Equal(t, fb.Respond(query), client.Generate(context.Background(), query, nil))
}

func TestGenerateUnreachableEndpointFallsBack(t *testing.T) {
	client, fb := newTestClient(t, "http://127.0.0.1:1", "secret", false)

	query := "crafting help"
	assert.Equal(t, fb.Respond(query), client.Generate(context.Background(), query, nil))
}

func TestReadStreamWhitespaceVariants(t *testing.T) {
	stream := "data:{\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n" +
		"\n" +
		": keep-alive comment\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"b\"}}]}\n" +
		"data: [DONE]\n"

	text, err := readStream(strings.NewReader(stream))
	require.NoError(t, err)
	assert.Equal(t, "ab", text)
}
