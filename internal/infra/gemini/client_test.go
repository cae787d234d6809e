package gemini

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type generateRequest struct {
	path string
	key  string
	body struct {
		Contents []struct {
			Role  string `json:"role"`
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"contents"`
		SystemInstruction *struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"systemInstruction"`
	}
}

// newTestClient points a client at a fake generateContent endpoint that
// answers with status and body
func newTestClient(t *testing.T, status int, body string, got *generateRequest) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.path = r.URL.Path
			got.key = r.URL.Query().Get("key")
			if got.key == "" {
				got.key = r.Header.Get("X-Goog-Api-Key")
			}
			raw, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(raw, &got.body); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "test-key", "", option.WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestChat(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"  Hello there "}]},"finishReason":1}]}`, &got)

	answer, err := c.Chat(context.Background(), "be nice", "hi")
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if answer != "Hello there" {
		t.Errorf("answer = %q, want %q", answer, "Hello there")
	}

	if want := "/v1beta/models/" + DefaultModel + ":generateContent"; got.path != want {
		t.Errorf("path = %q, want %q", got.path, want)
	}
	if got.key != "test-key" {
		t.Errorf("api key = %q, want test-key", got.key)
	}
	if len(got.body.Contents) != 1 || len(got.body.Contents[0].Parts) != 1 || got.body.Contents[0].Parts[0].Text != "hi" {
		t.Errorf("contents = %+v, want one user part \"hi\"", got.body.Contents)
	}
	if si := got.body.SystemInstruction; si == nil || len(si.Parts) != 1 || si.Parts[0].Text != "be nice" {
		t.Errorf("systemInstruction = %+v, want \"be nice\"", si)
	}
}

func TestChatNoSystemPrompt(t *testing.T) {
	var got generateRequest
	c := newTestClient(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"ok"}]}}]}`, &got)

	if _, err := c.Chat(context.Background(), "", "hi"); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if got.body.SystemInstruction != nil {
		t.Errorf("systemInstruction = %+v, want none", got.body.SystemInstruction)
	}
}

func TestChatErrors(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		want   string
	}{
		"bad request":   {http.StatusBadRequest, `{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, "generate content"},
		"blocked":       {http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"x"}]},"finishReason":3}]}`, "generate content"},
		"no candidates": {http.StatusOK, `{"candidates":[]}`, errEmptyResponse.Error()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, tc.status, tc.body, nil)
			_, err := c.Chat(context.Background(), "sys", "hi")
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Errorf("Chat err = %v, want it to contain %q", err, tc.want)
			}
		})
	}
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("world\n")}},
		}},
	}
	got, err := responseText(resp)
	if err != nil {
		t.Fatalf("responseText: %v", err)
	}
	if got != "Hello world" {
		t.Errorf("responseText = %q, want %q", got, "Hello world")
	}
}

func TestResponseTextEmpty(t *testing.T) {
	cases := map[string]*genai.GenerateContentResponse{
		"nil":           nil,
		"no candidates": {},
		"no content":    {Candidates: []*genai.Candidate{{}}},
		"blank":         {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Text("  ")}}}}},
		"non-text":      {Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []genai.Part{genai.Blob{MIMEType: "image/png"}}}}}},
	}
	for name, resp := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := responseText(resp); err != errEmptyResponse {
				t.Errorf("responseText err = %v, want errEmptyResponse", err)
			}
		})
	}
}
