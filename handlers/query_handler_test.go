package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/rag-service/internal/rag"
	"github.com/upb/rag-service/services"
	"github.com/upb/rag-service/services/providers"
	"github.com/upb/rag-service/services/providers/vllm"
	"github.com/upb/rag-service/services/query"
	"github.com/upb/rag-service/utils"
	"go.uber.org/zap"
)

type mockQueryService struct {
	mock.Mock
}

func (m *mockQueryService) DirectQuery(ctx context.Context, req query.Request) (json.RawMessage, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *mockQueryService) RAGQuery(ctx context.Context, req query.RAGRequest) (*query.RAGResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*query.RAGResult), args.Error(1)
}

func post(h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, req)
	return w
}

func TestQueryHandler_HandleQuery(t *testing.T) {
	t.Run("applies defaults and returns backend body verbatim", func(t *testing.T) {
		svc := &mockQueryService{}
		body := json.RawMessage(`{"id":"cmpl-1","choices":[{"text":" Paris","index":0}]}`)
		svc.On("DirectQuery", mock.Anything, query.Request{
			Query:       "capital of France?",
			MaxTokens:   512,
			Temperature: 0.7,
			Model:       "facebook/opt-6.7b",
		}).Return(body, nil).Once()

		h := NewQueryHandler(svc, "", zap.NewNop())
		w := post(h.HandleQuery, "/query", `{"query":"capital of France?"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, string(body), w.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("explicit fields override defaults", func(t *testing.T) {
		svc := &mockQueryService{}
		svc.On("DirectQuery", mock.Anything, query.Request{
			Query:       "q",
			MaxTokens:   16,
			Temperature: 0,
			Model:       "opt-125m",
		}).Return(json.RawMessage(`{}`), nil).Once()

		h := NewQueryHandler(svc, "configured-default", zap.NewNop())
		w := post(h.HandleQuery, "/query", `{"query":"q","max_tokens":16,"temperature":0,"model":"opt-125m"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("configured default model", func(t *testing.T) {
		svc := &mockQueryService{}
		svc.On("DirectQuery", mock.Anything, mock.MatchedBy(func(req query.Request) bool {
			return req.Model == "configured-default"
		})).Return(json.RawMessage(`{}`), nil).Once()

		h := NewQueryHandler(svc, "configured-default", zap.NewNop())
		w := post(h.HandleQuery, "/query", `{"query":"q"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("service error becomes 500 with detail", func(t *testing.T) {
		svc := &mockQueryService{}
		svc.On("DirectQuery", mock.Anything, mock.Anything).
			Return(nil, services.WrapUpstream("completion backend error", assert.AnError)).Once()

		h := NewQueryHandler(svc, "", zap.NewNop())
		w := post(h.HandleQuery, "/query", `{"query":"q"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		var resp utils.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, strings.HasPrefix(resp.Detail, "service error: "))
	})
}

func TestQueryHandler_Validation(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantField string
	}{
		{"missing query", "/query", `{"max_tokens":10}`, "query"},
		{"string max_tokens", "/query", `{"query":"q","max_tokens":"many"}`, "max_tokens"},
		{"string temperature", "/query", `{"query":"q","temperature":"hot"}`, "temperature"},
		{"wrong type", "/query", `{"query":42}`, "query"},
		{"malformed json", "/query", `{"query":`, "body"},
		{"empty body", "/rag", ``, "body"},
		{"negative top_k", "/rag", `{"query":"q","top_k":-1}`, "top_k"},
		{"rag missing query", "/rag", `{"top_k":2}`, "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockQueryService{}
			h := NewQueryHandler(svc, "", zap.NewNop())

			handler := h.HandleQuery
			if tt.path == "/rag" {
				handler = h.HandleRAG
			}
			w := post(handler, tt.path, tt.body)

			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
			var resp utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Detail)
			assert.Contains(t, resp.Fields, tt.wantField)
			svc.AssertNotCalled(t, "DirectQuery", mock.Anything, mock.Anything)
			svc.AssertNotCalled(t, "RAGQuery", mock.Anything, mock.Anything)
		})
	}
}

func TestQueryHandler_UnboundedFieldsForwarded(t *testing.T) {
	t.Run("top_k above the index size reaches the service", func(t *testing.T) {
		svc := &mockQueryService{}
		svc.On("RAGQuery", mock.Anything, mock.MatchedBy(func(req query.RAGRequest) bool {
			return req.TopK == 150
		})).Return(&query.RAGResult{
			LLMResponse: json.RawMessage(`{}`),
			Contexts:    []string{},
			Query:       "q",
		}, nil).Once()

		h := NewQueryHandler(svc, "", zap.NewNop())
		w := post(h.HandleRAG, "/rag", `{"query":"q","top_k":150}`)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	tests := []struct {
		name string
		body string
		want query.Request
	}{
		{
			name: "temperature above 2",
			body: `{"query":"q","temperature":2.5}`,
			want: query.Request{Query: "q", MaxTokens: 512, Temperature: 2.5, Model: "facebook/opt-6.7b"},
		},
		{
			name: "zero max_tokens",
			body: `{"query":"q","max_tokens":0}`,
			want: query.Request{Query: "q", MaxTokens: 0, Temperature: 0.7, Model: "facebook/opt-6.7b"},
		},
		{
			name: "negative temperature",
			body: `{"query":"q","temperature":-1}`,
			want: query.Request{Query: "q", MaxTokens: 512, Temperature: -1, Model: "facebook/opt-6.7b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockQueryService{}
			svc.On("DirectQuery", mock.Anything, tt.want).Return(json.RawMessage(`{}`), nil).Once()

			h := NewQueryHandler(svc, "", zap.NewNop())
			w := post(h.HandleQuery, "/query", tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestQueryHandler_HandleRAG(t *testing.T) {
	svc := &mockQueryService{}
	result := &query.RAGResult{
		LLMResponse: json.RawMessage(`{"choices":[{"text":"X"}]}`),
		Contexts:    []string{"a", "b", "c"},
		Query:       "q",
	}
	svc.On("RAGQuery", mock.Anything, query.RAGRequest{
		Request: query.Request{Query: "q", MaxTokens: 512, Temperature: 0.7, Model: "facebook/opt-6.7b"},
		TopK:    3,
	}).Return(result, nil).Once()

	h := NewQueryHandler(svc, "", zap.NewNop())
	w := post(h.HandleRAG, "/rag", `{"query":"q"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"llm_response":{"choices":[{"text":"X"}]},"contexts":["a","b","c"],"query":"q"}`, w.Body.String())
	svc.AssertExpectations(t)
}

// keywordEmbedder embeds text as counts of a few fixed keywords, which is
// enough to make retrieval order predictable.
type keywordEmbedder struct{}

var keywords = []string{"paris", "berlin", "rome"}

func (keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	lower := strings.ToLower(text)
	vec := make([]float32, len(keywords))
	for i, kw := range keywords {
		vec[i] = float32(strings.Count(lower, kw))
	}
	return vec, nil
}

func (e keywordEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i], _ = e.Embed(ctx, text)
	}
	return out, nil
}

func newStack(t *testing.T, backend http.HandlerFunc) *QueryHandler {
	t.Helper()

	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	docs := []rag.Document{
		{ID: 0, Text: "Paris is the capital of France."},
		{ID: 1, Text: "Berlin is the capital of Germany."},
		{ID: 2, Text: "Rome is the capital of Italy. Rome is old."},
		{ID: 3, Text: "Paris hosts the Louvre. Paris is large."},
	}
	idx, err := rag.Build(context.Background(), docs, keywordEmbedder{}, rag.BuildOptions{})
	require.NoError(t, err)

	adapter := vllm.NewAdapter(server.URL+"/v1/completions", providers.ProviderConfig{})
	svc := query.NewService(idx, adapter, nil, zap.NewNop())
	return NewQueryHandler(svc, "", zap.NewNop())
}

func TestRAGEndToEnd(t *testing.T) {
	var (
		mu     sync.Mutex
		prompt string
	)
	h := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&req)
		mu.Lock()
		prompt, _ = req["prompt"].(string)
		mu.Unlock()
		_, _ = w.Write([]byte(`{"choices":[{"text":"X"}]}`))
	})

	w := post(h.HandleRAG, "/rag", `{"query":"Tell me about Paris","top_k":2}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		LLMResponse json.RawMessage `json:"llm_response"`
		Contexts    []string        `json:"contexts"`
		Query       string          `json:"query"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.JSONEq(t, `{"choices":[{"text":"X"}]}`, string(resp.LLMResponse))
	assert.Equal(t, "Tell me about Paris", resp.Query)
	assert.LessOrEqual(t, len(resp.Contexts), 2)
	assert.Equal(t, []string{"Paris hosts the Louvre. Paris is large.", "Paris is the capital of France."}, resp.Contexts)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, prompt, "Paris hosts the Louvre. Paris is large.\nParis is the capital of France.")
	assert.Contains(t, prompt, "Question: Tell me about Paris")
}

func TestBackendFailureEndToEnd(t *testing.T) {
	h := newStack(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`model loading`))
	})

	for _, tc := range []struct {
		path    string
		handler http.HandlerFunc
	}{
		{"/query", h.HandleQuery},
		{"/rag", h.HandleRAG},
	} {
		t.Run(tc.path, func(t *testing.T) {
			w := post(tc.handler, tc.path, `{"query":"Paris"}`)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			var resp utils.ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
			assert.Contains(t, resp.Detail, "error")
			assert.Contains(t, resp.Detail, "503")
			assert.Contains(t, resp.Detail, "model loading")
		})
	}
}
