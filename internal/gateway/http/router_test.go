package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/docbrief/docbrief/internal/gateway/domain"
	gatewayhttp "github.com/docbrief/docbrief/internal/gateway/http"
	"github.com/docbrief/docbrief/internal/gateway/service"
	"github.com/docbrief/docbrief/internal/gateway/store/drivers/sqlite"
	"github.com/docbrief/docbrief/pkg/httpx"
	"github.com/docbrief/docbrief/pkg/idx"
	"github.com/docbrief/docbrief/pkg/oidc"
	"github.com/docbrief/docbrief/pkg/ollama"
)

const testClientID = "docbrief-api"

// fakeVerifier maps bearer tokens to claim sets, standing in for both
// verification modes.
type fakeVerifier struct {
	tokens map[string]oidc.Claims
	err    error
}

func (f *fakeVerifier) Verify(_ context.Context, rawToken string) (oidc.Claims, error) {
	if f.err != nil {
		return nil, f.err
	}
	claims, ok := f.tokens[rawToken]
	if !ok {
		return nil, oidc.ErrInvalidToken
	}
	return claims, nil
}

func userClaims(username string, roles ...string) oidc.Claims {
	roleList := make([]any, 0, len(roles))
	for _, r := range roles {
		roleList = append(roleList, r)
	}
	return oidc.Claims{
		"sub":                "sub-" + username,
		"preferred_username": username,
		"email":              username + "@example.com",
		"realm_access":       map[string]any{"roles": roleList},
	}
}

// fakeLLM satisfies service.LLM without a live inference server.
type fakeLLM struct {
	generateErr  error
	chatErr      error
	unhealthy    bool
	lastGenerate ollama.GenerateRequest
	lastChat     ollama.ChatRequest
}

func (f *fakeLLM) Generate(_ context.Context, req ollama.GenerateRequest) (*ollama.GenerateResponse, error) {
	f.lastGenerate = req
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	model := req.Model
	if model == "" {
		model = "llama3.2"
	}
	return &ollama.GenerateResponse{Model: model, Response: "generated output", Done: true}, nil
}

func (f *fakeLLM) Chat(_ context.Context, req ollama.ChatRequest) (*ollama.ChatResponse, error) {
	f.lastChat = req
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	model := req.Model
	if model == "" {
		model = "llama3.2"
	}
	return &ollama.ChatResponse{
		Model:   model,
		Message: ollama.Message{Role: "assistant", Content: "chat reply"},
		Done:    true,
	}, nil
}

func (f *fakeLLM) ListModels(_ context.Context) ([]ollama.ModelInfo, error) {
	if f.generateErr != nil {
		return nil, f.generateErr
	}
	return []ollama.ModelInfo{{Name: "llama3.2", Size: 2019393189}}, nil
}

func (f *fakeLLM) Healthy(_ context.Context) bool { return !f.unhealthy }

func newTestRouter(t *testing.T, verifier oidc.TokenVerifier, llm service.LLM) (*gatewayhttp.Router, *sqlite.Store) {
	t.Helper()

	st, err := sqlite.NewStore("file:" + t.TempDir() + "/gateway.db")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := gatewayhttp.NewRouter(verifier, nil, testClientID, "test", st, llm, logger)
	r.SummarizeService = &service.SummarizeService{LLM: llm}
	r.UsageService = &service.UsageService{Store: st}
	r.Extractor = service.PlainTextExtractor{}
	r.ApplyRoutes()

	return r, st
}

func defaultVerifier() *fakeVerifier {
	return &fakeVerifier{tokens: map[string]oidc.Claims{
		"alice-token": userClaims("alice", "editor"),
		"admin-token": userClaims("root", "admin"),
	}}
}

func doRequest(t *testing.T, router *gatewayhttp.Router, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func jsonRequest(t *testing.T, method, target, token string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	return out
}

func TestRouterRejectsMissingBearer(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusForbidden, rr.Code)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "not_authenticated", body.Error)
}

func TestRouterRejectsInvalidToken(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), `error="invalid_token"`)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "invalid_token", body.Error)
}

func TestRouterProviderUnavailable(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, &fakeVerifier{err: oidc.ErrProviderUnavailable}, &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "temporarily_unavailable", body.Error)
}

func TestMeReturnsNormalizedIdentity(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.UserResponse](t, rr)
	require.Equal(t, "alice", body.Username)
	require.Equal(t, "alice@example.com", body.Email)
	require.Equal(t, []string{"editor"}, body.Roles)
	require.Empty(t, body.Groups)
}

func TestSummarizeHappyPathRecordsUsage(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{}
	router, st := newTestRouter(t, defaultVerifier(), llm)

	req := jsonRequest(t, http.MethodPost, "/v1/summarize", "alice-token", map[string]any{
		"text":       "The quarterly report shows revenue grew by twelve percent.",
		"style":      "bullet_points",
		"max_length": 100,
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.GenerationResponse](t, rr)
	require.Equal(t, "generated output", body.Result)
	require.Equal(t, "llama3.2", body.Model)

	require.Contains(t, llm.lastGenerate.System, "bullet points")
	require.Contains(t, llm.lastGenerate.Prompt, "quarterly report")

	records, err := st.Usage().ListByUsername(t.Context(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.OpSummarize, records[0].Operation)
	require.Equal(t, len("The quarterly report shows revenue grew by twelve percent."), records[0].PromptChars)
}

func TestSummarizeRequiresText(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := jsonRequest(t, http.MethodPost, "/v1/summarize", "alice-token", map[string]any{
		"text": "   ",
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "invalid_request", body.Error)
}

func TestSummarizeRejectsMalformedJSON(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/v1/summarize", strings.NewReader("{not json"))
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSummarizeInferenceDown(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{generateErr: ollama.ErrUnavailable}
	router, st := newTestRouter(t, defaultVerifier(), llm)

	req := jsonRequest(t, http.MethodPost, "/v1/summarize", "alice-token", map[string]any{
		"text": "some text",
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadGateway, rr.Code)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "inference_unavailable", body.Error)

	// Failed calls don't get a usage record.
	records, err := st.Usage().ListByUsername(t.Context(), "alice", 10)
	require.NoError(t, err)
	require.Empty(t, records)
}

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentUploadSummarized(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{}
	router, st := newTestRouter(t, defaultVerifier(), llm)

	buf, contentType := multipartUpload(t, "notes.txt",
		[]byte("Meeting notes: the rollout slipped a week."),
		map[string]string{"style": "concise"})

	req := httptest.NewRequest(http.MethodPost, "/v1/summarize/document", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, llm.lastGenerate.Prompt, "rollout slipped")

	records, err := st.Usage().ListByUsername(t.Context(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.OpDocument, records[0].Operation)
}

func TestDocumentUploadRejectsUnsupportedType(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	buf, contentType := multipartUpload(t, "report.pdf", []byte("%PDF-1.4 binary"), nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/summarize/document", buf)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
	body := decodeBody[httpx.ErrorResponse](t, rr)
	require.Equal(t, "unsupported_document", body.Error)
}

func TestDocumentUploadRequiresFile(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("style", "concise"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/summarize/document", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyzeUsesRequestedType(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{}
	router, _ := newTestRouter(t, defaultVerifier(), llm)

	req := jsonRequest(t, http.MethodPost, "/v1/analyze", "alice-token", map[string]any{
		"text":          "I love this product, it works beautifully.",
		"analysis_type": "sentiment",
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, llm.lastGenerate.Prompt, "sentiment")
}

func TestQueryGroundsPromptInContext(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{}
	router, _ := newTestRouter(t, defaultVerifier(), llm)

	req := jsonRequest(t, http.MethodPost, "/v1/query", "alice-token", map[string]any{
		"prompt":  "What changed?",
		"context": "Version 2 added exports.",
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, llm.lastGenerate.Prompt, "Context:\nVersion 2 added exports.")
	require.Contains(t, llm.lastGenerate.Prompt, "What changed?")
}

func TestQueryRequiresPrompt(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := jsonRequest(t, http.MethodPost, "/v1/query", "alice-token", map[string]any{
		"context": "orphaned context",
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestChatReturnsAssistantReply(t *testing.T) {
	t.Parallel()
	llm := &fakeLLM{}
	router, st := newTestRouter(t, defaultVerifier(), llm)

	req := jsonRequest(t, http.MethodPost, "/v1/chat", "alice-token", map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "hello"},
		},
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.ChatResponse](t, rr)
	require.Equal(t, "assistant", body.Message.Role)
	require.Equal(t, "chat reply", body.Message.Content)

	records, err := st.Usage().ListByUsername(t.Context(), "alice", 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, domain.OpChat, records[0].Operation)
}

func TestChatRequiresMessages(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := jsonRequest(t, http.MethodPost, "/v1/chat", "alice-token", map[string]any{
		"messages": []map[string]string{},
	})
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestModelsListed(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.ModelsResponse](t, rr)
	require.Len(t, body.Models, 1)
	require.Equal(t, "llama3.2", body.Models[0].Name)
}

func seedUsage(t *testing.T, st *sqlite.Store, username string, op domain.Operation) {
	t.Helper()
	err := st.Usage().Insert(t.Context(), domain.UsageRecord{
		ID:        idx.New(),
		Username:  username,
		Operation: op,
		Model:     "llama3.2",
	})
	require.NoError(t, err)
}

func TestHistoryIsScopedToCaller(t *testing.T) {
	t.Parallel()
	router, st := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	seedUsage(t, st, "alice", domain.OpSummarize)
	seedUsage(t, st, "alice", domain.OpChat)
	seedUsage(t, st, "bob", domain.OpQuery)

	req := httptest.NewRequest(http.MethodGet, "/v1/history", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.HistoryResponse](t, rr)
	require.Len(t, body.Records, 2)
	for _, rec := range body.Records {
		require.Equal(t, "alice", rec.Username)
	}
}

func TestUsageListingRequiresAdminRole(t *testing.T) {
	t.Parallel()
	router, st := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	seedUsage(t, st, "alice", domain.OpSummarize)
	seedUsage(t, st, "bob", domain.OpQuery)

	// Plain user is refused.
	req := httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := doRequest(t, router, req)
	require.Equal(t, http.StatusForbidden, rr.Code)
	require.Contains(t, rr.Header().Get("WWW-Authenticate"), "insufficient_scope")

	// Admin sees everyone's records.
	req = httptest.NewRequest(http.MethodGet, "/v1/usage", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rr = doRequest(t, router, req)
	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.HistoryResponse](t, rr)
	require.Len(t, body.Records, 2)
}

func TestLivezAlwaysOK(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.HealthResponse](t, rr)
	require.Equal(t, "ok", body.Status)
	require.Equal(t, "test", body.Version)
}

func TestReadyzDegradesWhenInferenceDown(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{unhealthy: true})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	body := decodeBody[gatewayhttp.HealthResponse](t, rr)
	require.Equal(t, "degraded", body.Status)
	require.Contains(t, body.Checks.Inference, "unreachable")
	require.Equal(t, "ok", body.Checks.Database)
}

func TestReadyzOKWhenDependenciesUp(t *testing.T) {
	t.Parallel()
	router, _ := newTestRouter(t, defaultVerifier(), &fakeLLM{})

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := doRequest(t, router, req)

	require.Equal(t, http.StatusOK, rr.Code)
	body := decodeBody[gatewayhttp.HealthResponse](t, rr)
	require.Equal(t, "ok", body.Status)
}
