package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Options{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		HTTPClient: srv.Client(),
	})
}

func imageResponse(mime, data string) generateContentResponse {
	return generateContentResponse{Candidates: []candidate{{
		Content: content{Parts: []part{
			{Text: "here you go"},
			{InlineData: &blob{Data: data, MimeType: mime}},
		}},
	}}}
}

func TestGenerateStyledBuildsRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateContentRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(imageResponse("image/png", "cmVzdWx0"))
	})

	out, err := client.GenerateStyled(context.Background(), "data:image/webp;base64,c291cmNl", "a modern quiff")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,cmVzdWx0", out)

	assert.Equal(t, "/v1beta/models/gemini-2.5-flash-image:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)

	require.Len(t, gotReq.Contents, 1)
	parts := gotReq.Contents[0].Parts
	require.Len(t, parts, 2)
	require.NotNil(t, parts[0].InlineData)
	assert.Equal(t, "image/webp", parts[0].InlineData.MimeType)
	assert.Equal(t, "c291cmNl", parts[0].InlineData.Data)
	assert.Contains(t, parts[1].Text, "a modern quiff")
	assert.Contains(t, parts[1].Text, "NEGATIVE PROMPT:")

	require.NotNil(t, gotReq.GenerationConfig.ImageConfig)
	assert.Equal(t, "1:1", gotReq.GenerationConfig.ImageConfig.AspectRatio)
}

func TestGenerateStyledDefaultsMimeType(t *testing.T) {
	var gotReq generateContentRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(imageResponse("image/png", "aW1n"))
	})

	// No data-URL header at all: payload passes through, mime falls back.
	_, err := client.GenerateStyled(context.Background(), "c291cmNl", "a buzz cut")
	require.NoError(t, err)

	inline := gotReq.Contents[0].Parts[0].InlineData
	require.NotNil(t, inline)
	assert.Equal(t, "image/jpeg", inline.MimeType)
	assert.Equal(t, "c291cmNl", inline.Data)
}

func TestGenerateStyledFailsWithoutImagePart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		resp := generateContentResponse{Candidates: []candidate{{
			Content: content{Parts: []part{{Text: "cannot do that"}}},
		}}}
		_ = json.NewEncoder(w).Encode(resp)
	})

	_, err := client.GenerateStyled(context.Background(), "data:image/png;base64,aW1n", "a quiff")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateStyledWrapsAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota"}}`, http.StatusTooManyRequests)
	})

	_, err := client.GenerateStyled(context.Background(), "data:image/png;base64,aW1n", "a quiff")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateStyledRejectsEmptySource(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.GenerateStyled(context.Background(), "", "a quiff")
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateStyledRetriesWithoutImageConfig(t *testing.T) {
	requests := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if req.GenerationConfig.ImageConfig != nil {
			http.Error(w, `Unknown name "imageConfig"`, http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(imageResponse("image/png", "aW1n"))
	})

	out, err := client.GenerateStyled(context.Background(), "data:image/png;base64,c3Jj", "a quiff")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aW1n", out)
	assert.Equal(t, 2, requests)
}

func TestUpscale(t *testing.T) {
	var gotReq generateContentRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		_ = json.NewEncoder(w).Encode(imageResponse("image/png", "YmlH"))
	})

	out, err := client.Upscale(context.Background(), "data:image/png;base64,c21hbGw=")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,YmlH", out)

	text := gotReq.Contents[0].Parts[1].Text
	assert.Contains(t, text, "Upscale this image")
	assert.NotContains(t, text, "NEGATIVE PROMPT")
}

func TestUpscaleWrapsErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Upscale(context.Background(), "data:image/png;base64,c21hbGw=")
	require.ErrorIs(t, err, ErrUpscaleFailed)
}

func TestDataURLToInlineData(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantMime string
		wantData string
		wantOK   bool
	}{
		{name: "png header", input: "data:image/png;base64,YQ==", wantMime: "image/png", wantData: "YQ==", wantOK: true},
		{name: "no header", input: "YQ==", wantMime: "image/jpeg", wantData: "YQ==", wantOK: true},
		{name: "empty", input: "", wantOK: false},
		{name: "header only", input: "data:image/png;base64,", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := dataURLToInlineData(tt.input, "image/jpeg")
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				return
			}
			assert.Equal(t, tt.wantMime, got.MimeType)
			assert.Equal(t, tt.wantData, got.Data)
		})
	}
}
