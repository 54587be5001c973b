package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type FirestoreOptions struct {
	ProjectID  string
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Firestore talks to the Firestore v1 REST API with API-key auth. Documents
// live in one collection; the server assigns ids.
type Firestore struct {
	projectID  string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFirestore(opts FirestoreOptions) (*Firestore, error) {
	if opts.ProjectID == "" || opts.APIKey == "" {
		return nil, errors.New("firestore project id and api key are required")
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://firestore.googleapis.com"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Firestore{
		projectID:  opts.ProjectID,
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

func (f *Firestore) Save(ctx context.Context, userID string, input SaveInput) (SavedImage, error) {
	if userID == "" {
		return SavedImage{}, ErrInvalidInput
	}

	savedAt := time.Now().UTC().Format(time.RFC3339)
	doc := firestoreDocument{Fields: map[string]firestoreValue{
		"userId":            {StringValue: userID},
		"styleName":         {StringValue: input.StyleName},
		"generatedImageUrl": {StringValue: input.GeneratedImageURL},
		"savedAt":           {StringValue: savedAt},
	}}
	if input.PromptSummary != "" {
		doc.Fields["promptSummary"] = firestoreValue{StringValue: input.PromptSummary}
	}

	url := fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents/%s?key=%s",
		f.baseURL, f.projectID, collectionSavedImages, f.apiKey)

	var created firestoreDocument
	if err := f.do(ctx, url, doc, &created); err != nil {
		return SavedImage{}, fmt.Errorf("create document: %w", err)
	}

	return SavedImage{
		ID:                documentID(created.Name),
		UserID:            userID,
		StyleName:         input.StyleName,
		GeneratedImageURL: input.GeneratedImageURL,
		PromptSummary:     input.PromptSummary,
		SavedAt:           savedAt,
	}, nil
}

func (f *Firestore) List(ctx context.Context, userID string) ([]SavedImage, error) {
	if userID == "" {
		return nil, nil
	}

	query := runQueryRequest{StructuredQuery: structuredQuery{
		From: []collectionSelector{{CollectionID: collectionSavedImages}},
		Where: &queryFilter{FieldFilter: &fieldFilter{
			Field: fieldReference{FieldPath: "userId"},
			Op:    "EQUAL",
			Value: firestoreValue{StringValue: userID},
		}},
		OrderBy: []queryOrder{{
			Field:     fieldReference{FieldPath: "savedAt"},
			Direction: "DESCENDING",
		}},
	}}

	url := fmt.Sprintf("%s/v1/projects/%s/databases/(default)/documents:runQuery?key=%s",
		f.baseURL, f.projectID, f.apiKey)

	var results []runQueryResult
	if err := f.do(ctx, url, query, &results); err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}

	out := make([]SavedImage, 0, len(results))
	for _, res := range results {
		if res.Document == nil {
			continue
		}
		out = append(out, SavedImage{
			ID:                documentID(res.Document.Name),
			UserID:            res.Document.Fields["userId"].StringValue,
			StyleName:         res.Document.Fields["styleName"].StringValue,
			GeneratedImageURL: res.Document.Fields["generatedImageUrl"].StringValue,
			PromptSummary:     res.Document.Fields["promptSummary"].StringValue,
			SavedAt:           res.Document.Fields["savedAt"].StringValue,
		})
	}
	return out, nil
}

func (f *Firestore) do(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")

	httpResp, err := f.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return fmt.Errorf("firestore API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	if err := json.Unmarshal(rawBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// documentID extracts the server-assigned id from a full document name
// ("projects/p/databases/(default)/documents/savedImages/<id>").
func documentID(name string) string {
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}

type firestoreDocument struct {
	Name   string                    `json:"name,omitempty"`
	Fields map[string]firestoreValue `json:"fields"`
}

type firestoreValue struct {
	StringValue string `json:"stringValue,omitempty"`
}

type runQueryRequest struct {
	StructuredQuery structuredQuery `json:"structuredQuery"`
}

type structuredQuery struct {
	From    []collectionSelector `json:"from"`
	Where   *queryFilter         `json:"where,omitempty"`
	OrderBy []queryOrder         `json:"orderBy,omitempty"`
}

type collectionSelector struct {
	CollectionID string `json:"collectionId"`
}

type queryFilter struct {
	FieldFilter *fieldFilter `json:"fieldFilter,omitempty"`
}

type fieldFilter struct {
	Field fieldReference `json:"field"`
	Op    string         `json:"op"`
	Value firestoreValue `json:"value"`
}

type fieldReference struct {
	FieldPath string `json:"fieldPath"`
}

type queryOrder struct {
	Field     fieldReference `json:"field"`
	Direction string         `json:"direction"`
}

type runQueryResult struct {
	Document *firestoreDocument `json:"document"`
}
