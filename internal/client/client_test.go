package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/leadership-coach/internal/model"
	"github.com/capitalize-ai/leadership-coach/internal/reconstruct"
)

func TestStreamChat(t *testing.T) {
	var got model.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/stream", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		for _, frame := range []string{
			"data: {\"delta\":\"Hi\"}\n\n",
			"data: {\"delta\":\" there\"}\n\n",
			"data: {\"delta\":\"!\"}\n\n",
			"data: {\"completed\":true}\n\n",
			"data: [DONE]\n\n",
		} {
			w.Write([]byte(frame))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("tok"))
	res, err := c.StreamChat(context.Background(), &model.ChatRequest{Message: "Hello", Topic: "self-awareness"}, reconstruct.New())
	require.NoError(t, err)

	assert.Equal(t, "Hello", got.Message)
	assert.Equal(t, "Hi there!", res.Text)
	assert.True(t, res.Completed)
	assert.True(t, res.Done)
}

func TestStreamChat_ValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid request"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).StreamChat(context.Background(), &model.ChatRequest{}, reconstruct.New())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid request", apiErr.Message)
}

func TestChat_FallbackOn500(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"Please try again.","error":"internal error"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL).Chat(context.Background(), &model.ChatRequest{Message: "hi", Topic: "feedback"})
	assert.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, "Please try again.", resp.Message)
}

func TestConversationCalls(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/conversations", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(model.Conversation{ID: "c1", Topic: "feedback"})
		case http.MethodGet:
			assert.Equal(t, "true", r.URL.Query().Get("starred"))
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			json.NewEncoder(w).Encode(model.ListConversationsResponse{Total: 1})
		}
	})
	mux.HandleFunc("/api/v1/conversations/c1/messages", func(w http.ResponseWriter, r *http.Request) {
		var req model.AppendTurnRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		json.NewEncoder(w).Encode(model.Conversation{ID: "c1", MessageCount: len(req.Messages)})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()

	conv, err := c.CreateConversation(ctx, &model.CreateConversationRequest{Topic: "feedback"})
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)

	starred := true
	list, err := c.ListConversations(ctx, model.ConversationFilter{Starred: &starred, Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)

	conv, err = c.AppendTurn(ctx, "c1", &model.AppendTurnRequest{Messages: []model.Message{
		{Sender: model.SenderUser, Text: "q"},
		{Sender: model.SenderAI, Text: "a"},
	}})
	require.NoError(t, err)
	assert.Equal(t, 2, conv.MessageCount)

	_, err = c.GetConversation(ctx, "missing")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}
