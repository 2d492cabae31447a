package bot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("Stream", func() {
	newBodyStream := func(body string) *Stream {
		return newStream(io.NopCloser(strings.NewReader(body)), zap.NewNop())
	}

	It("yields decoded events in arrival order", func() {
		body := "event: conversation.chat.created\n" +
			"data: {\"conversation_id\":\"conv_1\",\"chat_id\":\"chat_1\"}\n\n" +
			"event: conversation.message.completed\n" +
			"data: {\"type\":\"answer\",\"content_type\":\"text\",\"content\":\"已为您规划清洁路线。\"}\n\n" +
			"event: conversation.chat.completed\n" +
			"data: {\"chat_id\":\"chat_1\",\"status\":\"completed\"}\n\n" +
			"data: [DONE]\n\n"
		s := newBodyStream(body)

		ev, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Event).To(Equal(EventChatCreated))
		Expect(ev.Message.ConversationID).To(Equal("conv_1"))

		ev, err = s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Event).To(Equal(EventMessageCompleted))
		Expect(ev.Message.Content).To(Equal("已为您规划清洁路线。"))

		ev, err = s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Event).To(Equal(EventChatCompleted))

		ev, err = s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).To(BeNil())
	})

	It("skips malformed frames and keeps decoding subsequent ones", func() {
		body := "event: conversation.message.delta\n" +
			"data: {broken json\n\n" +
			"event: conversation.message.delta\n" +
			"data: {\"type\":\"answer\",\"content\":\"还在\"}\n\n"
		s := newBodyStream(body)

		ev, err := s.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev).NotTo(BeNil())
		Expect(ev.Message.Content).To(Equal("还在"))
	})

	It("terminates after Close", func() {
		s := newBodyStream("event: conversation.message.delta\ndata: {\"type\":\"answer\"}\n\n")
		Expect(s.Close()).To(Succeed())
	})
})

var _ = Describe("Client", func() {
	It("streams events from the chat endpoint", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/v3/chat"))
			Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))

			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "event: conversation.chat.created\n")
			_, _ = io.WriteString(w, "data: {\"conversation_id\":\"conv_9\",\"chat_id\":\"chat_9\"}\n\n")
		}))
		defer srv.Close()

		client := NewClient(Config{
			BaseURL: srv.URL,
			Token:   "test-token",
			BotID:   "bot_1",
			UserID:  "user_1",
		}, zap.NewNop())

		stream, err := client.StreamChat(context.Background(), "", []Message{
			NewTextMessage(RoleUser, "开始打扫"),
		})
		Expect(err).NotTo(HaveOccurred())
		defer stream.Close()

		ev, err := stream.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(ev.Event).To(Equal(EventChatCreated))
		Expect(ev.Message.ConversationID).To(Equal("conv_9"))
	})

	It("passes the conversation id as a query parameter on later turns", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Query().Get("conversation_id")).To(Equal("conv_42"))
			w.Header().Set("Content-Type", "text/event-stream")
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())

		stream, err := client.StreamChat(context.Background(), "conv_42", nil)
		Expect(err).NotTo(HaveOccurred())
		stream.Close()
	})

	It("surfaces non-200 responses as errors with a body excerpt", func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"code":4100,"msg":"authentication failed"}`)
		}))
		defer srv.Close()

		client := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())

		_, err := client.StreamChat(context.Background(), "", nil)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("401"))
		Expect(err.Error()).To(ContainSubstring("authentication failed"))
	})
})
