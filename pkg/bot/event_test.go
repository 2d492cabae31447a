package bot

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sse"
)

var _ = Describe("DecodeEvent", func() {
	It("decodes a completed answer message", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: EventMessageCompleted,
			Data: `{"id":"msg_1","conversation_id":"conv_1","chat_id":"chat_1","role":"assistant","type":"answer","content_type":"text","content":"好的，我来帮您启动扫地机器人开始清洁。"}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.Event).To(Equal(EventMessageCompleted))
		Expect(ev.Message.ID).To(Equal("msg_1"))
		Expect(ev.Message.ConversationID).To(Equal("conv_1"))
		Expect(ev.Message.ChatID).To(Equal("chat_1"))
		Expect(ev.Message.Type).To(Equal(TypeAnswer))
		Expect(ev.Message.ContentType).To(Equal(ContentTypeText))
		Expect(ev.Message.Content).To(Equal("好的，我来帮您启动扫地机器人开始清洁。"))
		Expect(ev.IsAnswerText()).To(BeTrue())
	})

	It("decodes a function_call message as non-answer", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: EventMessageCompleted,
			Data: `{"type":"function_call","content":"{\"name\":\"start_cleaning\",\"arguments\":{}}","content_type":"text"}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.Message.Type).To(Equal(TypeFunctionCall))
		Expect(ev.IsAnswerText()).To(BeFalse())
	})

	It("decodes an upstream failure payload", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: EventChatFailed,
			Data: `{"chat_id":"chat_1","status":"failed","last_error":{"code":700012,"msg":"token expired"}}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.Message.LastError).NotTo(BeNil())
		Expect(ev.Message.LastError.Code).To(Equal(700012))
		Expect(ev.Message.LastError.Msg).To(Equal("token expired"))
	})

	It("decodes usage on terminal events", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: EventChatCompleted,
			Data: `{"chat_id":"chat_1","status":"completed","usage":{"token_count":120,"output_count":48,"input_count":72}}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.Message.Usage.TokenCount).To(Equal(120))
	})

	It("skips malformed JSON without an event", func() {
		ev, ok := DecodeEvent(&sse.Event{Type: EventMessageDelta, Data: `{"type":"answer",`})
		Expect(ok).To(BeFalse())
		Expect(ev).To(BeNil())
	})

	It("skips empty payloads", func() {
		ev, ok := DecodeEvent(&sse.Event{Type: EventMessageDelta, Data: "   "})
		Expect(ok).To(BeFalse())
		Expect(ev).To(BeNil())
	})

	It("skips nil events", func() {
		ev, ok := DecodeEvent(nil)
		Expect(ok).To(BeFalse())
		Expect(ev).To(BeNil())
	})

	It("accepts unknown event names", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: "conversation.audio.delta",
			Data: `{"type":"verbose","content":"{}"}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.Event).To(Equal("conversation.audio.delta"))
	})

	It("accepts unknown message types without error", func() {
		ev, ok := DecodeEvent(&sse.Event{
			Type: EventMessageCompleted,
			Data: `{"type":"refusal","content":"nope","content_type":"text"}`,
		})

		Expect(ok).To(BeTrue())
		Expect(ev.IsAnswerText()).To(BeFalse())
	})
})
