package chat_test

import (
	"github.com/nodeflip/nodeflip/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Conversation", func() {
	Describe("NewConversation", func() {
		It("should create an empty conversation", func() {
			conv := chat.NewConversation()

			Expect(chat.IsEmpty(conv)).To(BeTrue())
			Expect(chat.GetMessages(conv)).To(BeEmpty())
		})
	})

	Describe("AddMessage", func() {
		It("should not mutate the original conversation", func() {
			conv := chat.NewConversation()
			updated := chat.AddMessage(conv, chat.NewUserMessage("hello"))

			Expect(chat.GetMessageCount(conv)).To(Equal(0))
			Expect(chat.GetMessageCount(updated)).To(Equal(1))
		})
	})

	Describe("AppendAssistantText", func() {
		It("should grow the trailing assistant message", func() {
			conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("Hello "))
			conv = chat.AppendAssistantText(conv, "world")

			Expect(chat.GetMessageCount(conv)).To(Equal(1))
			msg, _ := chat.GetLastMessage(conv)
			Expect(msg.Content).To(Equal("Hello world"))
		})

		It("should start a new message when none exists", func() {
			conv := chat.AppendAssistantText(chat.NewConversation(), "Hello")

			Expect(chat.GetMessageCount(conv)).To(Equal(1))
			msg, _ := chat.GetLastMessage(conv)
			Expect(msg.IsPlainAssistant()).To(BeTrue())
			Expect(msg.Content).To(Equal("Hello"))
		})

		It("should start a new message after a tool entry", func() {
			conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("Let me check."))
			conv = chat.AddMessage(conv, chat.NewToolMessage("search_nodes", "call-1", ""))
			conv = chat.AppendAssistantText(conv, "Here is the answer.")

			Expect(chat.GetMessageCount(conv)).To(Equal(3))
			msg, _ := chat.GetLastMessage(conv)
			Expect(msg.Content).To(Equal("Here is the answer."))

			plain := chat.PlainAssistantMessages(conv)
			Expect(plain).To(HaveLen(2))
			Expect(plain[0].Content).To(Equal("Let me check."))
		})

		It("should leave the prior value visible to earlier snapshots", func() {
			conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("a"))
			snapshot := conv
			chat.AppendAssistantText(conv, "b")

			msg, _ := chat.GetLastMessage(snapshot)
			Expect(msg.Content).To(Equal("a"))
		})
	})

	Describe("UpsertToolStatus", func() {
		It("should append a running entry for a new call id", func() {
			conv := chat.UpsertToolStatus(chat.NewConversation(), "search_nodes", "call-1", chat.StatusRunning)

			msg, found := chat.ToolMessage(conv, "call-1")
			Expect(found).To(BeTrue())
			Expect(msg.Status).To(Equal(chat.StatusRunning))
			Expect(msg.ToolName).To(Equal("search_nodes"))
		})

		It("should update an existing entry in place", func() {
			conv := chat.UpsertToolStatus(chat.NewConversation(), "search_nodes", "call-1", chat.StatusRunning)
			conv = chat.UpsertToolStatus(conv, "search_nodes", "call-1", chat.StatusCompleted)

			Expect(chat.GetMessageCount(conv)).To(Equal(1))
			msg, _ := chat.ToolMessage(conv, "call-1")
			Expect(msg.Status).To(Equal(chat.StatusCompleted))
		})

		It("should never move a terminal status back to running", func() {
			conv := chat.UpsertToolStatus(chat.NewConversation(), "search_nodes", "call-1", chat.StatusCompleted)
			conv = chat.UpsertToolStatus(conv, "search_nodes", "call-1", chat.StatusRunning)

			msg, _ := chat.ToolMessage(conv, "call-1")
			Expect(msg.Status).To(Equal(chat.StatusCompleted))
		})

		It("should allow completed to become error", func() {
			conv := chat.UpsertToolStatus(chat.NewConversation(), "search_nodes", "call-1", chat.StatusCompleted)
			conv = chat.UpsertToolStatus(conv, "search_nodes", "call-1", chat.StatusError)

			msg, _ := chat.ToolMessage(conv, "call-1")
			Expect(msg.Status).To(Equal(chat.StatusError))
		})

		It("should track independent call ids separately", func() {
			conv := chat.UpsertToolStatus(chat.NewConversation(), "search_nodes", "call-1", chat.StatusRunning)
			conv = chat.UpsertToolStatus(conv, "get_node_details", "call-2", chat.StatusRunning)
			conv = chat.UpsertToolStatus(conv, "search_nodes", "call-1", chat.StatusCompleted)

			first, _ := chat.ToolMessage(conv, "call-1")
			second, _ := chat.ToolMessage(conv, "call-2")
			Expect(first.Status).To(Equal(chat.StatusCompleted))
			Expect(second.Status).To(Equal(chat.StatusRunning))
		})
	})

	Describe("ReplaceLast", func() {
		It("should swap the trailing message", func() {
			conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("Syncing..."))
			conv = chat.ReplaceLast(conv, chat.NewAssistantMessage("Done"))

			Expect(chat.GetMessageCount(conv)).To(Equal(1))
			msg, _ := chat.GetLastMessage(conv)
			Expect(msg.Content).To(Equal("Done"))
		})

		It("should be a no-op on an empty conversation", func() {
			conv := chat.ReplaceLast(chat.NewConversation(), chat.NewAssistantMessage("x"))

			Expect(chat.IsEmpty(conv)).To(BeTrue())
		})
	})
})
