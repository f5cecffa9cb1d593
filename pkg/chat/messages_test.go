package chat_test

import (
	"testing"

	"github.com/nodeflip/nodeflip/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMessages(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chat Suite")
}

var _ = Describe("Message", func() {
	Describe("NewUserMessage", func() {
		It("should trim surrounding whitespace", func() {
			msg := chat.NewUserMessage("  add a webhook node \n")

			Expect(msg.Role).To(Equal(chat.RoleUser))
			Expect(msg.Content).To(Equal("add a webhook node"))
			Expect(msg.Timestamp).ToNot(BeZero())
		})
	})

	Describe("NewToolMessage", func() {
		It("should default the status to running", func() {
			msg := chat.NewToolMessage("search_nodes", "call-1", "")

			Expect(msg.Status).To(Equal(chat.StatusRunning))
			Expect(msg.IsTool()).To(BeTrue())
			Expect(msg.IsPlainAssistant()).To(BeFalse())
		})

		It("should keep an explicit status", func() {
			msg := chat.NewToolMessage("search_nodes", "call-1", chat.StatusCompleted)

			Expect(msg.Status).To(Equal(chat.StatusCompleted))
		})
	})

	Describe("IsPlainAssistant", func() {
		It("should be true for assistant text only", func() {
			Expect(chat.NewAssistantMessage("hi").IsPlainAssistant()).To(BeTrue())
			Expect(chat.NewUserMessage("hi").IsPlainAssistant()).To(BeFalse())
			Expect(chat.NewErrorMessage("boom").IsPlainAssistant()).To(BeFalse())
			Expect(chat.NewToolMessage("t", "c", "").IsPlainAssistant()).To(BeFalse())
		})
	})

	Describe("IsEmpty", func() {
		It("should treat whitespace-only content as empty", func() {
			Expect(chat.NewAssistantMessage("  \n\t").IsEmpty()).To(BeTrue())
			Expect(chat.NewAssistantMessage("x").IsEmpty()).To(BeFalse())
		})
	})
})
