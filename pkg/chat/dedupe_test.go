package chat_test

import (
	"github.com/nodeflip/nodeflip/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Fingerprint", func() {
	It("should keep only the first ten words", func() {
		a := chat.Fingerprint("one two three four five six seven eight nine ten ELEVEN")
		b := chat.Fingerprint("one two three four five six seven eight nine ten TWELVE")

		Expect(a).To(Equal(b))
		Expect(a).To(Equal("one two three four five six seven eight nine ten"))
	})

	It("should normalize whitespace runs", func() {
		Expect(chat.Fingerprint("  a\tb \n c ")).To(Equal(chat.Fingerprint("a b c")))
	})

	It("should be empty for blank content", func() {
		Expect(chat.Fingerprint(" \n ")).To(Equal(""))
	})
})

var _ = Describe("SuppressTrailingDuplicate", func() {
	withToolBetween := func(first, second string) chat.Conversation {
		conv := chat.AddMessage(chat.NewConversation(), chat.NewUserMessage("add an http node"))
		conv = chat.AddMessage(conv, chat.NewAssistantMessage(first))
		conv = chat.AddMessage(conv, chat.NewToolMessage("search_nodes", "call-1", chat.StatusCompleted))
		conv = chat.AddMessage(conv, chat.NewAssistantMessage(second))
		return conv
	}

	It("should remove the earlier message when the first ten words match", func() {
		conv := withToolBetween(
			"I will add an HTTP Request node to your workflow now, hold on.",
			"I will add an HTTP Request node to your workflow now. It is configured for GET.",
		)

		deduped, removed := chat.SuppressTrailingDuplicate(conv)
		Expect(removed).To(BeTrue())

		plain := chat.PlainAssistantMessages(deduped)
		Expect(plain).To(HaveLen(1))
		Expect(plain[0].Content).To(ContainSubstring("configured for GET"))

		// The tool entry and user message survive.
		Expect(chat.GetMessageCount(deduped)).To(Equal(3))
		_, found := chat.ToolMessage(deduped, "call-1")
		Expect(found).To(BeTrue())
	})

	It("should keep both messages when an early word differs", func() {
		conv := withToolBetween(
			"I will add an HTTP Request node to your workflow.",
			"I did add an HTTP Request node to your workflow.",
		)

		deduped, removed := chat.SuppressTrailingDuplicate(conv)
		Expect(removed).To(BeFalse())
		Expect(chat.PlainAssistantMessages(deduped)).To(HaveLen(2))
	})

	It("should ignore empty accumulators", func() {
		conv := withToolBetween("Adding the node now.", "   ")

		_, removed := chat.SuppressTrailingDuplicate(conv)
		Expect(removed).To(BeFalse())
	})

	It("should do nothing with fewer than two assistant messages", func() {
		conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("only one"))

		deduped, removed := chat.SuppressTrailingDuplicate(conv)
		Expect(removed).To(BeFalse())
		Expect(chat.GetMessageCount(deduped)).To(Equal(1))
	})

	It("should compare the last two even with interleaved user messages", func() {
		conv := chat.AddMessage(chat.NewConversation(), chat.NewAssistantMessage("Adding the webhook node you asked for to the canvas now."))
		conv = chat.AddMessage(conv, chat.NewUserMessage("thanks"))
		conv = chat.AddMessage(conv, chat.NewAssistantMessage("Adding the webhook node you asked for to the canvas now. Done."))

		deduped, removed := chat.SuppressTrailingDuplicate(conv)
		Expect(removed).To(BeTrue())

		plain := chat.PlainAssistantMessages(deduped)
		Expect(plain).To(HaveLen(1))
		Expect(plain[0].Content).To(HaveSuffix("Done."))
	})
})
