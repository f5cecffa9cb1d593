package chat_test

import (
	"os"
	"path/filepath"

	"github.com/nodeflip/nodeflip/pkg/chat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Transcript", func() {
	var path string

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "state", "transcript.json")
	})

	It("should start empty when no file exists", func() {
		transcript, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		Expect(transcript.GetMessages()).To(BeEmpty())
		Expect(transcript.GetLastAddedNodeName()).To(Equal(""))
	})

	It("should create missing parent directories", func() {
		_, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		_, err = os.Stat(filepath.Dir(path))
		Expect(err).ToNot(HaveOccurred())
	})

	It("should round-trip messages and the last added node name", func() {
		transcript, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		messages := []chat.Message{
			chat.NewUserMessage("add a webhook"),
			chat.NewAssistantMessage("Added a Webhook node."),
			chat.NewToolMessage("search_nodes", "call-1", chat.StatusCompleted),
		}
		Expect(transcript.Update(messages, "Webhook")).To(Succeed())

		reloaded, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		got := reloaded.GetMessages()
		Expect(got).To(HaveLen(3))
		Expect(got[0].Content).To(Equal("add a webhook"))
		Expect(got[2].ToolCallID).To(Equal("call-1"))
		Expect(got[2].Status).To(Equal(chat.StatusCompleted))
		Expect(reloaded.GetLastAddedNodeName()).To(Equal("Webhook"))
	})

	It("should copy rather than alias the caller's slice", func() {
		transcript, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		messages := []chat.Message{chat.NewUserMessage("original")}
		Expect(transcript.Update(messages, "")).To(Succeed())
		messages[0].Content = "mutated"

		Expect(transcript.GetMessages()[0].Content).To(Equal("original"))
	})

	It("should clear persisted state", func() {
		transcript, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())

		Expect(transcript.Update([]chat.Message{chat.NewUserMessage("hi")}, "Set")).To(Succeed())
		Expect(transcript.Clear()).To(Succeed())

		reloaded, err := chat.NewTranscript(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(reloaded.GetMessages()).To(BeEmpty())
		Expect(reloaded.GetLastAddedNodeName()).To(Equal(""))
	})
})
