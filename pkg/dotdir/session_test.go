package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/dotdir"
)

var _ = Describe("dotdir.Manager session", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadSessionState", func() {
		It("returns nil when no session file exists", func() {
			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid session state", func() {
			data := `{"conversation_id":"conv_1","chat_id":"chat_1","messages":[{"role":"user","content":"帮我打扫客厅"},{"role":"assistant","content":"好的，这就去打扫。"}]}`
			err := os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.ConversationID).To(Equal("conv_1"))
			Expect(state.ChatID).To(Equal("chat_1"))
			Expect(state.Messages).To(HaveLen(2))
			Expect(state.Messages[0].Role).To(Equal("user"))
			Expect(state.Messages[1].Content).To(Equal("好的，这就去打扫。"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("not json"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadSessionState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveSession", func() {
		It("persists session state to disk", func() {
			state := &dotdir.SessionState{
				ConversationID: "conv_2",
				Messages: []dotdir.SessionMessage{
					{Role: "user", Content: "电池还有多少电？"},
					{Role: "assistant", Content: "当前电量为百分之八十。"},
				},
			}

			err := m.SaveSession(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			_, err = os.Stat(filepath.Join(tmpDir, "session.json"))
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ConversationID).To(Equal("conv_2"))
			Expect(loaded.Messages).To(HaveLen(2))
		})

		It("returns error for nil state", func() {
			err := m.SaveSession(nil, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing session state", func() {
			first := &dotdir.SessionState{
				ConversationID: "conv_first",
				Messages:       []dotdir.SessionMessage{{Role: "user", Content: "第一句"}},
			}
			second := &dotdir.SessionState{
				ConversationID: "conv_second",
				Messages:       []dotdir.SessionMessage{{Role: "user", Content: "第二句"}},
			}

			Expect(m.SaveSession(first, tmpDir)).To(Succeed())
			Expect(m.SaveSession(second, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ConversationID).To(Equal("conv_second"))
		})
	})

	Describe("ClearSession", func() {
		It("removes the session file", func() {
			state := &dotdir.SessionState{ConversationID: "to-clear", Messages: []dotdir.SessionMessage{}}
			Expect(m.SaveSession(state, tmpDir)).To(Succeed())

			Expect(m.ClearSession(tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no session file exists", func() {
			Expect(m.ClearSession(tmpDir)).To(Succeed())
		})
	})

	Describe("round-trip", func() {
		It("saves and loads session state correctly", func() {
			state := &dotdir.SessionState{
				ConversationID: "conv_roundtrip",
				ChatID:         "chat_9",
				Messages: []dotdir.SessionMessage{
					{Role: "user", Content: "你好"},
					{Role: "assistant", Content: "你好，有什么可以帮您？"},
					{Role: "user", Content: "打扫厨房"},
					{Role: "assistant", Content: "好的，这就去打扫厨房。"},
				},
			}

			Expect(m.SaveSession(state, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(state))
		})
	})
})
