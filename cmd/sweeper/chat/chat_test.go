package chatcmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	chatcmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/chat"
)

var _ = Describe("NewChatCmd", func() {
	It("creates a command with expected properties", func() {
		cmd := chatcmder.NewChatCmd()
		Expect(cmd.Use).To(Equal("chat"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("registers the agent flags", func() {
		cmd := chatcmder.NewChatCmd()
		for _, name := range []string{"bot-url", "bot-id", "user-id", "idle-timeout"} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %s", name)
		}
	})

	It("defaults bot-url from the default config", func() {
		cmd := chatcmder.NewChatCmd()
		flag := cmd.Flags().Lookup("bot-url")
		Expect(flag.DefValue).To(Equal("https://api.coze.cn"))
	})
})
