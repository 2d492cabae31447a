package sweepercmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	sweepercmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper"
)

var _ = Describe("NewSweeperCmd", func() {
	It("creates the root command", func() {
		cmd := sweepercmder.NewSweeperCmd()
		Expect(cmd.Use).To(Equal("sweeper"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("registers the expected subcommands", func() {
		cmd := sweepercmder.NewSweeperCmd()

		names := []string{}
		for _, sub := range cmd.Commands() {
			names = append(names, sub.Name())
		}
		Expect(names).To(ContainElements("serve", "chat", "config", "auth", "init", "version"))
	})

	It("has the debug persistent flag", func() {
		cmd := sweepercmder.NewSweeperCmd()
		flag := cmd.PersistentFlags().Lookup("debug")
		Expect(flag).NotTo(BeNil())
		Expect(flag.Shorthand).To(Equal("d"))
	})

	It("has the config-dir persistent flag", func() {
		cmd := sweepercmder.NewSweeperCmd()
		flag := cmd.PersistentFlags().Lookup("config-dir")
		Expect(flag).NotTo(BeNil())
	})
})
