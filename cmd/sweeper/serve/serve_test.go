package servecmder_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	servecmder "github.com/QingShuishui/rdk-x5-app-sub000/cmd/sweeper/serve"
)

var _ = Describe("NewServeCmd", func() {
	It("creates a command with expected properties", func() {
		cmd := servecmder.NewServeCmd()
		Expect(cmd.Use).To(Equal("serve"))
		Expect(cmd.Short).NotTo(BeEmpty())
	})

	It("registers the gateway flags", func() {
		cmd := servecmder.NewServeCmd()
		for _, name := range []string{
			"api-listen",
			"bot-url",
			"bot-id",
			"user-id",
			"storage-driver",
			"sqlite",
			"postgres",
			"mqtt-broker",
			"mqtt-topic",
			"kafka-brokers",
			"kafka-topic",
			"idle-timeout",
		} {
			Expect(cmd.Flags().Lookup(name)).NotTo(BeNil(), "missing flag %s", name)
		}
	})

	It("defaults api-listen from the default config", func() {
		cmd := servecmder.NewServeCmd()
		flag := cmd.Flags().Lookup("api-listen")
		Expect(flag.DefValue).To(Equal(":8081"))
	})

	It("defaults storage-driver to memory", func() {
		cmd := servecmder.NewServeCmd()
		flag := cmd.Flags().Lookup("storage-driver")
		Expect(flag.DefValue).To(Equal("memory"))
	})
})
