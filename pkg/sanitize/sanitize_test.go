package sanitize_test

import (
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/sanitize"
)

func TestSanitize(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Sanitize Suite")
}

var _ = Describe("Sanitize", func() {
	Context("structural rejection", func() {
		It("suppresses serialized function-call JSON", func() {
			Expect(sanitize.Sanitize(`{"name":"start_cleaning","arguments":{}}`)).To(BeEmpty())
		})

		It("suppresses any text starting with a brace", func() {
			Expect(sanitize.Sanitize(`{  好的，我这就开始打扫客厅区域。`)).To(BeEmpty())
		})

		It("suppresses text containing a quoted name key", func() {
			Expect(sanitize.Sanitize(`调用结果 "name": "get_battery" 已返回。`)).To(BeEmpty())
		})
	})

	Context("keyword rejection", func() {
		It("suppresses tool identifier leakage", func() {
			for _, kw := range []string{"plugin_id", "api_id", "function_call", "tool_call", "plugin_name"} {
				Expect(sanitize.Sanitize("执行中 " + kw + "=12345，请稍候。")).To(BeEmpty())
			}
		})

		It("suppresses configured internal numeric identifiers", func() {
			s := sanitize.New(sanitize.Config{InternalIDs: []string{"7352816394052739"}})
			Expect(s.Sanitize("结果编号 7352816394052739 已生成，请查看。")).To(BeEmpty())
		})
	})

	Context("pattern rejection", func() {
		It("suppresses name-field shapes with loose spacing", func() {
			Expect(sanitize.Sanitize(`工具返回 "name" : "dock" 完成`)).To(BeEmpty())
		})

		It("suppresses arguments-object shapes", func() {
			Expect(sanitize.Sanitize(`参数为 "arguments" : {"mode":1} 的调用`)).To(BeEmpty())
		})
	})

	Context("recommended-question heuristic", func() {
		It("suppresses short solicitation questions", func() {
			Expect(sanitize.Sanitize("您想了解扫地机的续航吗？")).To(BeEmpty())
			Expect(sanitize.Sanitize("需要我为您设置定时清扫吗?")).To(BeEmpty())
			Expect(sanitize.Sanitize("我可以为您播报电量吗？")).To(BeEmpty())
		})

		It("suppresses generic short how-to solicitations", func() {
			Expect(sanitize.Sanitize("如何设置勿扰时段呢？")).To(BeEmpty())
			Expect(sanitize.Sanitize("怎么清洗滤网吗？")).To(BeEmpty())
		})

		It("keeps long genuine questions", func() {
			q := "请问您希望我先清扫客厅还是卧室？如果都需要的话我会按照默认路线依次进行清扫？"
			Expect(sanitize.Sanitize(q)).To(Equal(q))
		})

		It("keeps short statements that are not questions", func() {
			Expect(sanitize.Sanitize("建议您定期清洗滤网。")).To(Equal("建议您定期清洗滤网。"))
		})
	})

	Context("cleaning", func() {
		It("strips C0 and C1 control characters", func() {
			raw := "好的\x01，我来\x1f帮您启动扫地机器人。"
			Expect(sanitize.Sanitize(raw)).To(Equal("好的，我来帮您启动扫地机器人。"))
		})

		It("strips recommended-question tail sections", func() {
			raw := "已经开始清扫客厅了。\n推荐问题:\n1. 电量还剩多少？\n2. 怎么暂停？"
			Expect(sanitize.Sanitize(raw)).To(Equal("已经开始清扫客厅了。"))
		})

		It("strips you-can-ask-me boilerplate sentences", func() {
			raw := "清扫任务已完成。您可以随时问我机器人的电量和状态。欢迎下次使用。"
			Expect(sanitize.Sanitize(raw)).To(Equal("清扫任务已完成。欢迎下次使用。"))
		})

		It("normalizes whitespace runs", func() {
			raw := "第一段。\n\n\n\n第二段。   结束了吧。"
			Expect(sanitize.Sanitize(raw)).To(Equal("第一段。\n\n第二段。 结束了吧。"))
		})
	})

	Context("length cap", func() {
		It("truncates long replies and appends the ellipsis marker", func() {
			raw := strings.Repeat("扫", 420)
			out := sanitize.Sanitize(raw)

			Expect(strings.HasSuffix(out, sanitize.Ellipsis)).To(BeTrue())
			trimmed := strings.TrimSuffix(out, sanitize.Ellipsis)
			Expect(len([]rune(trimmed))).To(BeNumerically("<=", 300))
			Expect(len([]rune(trimmed))).To(Equal(300))
		})

		It("leaves replies at the cap untouched", func() {
			raw := strings.Repeat("净", 300)
			Expect(sanitize.Sanitize(raw)).To(Equal(raw))
		})
	})

	Context("final validity", func() {
		It("suppresses text shorter than five runes", func() {
			Expect(sanitize.Sanitize("ok")).To(BeEmpty())
			Expect(sanitize.Sanitize("好的。")).To(BeEmpty())
		})

		It("suppresses punctuation-only remainders", func() {
			Expect(sanitize.Sanitize("。。。！！！……——")).To(BeEmpty())
		})

		It("keeps ordinary answers", func() {
			raw := "好的，我来帮您启动扫地机器人开始清洁。"
			Expect(sanitize.Sanitize(raw)).To(Equal(raw))
		})
	})

	Context("determinism and idempotence", func() {
		It("is deterministic", func() {
			raw := "已为您暂停清扫，机器人将原地待命。"
			Expect(sanitize.Sanitize(raw)).To(Equal(sanitize.Sanitize(raw)))
		})

		It("is idempotent on non-empty outputs", func() {
			inputs := []string{
				"好的，我来帮您启动扫地机器人开始清洁。",
				"第一段。\n\n\n\n第二段。   结束了吧。",
				strings.Repeat("扫地机器人正在工作。", 60),
				"清扫任务已完成。您可以随时问我机器人的电量和状态。欢迎下次使用。",
			}

			for _, raw := range inputs {
				once := sanitize.Sanitize(raw)
				Expect(once).NotTo(BeEmpty())
				Expect(sanitize.Sanitize(once)).To(Equal(once))
			}
		})
	})
})
