package robot_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/robot"
)

var _ = Describe("Store", func() {
	var store *robot.Store

	BeforeEach(func() {
		store = robot.NewStore()
	})

	It("starts docked and fully charged", func() {
		snap := store.Snapshot()
		Expect(snap.Status.State).To(Equal(robot.StateDocked))
		Expect(snap.Status.Battery).To(Equal(100))
		Expect(snap.Devices).NotTo(BeEmpty())
		Expect(snap.Tasks).To(BeEmpty())
	})

	It("returns copies from Snapshot", func() {
		snap := store.Snapshot()
		snap.Devices[0].Name = "mutated"
		Expect(store.Devices()[0].Name).NotTo(Equal("mutated"))
	})

	It("clamps battery levels", func() {
		store.SetBattery(150)
		Expect(store.Snapshot().Status.Battery).To(Equal(100))

		store.SetBattery(-5)
		Expect(store.Snapshot().Status.Battery).To(Equal(0))
	})

	It("tracks tasks through their lifecycle", func() {
		task := store.AddTask("清扫", "客厅")
		Expect(task.Status).To(Equal(robot.TaskPending))

		store.SetTaskStatus(task.ID, robot.TaskRunning)
		Expect(store.Tasks()[0].Status).To(Equal(robot.TaskRunning))

		store.SetTaskStatus(task.ID, robot.TaskCompleted)
		Expect(store.Tasks()[0].Status).To(Equal(robot.TaskCompleted))
	})

	Describe("Watch", func() {
		It("delivers the latest snapshot after a mutation", func() {
			store.SetState(robot.StateCleaning)

			var snap robot.Snapshot
			Eventually(store.Watch()).Should(Receive(&snap))
			Expect(snap.Status.State).To(Equal(robot.StateCleaning))
		})

		It("retains only the newest unread snapshot", func() {
			store.SetState(robot.StateCleaning)
			store.SetState(robot.StatePaused)
			store.SetState(robot.StateIdle)

			var snap robot.Snapshot
			Eventually(store.Watch()).Should(Receive(&snap))
			Expect(snap.Status.State).To(Equal(robot.StateIdle))
		})
	})
})

var _ = Describe("ParseCommand", func() {
	It("parses a function call payload", func() {
		cmd, err := robot.ParseCommand(`{"name":"start_cleaning","arguments":{"area":"客厅"}}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Name).To(Equal(robot.CommandStartCleaning))
		Expect(cmd.Arguments["area"]).To(Equal("客厅"))
	})

	It("rejects empty payloads", func() {
		_, err := robot.ParseCommand("   ")
		Expect(err).To(HaveOccurred())
	})

	It("rejects payloads without a name", func() {
		_, err := robot.ParseCommand(`{"arguments":{}}`)
		Expect(err).To(HaveOccurred())
	})

	It("rejects malformed JSON", func() {
		_, err := robot.ParseCommand(`{"name":`)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Apply", func() {
	var store *robot.Store

	BeforeEach(func() {
		store = robot.NewStore()
	})

	It("starts cleaning with a running task", func() {
		ok := store.Apply(&robot.Command{
			Name:      robot.CommandStartCleaning,
			Arguments: map[string]any{"area": "卧室"},
		})
		Expect(ok).To(BeTrue())

		snap := store.Snapshot()
		Expect(snap.Status.State).To(Equal(robot.StateCleaning))
		Expect(snap.Status.Area).To(Equal("卧室"))
		Expect(snap.Tasks).To(HaveLen(1))
		Expect(snap.Tasks[0].Status).To(Equal(robot.TaskRunning))
	})

	It("cancels running tasks on stop", func() {
		store.Apply(&robot.Command{Name: robot.CommandStartCleaning})
		ok := store.Apply(&robot.Command{Name: robot.CommandStopCleaning})
		Expect(ok).To(BeTrue())

		snap := store.Snapshot()
		Expect(snap.Status.State).To(Equal(robot.StateIdle))
		Expect(snap.Tasks[0].Status).To(Equal(robot.TaskCancelled))
	})

	It("completes tasks when returning to dock", func() {
		store.Apply(&robot.Command{Name: robot.CommandStartCleaning})
		ok := store.Apply(&robot.Command{Name: robot.CommandDock})
		Expect(ok).To(BeTrue())

		snap := store.Snapshot()
		Expect(snap.Status.State).To(Equal(robot.StateReturning))
		Expect(snap.Tasks[0].Status).To(Equal(robot.TaskCompleted))
	})

	It("pauses without touching tasks", func() {
		store.Apply(&robot.Command{Name: robot.CommandStartCleaning})
		store.Apply(&robot.Command{Name: robot.CommandPauseCleaning})

		snap := store.Snapshot()
		Expect(snap.Status.State).To(Equal(robot.StatePaused))
		Expect(snap.Tasks[0].Status).To(Equal(robot.TaskRunning))
	})

	It("ignores unknown commands", func() {
		Expect(store.Apply(&robot.Command{Name: "fly_to_moon"})).To(BeFalse())
		Expect(store.Apply(nil)).To(BeFalse())
		Expect(store.Snapshot().Status.State).To(Equal(robot.StateDocked))
	})
})

var _ = Describe("NopPublisher", func() {
	It("accepts commands and rejects nil", func() {
		p := robot.NewNopPublisher()
		Expect(p.PublishCommand(context.Background(), &robot.Command{Name: robot.CommandDock})).To(Succeed())
		Expect(p.PublishCommand(context.Background(), nil)).To(HaveOccurred())
		Expect(p.Close()).To(Succeed())
	})
})
