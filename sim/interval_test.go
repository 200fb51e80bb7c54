package sim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingIntervalHandler struct {
	scheduler *IntervalScheduler
	fireTimes []VTimeInSec
	stopAfter int
}

func (h *countingIntervalHandler) Handle(e Event) error {
	if h.scheduler.IsCancelled() {
		return nil
	}

	h.fireTimes = append(h.fireTimes, e.Time())

	if len(h.fireTimes) >= h.stopAfter {
		h.scheduler.Cancel()
		return nil
	}

	h.scheduler.ScheduleNext()

	return nil
}

var _ = Describe("IntervalScheduler", func() {
	var engine *SerialEngine

	BeforeEach(func() {
		engine = NewSerialEngine()
	})

	It("should fire on a fixed cadence", func() {
		handler := &countingIntervalHandler{stopAfter: 4}
		scheduler := NewIntervalScheduler(handler, engine, 0.25)
		handler.scheduler = scheduler

		scheduler.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(handler.fireTimes).To(Equal([]VTimeInSec{
			0.25, 0.5, 0.75, 1.0,
		}))
	})

	It("should stop firing after cancellation", func() {
		handler := &countingIntervalHandler{stopAfter: 2}
		scheduler := NewIntervalScheduler(handler, engine, 0.5)
		handler.scheduler = scheduler

		scheduler.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(handler.fireTimes).To(HaveLen(2))
		Expect(scheduler.IsCancelled()).To(BeTrue())
	})

	It("should restart after cancellation", func() {
		handler := &countingIntervalHandler{stopAfter: 1}
		scheduler := NewIntervalScheduler(handler, engine, 0.5)
		handler.scheduler = scheduler

		scheduler.Start()
		Expect(engine.Run()).To(Succeed())

		handler.fireTimes = nil
		handler.stopAfter = 1
		scheduler.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(handler.fireTimes).To(Equal([]VTimeInSec{1.0}))
	})

	It("should panic on a non-positive period", func() {
		handler := &countingIntervalHandler{}
		Expect(func() {
			NewIntervalScheduler(handler, engine, 0)
		}).To(Panic())
	})
})
