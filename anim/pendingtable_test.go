package anim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/animtrace/sim"
)

type fakeClock struct {
	now sim.VTimeInSec
}

func (c *fakeClock) CurrentTime() sim.VTimeInSec {
	return c.now
}

var _ = Describe("PendingTable", func() {
	var clock *fakeClock

	BeforeEach(func() {
		clock = &fakeClock{}
	})

	It("should reject a duplicate transmit for a pending token", func() {
		table := NewPendingTable(CategoryWifi, clock)

		err := table.RecordTransmit(1, PendingRecord{FromNode: 0})
		Expect(err).ToNot(HaveOccurred())

		err = table.RecordTransmit(1, PendingRecord{FromNode: 7})
		Expect(err).To(MatchError(ErrDuplicateTransmit))

		rec, err := table.Consume(1)
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.FromNode).To(Equal(NodeID(0)))
	})

	It("should fail a receive with no matching transmit", func() {
		table := NewPendingTable(CategoryCsma, clock)

		_, err := table.Consume(42)
		Expect(err).To(MatchError(ErrUnmatchedReceive))
	})

	It("should consume once for point-to-point categories", func() {
		table := NewPendingTable(CategoryCsma, clock)

		err := table.RecordTransmit(1, PendingRecord{FromNode: 3})
		Expect(err).ToNot(HaveOccurred())

		_, err = table.Consume(1)
		Expect(err).ToNot(HaveOccurred())

		_, err = table.Consume(1)
		Expect(err).To(MatchError(ErrUnmatchedReceive))
		Expect(table.Len()).To(Equal(0))
	})

	It("should keep broadcast entries pending across receives", func() {
		table := NewPendingTable(CategoryWifi, clock)

		err := table.RecordTransmit(1, PendingRecord{FromNode: 3})
		Expect(err).ToNot(HaveOccurred())

		for i := 0; i < 3; i++ {
			rec, err := table.Consume(1)
			Expect(err).ToNot(HaveOccurred())
			Expect(rec.FromNode).To(Equal(NodeID(3)))
		}

		Expect(table.IsPending(1)).To(BeTrue())

		table.Complete(1)
		Expect(table.IsPending(1)).To(BeFalse())
	})

	It("should close the transmit interval of a pending record", func() {
		table := NewPendingTable(CategoryWifi, clock)

		err := table.RecordTransmit(1, PendingRecord{
			FirstBitTxTime: 1.0,
			LastBitTxTime:  1.0,
		})
		Expect(err).ToNot(HaveOccurred())

		table.SetLastBitTxTime(1, 1.0005)
		table.SetLastBitTxTime(99, 2.0) // unknown token, no-op

		rec, err := table.Consume(1)
		Expect(err).ToNot(HaveOccurred())
		Expect(rec.FirstBitTxTime).To(Equal(sim.VTimeInSec(1.0)))
		Expect(rec.LastBitTxTime).To(Equal(sim.VTimeInSec(1.0005)))
	})

	It("should purge only records strictly older than the maximum age", func() {
		table := NewPendingTable(CategoryWifi, clock)

		err := table.RecordTransmit(1, PendingRecord{FirstBitTxTime: 1.0})
		Expect(err).ToNot(HaveOccurred())
		err = table.RecordTransmit(2, PendingRecord{FirstBitTxTime: 3.0})
		Expect(err).ToNot(HaveOccurred())

		clock.now = 6.0
		Expect(table.Purge(5.0)).To(Equal(0))
		Expect(table.Len()).To(Equal(2))

		clock.now = 6.5
		Expect(table.Purge(5.0)).To(Equal(1))
		Expect(table.IsPending(1)).To(BeFalse())
		Expect(table.IsPending(2)).To(BeTrue())
	})

	It("should count purged records over the table lifetime", func() {
		table := NewPendingTable(CategoryLte, clock)

		_ = table.RecordTransmit(1, PendingRecord{FirstBitTxTime: 0})
		_ = table.RecordTransmit(2, PendingRecord{FirstBitTxTime: 0})

		clock.now = 10.0
		Expect(table.Purge(5.0)).To(Equal(2))

		_ = table.RecordTransmit(3, PendingRecord{FirstBitTxTime: 4.0})

		clock.now = 20.0
		Expect(table.Purge(5.0)).To(Equal(1))

		Expect(table.PurgedCount()).To(Equal(uint64(3)))
	})

	It("should drop all records on a reset but keep the purge counter", func() {
		table := NewPendingTable(CategoryWifi, clock)

		_ = table.RecordTransmit(1, PendingRecord{FirstBitTxTime: 0})
		_ = table.RecordTransmit(2, PendingRecord{FirstBitTxTime: 0})

		clock.now = 10.0
		Expect(table.Purge(5.0)).To(Equal(2))

		_ = table.RecordTransmit(3, PendingRecord{FirstBitTxTime: 10.0})
		table.Reset()

		Expect(table.Len()).To(Equal(0))
		Expect(table.IsPending(3)).To(BeFalse())
		Expect(table.PurgedCount()).To(Equal(uint64(2)))
	})

	It("should accept a new transmit once the entry is removed", func() {
		table := NewPendingTable(CategoryCsma, clock)

		_ = table.RecordTransmit(1, PendingRecord{FromNode: 1})
		_, err := table.Consume(1)
		Expect(err).ToNot(HaveOccurred())

		err = table.RecordTransmit(1, PendingRecord{FromNode: 2})
		Expect(err).ToNot(HaveOccurred())
	})
})
