package anim

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// failingWriteCloser fails every write but tracks whether it was released.
type failingWriteCloser struct {
	closed bool
}

func (f *failingWriteCloser) Write(p []byte) (int, error) {
	return 0, errors.New("disk full")
}

func (f *failingWriteCloser) Close() error {
	f.closed = true
	return nil
}

// recordCollector captures every rendered record in order.
type recordCollector struct {
	records []string
}

func (c *recordCollector) Observe(record string) {
	c.records = append(c.records, record)
}

func (c *recordCollector) joined() string {
	return strings.Join(c.records, "")
}

type countingRotationHandler struct {
	calls int
}

func (h *countingRotationHandler) HandleNewFile() error {
	h.calls++
	return nil
}

func samplePacket(from NodeID) (PendingRecord, RxRecord) {
	rec := PendingRecord{
		Token:          1,
		FromNode:       from,
		FirstBitTxTime: 1.0,
		LastBitTxTime:  1.0001,
		ByteCount:      1500,
	}
	rx := RxRecord{
		ToNode:         from + 1,
		FirstBitRxTime: 1.002,
		LastBitRxTime:  1.0021,
	}
	return rec, rx
}

var _ = Describe("Writer", func() {
	var collector *recordCollector

	BeforeEach(func() {
		collector = &recordCollector{}
	})

	It("should refuse to open with no destination and no observer", func() {
		w := NewWriter(true)

		Expect(w.Open()).To(MatchError(ErrDestinationUnavailable))
	})

	It("should run observer-only with at least one observer", func() {
		w := NewWriter(true)
		w.AddObserver(collector)

		Expect(w.Open()).To(Succeed())
		Expect(w.WritePreamble()).To(Succeed())

		Expect(collector.joined()).To(ContainSubstring("<anim lp = \"1\">"))
	})

	It("should treat both window boundaries as inclusive", func() {
		w := NewWriter(true)
		w.SetTimeWindow(2.0, 5.0)

		Expect(w.IsInTimeWindow(2.0)).To(BeTrue())
		Expect(w.IsInTimeWindow(5.0)).To(BeTrue())
		Expect(w.IsInTimeWindow(3.7)).To(BeTrue())
		Expect(w.IsInTimeWindow(1.999)).To(BeFalse())
		Expect(w.IsInTimeWindow(5.001)).To(BeFalse())
	})

	It("should capture at any time with no window configured", func() {
		w := NewWriter(true)

		Expect(w.IsInTimeWindow(0)).To(BeTrue())
		Expect(w.IsInTimeWindow(1e12)).To(BeTrue())
	})

	It("should render wireless packets with a range attribute", func() {
		w := NewWriter(true)
		w.AddObserver(collector)
		Expect(w.Open()).To(Succeed())

		rec, rx := samplePacket(0)
		rec.WirelessRange = 250.0

		Expect(w.WritePacket(CategoryWifi, rec, rx, "")).To(Succeed())

		out := collector.joined()
		Expect(out).To(ContainSubstring(
			"<wpacket fromLp = \"0\" fromId = \"0\" fbTx = \"1.000000000\""))
		Expect(out).To(ContainSubstring("range = \"250.000000\""))
		Expect(out).To(ContainSubstring(
			"<rx toLp = \"0\" toId = \"1\" fbRx = \"1.002000000\""))
		Expect(out).To(ContainSubstring("</wpacket>"))
	})

	It("should render wired packets without a range", func() {
		w := NewWriter(true)
		w.AddObserver(collector)
		Expect(w.Open()).To(Succeed())

		rec, rx := samplePacket(3)

		Expect(w.WritePacket(CategoryCsma, rec, rx, "")).To(Succeed())

		out := collector.joined()
		Expect(out).To(ContainSubstring("<packet fromLp = \"0\" fromId = \"3\""))
		Expect(out).ToNot(ContainSubstring("range"))
		Expect(out).To(ContainSubstring("</packet>"))
	})

	It("should append a meta sub-record when metadata is present", func() {
		w := NewWriter(true)
		w.AddObserver(collector)
		Expect(w.Open()).To(Succeed())

		rec, rx := samplePacket(0)

		Expect(w.WritePacket(CategoryCsma, rec, rx, "ipv4 proto 17")).
			To(Succeed())

		Expect(collector.joined()).To(ContainSubstring(
			"<meta info = \"ipv4 proto 17\" />"))
	})

	It("should render the dense plain-text format", func() {
		w := NewWriter(false)
		w.AddObserver(collector)
		Expect(w.Open()).To(Succeed())
		Expect(w.WritePreamble()).To(Succeed())

		rec, rx := samplePacket(0)
		rec.WirelessRange = 250.0

		Expect(w.WritePacket(CategoryWifi, rec, rx, "")).To(Succeed())
		Expect(w.WriteNode(4, Vector{X: 1, Y: 2}, "alice")).To(Succeed())

		out := collector.joined()
		Expect(out).To(ContainSubstring("V 1\n"))
		Expect(out).To(ContainSubstring("W 0 1.000000000 1.000100000"))
		Expect(out).To(ContainSubstring("R 1 1.002000000 1.002100000\n"))
		Expect(out).To(ContainSubstring("N 4 1.000000 2.000000 alice\n"))
	})

	It("should rotate the trace file at the record limit", func() {
		base := filepath.Join(GinkgoT().TempDir(), "trace.xml")
		handler := &countingRotationHandler{}

		w := NewWriter(true)
		w.SetDestinationFile(base)
		w.SetMaxRecordsPerFile(2)
		w.SetRotationHandler(handler)

		Expect(w.Open()).To(Succeed())
		Expect(w.WritePreamble()).To(Succeed())

		rec, rx := samplePacket(0)
		for i := 0; i < 3; i++ {
			Expect(w.WritePacket(CategoryCsma, rec, rx, "")).To(Succeed())
		}

		Expect(w.Close()).To(Succeed())

		Expect(handler.calls).To(Equal(1))
		Expect(w.TracePacketCount()).To(Equal(uint64(1)))

		first, err := os.ReadFile(base)
		Expect(err).ToNot(HaveOccurred())
		Expect(strings.Count(string(first), "<packet")).To(Equal(2))
		Expect(string(first)).To(HaveSuffix("</anim>\n"))

		second, err := os.ReadFile(base + "-1")
		Expect(err).ToNot(HaveOccurred())
		Expect(string(second)).To(ContainSubstring("<?xml"))
		Expect(strings.Count(string(second), "<packet")).To(Equal(1))
		Expect(string(second)).To(HaveSuffix("</anim>\n"))
	})

	It("should release a destination that fails the closing marker", func() {
		w := NewWriter(true)
		dest := &failingWriteCloser{}
		w.dest = dest
		w.opened = true

		_ = w.Close()

		Expect(dest.closed).To(BeTrue())
		Expect(w.opened).To(BeFalse())
	})

	It("should keep each rotated file standalone across two rotations", func() {
		base := filepath.Join(GinkgoT().TempDir(), "trace.xml")

		w := NewWriter(true)
		w.SetDestinationFile(base)
		w.SetMaxRecordsPerFile(1)

		Expect(w.Open()).To(Succeed())
		Expect(w.WritePreamble()).To(Succeed())

		rec, rx := samplePacket(0)
		for i := 0; i < 3; i++ {
			Expect(w.WritePacket(CategoryCsma, rec, rx, "")).To(Succeed())
		}

		Expect(w.Close()).To(Succeed())

		for _, name := range []string{base, base + "-1", base + "-2"} {
			content, err := os.ReadFile(name)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(content)).To(ContainSubstring("<anim lp = \"1\">"))
			Expect(string(content)).To(HaveSuffix("</anim>\n"))
		}
	})
})
