package anim

import "fmt"

// A recordRenderer turns logical trace records into the on-the-wire text of
// one output format. Every method returns exactly one record, newline
// terminated.
type recordRenderer interface {
	Preamble() string
	AnimOpen(linkPathCount int) string
	AnimClose() string
	TopologyOpen(b Bounds) string
	TopologyClose() string
	Node(id NodeID, pos Vector, description string) string
	Link(from, to NodeID) string
	PacketOpen(rec PendingRecord) string
	WPacketOpen(rec PendingRecord) string
	Rx(rx RxRecord) string
	PacketClose(wireless bool) string
	Meta(info string) string
}

// xmlRenderer renders records as XML elements. Packet and wpacket elements
// stay open across their rx sub-records; everything else is self-closing.
type xmlRenderer struct{}

func (xmlRenderer) Preamble() string {
	return "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n" +
		"<!-- Generated by animtrace -->\n"
}

func (xmlRenderer) AnimOpen(linkPathCount int) string {
	return fmt.Sprintf("<anim lp = \"%d\">\n", linkPathCount)
}

func (xmlRenderer) AnimClose() string {
	return "</anim>\n"
}

func (xmlRenderer) TopologyOpen(b Bounds) string {
	return fmt.Sprintf(
		"<topology minX = \"%f\" minY = \"%f\" maxX = \"%f\" maxY = \"%f\">\n",
		b.MinX, b.MinY, b.MaxX, b.MaxY)
}

func (xmlRenderer) TopologyClose() string {
	return "</topology>\n"
}

func (xmlRenderer) Node(id NodeID, pos Vector, description string) string {
	if description == "" {
		return fmt.Sprintf(
			"<node lp = \"0\" id = \"%d\" locX = \"%f\" locY = \"%f\" />\n",
			id, pos.X, pos.Y)
	}

	return fmt.Sprintf(
		"<node lp = \"0\" id = \"%d\" locX = \"%f\" locY = \"%f\" "+
			"descr = \"%s\" />\n",
		id, pos.X, pos.Y, description)
}

func (xmlRenderer) Link(from, to NodeID) string {
	return fmt.Sprintf(
		"<link fromLp = \"0\" fromId = \"%d\" toLp = \"0\" toId = \"%d\" />\n",
		from, to)
}

func (xmlRenderer) PacketOpen(rec PendingRecord) string {
	if rec.AuxInfo == "" {
		return fmt.Sprintf(
			"<packet fromLp = \"0\" fromId = \"%d\" fbTx = \"%.9f\" "+
				"lbTx = \"%.9f\">\n",
			rec.FromNode, rec.FirstBitTxTime, rec.LastBitTxTime)
	}

	return fmt.Sprintf(
		"<packet fromLp = \"0\" fromId = \"%d\" fbTx = \"%.9f\" "+
			"lbTx = \"%.9f\" aux = \"%s\">\n",
		rec.FromNode, rec.FirstBitTxTime, rec.LastBitTxTime, rec.AuxInfo)
}

func (xmlRenderer) WPacketOpen(rec PendingRecord) string {
	return fmt.Sprintf(
		"<wpacket fromLp = \"0\" fromId = \"%d\" fbTx = \"%.9f\" "+
			"lbTx = \"%.9f\" range = \"%f\">\n",
		rec.FromNode, rec.FirstBitTxTime, rec.LastBitTxTime,
		rec.WirelessRange)
}

func (xmlRenderer) Rx(rx RxRecord) string {
	return fmt.Sprintf(
		"<rx toLp = \"0\" toId = \"%d\" fbRx = \"%.9f\" lbRx = \"%.9f\" />\n",
		rx.ToNode, rx.FirstBitRxTime, rx.LastBitRxTime)
}

func (xmlRenderer) PacketClose(wireless bool) string {
	if wireless {
		return "</wpacket>\n"
	}
	return "</packet>\n"
}

func (xmlRenderer) Meta(info string) string {
	return fmt.Sprintf("<meta info = \"%s\" />\n", info)
}

// plainRenderer renders records as dense single-letter prefixed lines:
//
//	A minX minY maxX maxY   topology bounds
//	N id x y [descr]        node
//	L from to               link
//	P fromId fbTx lbTx      packet transmit
//	W fromId fbTx lbTx rng  wireless packet transmit
//	R toId fbRx lbRx        receive
//	M info                  packet metadata
type plainRenderer struct{}

func (plainRenderer) Preamble() string {
	return "# animtrace\n"
}

func (plainRenderer) AnimOpen(linkPathCount int) string {
	return fmt.Sprintf("V %d\n", linkPathCount)
}

func (plainRenderer) AnimClose() string {
	return "E\n"
}

func (plainRenderer) TopologyOpen(b Bounds) string {
	return fmt.Sprintf("A %f %f %f %f\n", b.MinX, b.MinY, b.MaxX, b.MaxY)
}

func (plainRenderer) TopologyClose() string {
	return ""
}

func (plainRenderer) Node(id NodeID, pos Vector, description string) string {
	if description == "" {
		return fmt.Sprintf("N %d %f %f\n", id, pos.X, pos.Y)
	}
	return fmt.Sprintf("N %d %f %f %s\n", id, pos.X, pos.Y, description)
}

func (plainRenderer) Link(from, to NodeID) string {
	return fmt.Sprintf("L %d %d\n", from, to)
}

func (plainRenderer) PacketOpen(rec PendingRecord) string {
	return fmt.Sprintf("P %d %.9f %.9f\n",
		rec.FromNode, rec.FirstBitTxTime, rec.LastBitTxTime)
}

func (plainRenderer) WPacketOpen(rec PendingRecord) string {
	return fmt.Sprintf("W %d %.9f %.9f %f\n",
		rec.FromNode, rec.FirstBitTxTime, rec.LastBitTxTime,
		rec.WirelessRange)
}

func (plainRenderer) Rx(rx RxRecord) string {
	return fmt.Sprintf("R %d %.9f %.9f\n",
		rx.ToNode, rx.FirstBitRxTime, rx.LastBitRxTime)
}

func (plainRenderer) PacketClose(bool) string {
	return ""
}

func (plainRenderer) Meta(info string) string {
	return fmt.Sprintf("M %s\n", info)
}
