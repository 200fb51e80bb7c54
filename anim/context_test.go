package anim

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("NodeIDFromContext", func() {
	It("should extract the node id from a device path", func() {
		id, err := NodeIDFromContext("/NodeList/3/DeviceList/0/Phy")

		Expect(err).ToNot(HaveOccurred())
		Expect(id).To(Equal(NodeID(3)))
	})

	It("should accept a bare node path", func() {
		id, err := NodeIDFromContext("/NodeList/12")

		Expect(err).ToNot(HaveOccurred())
		Expect(id).To(Equal(NodeID(12)))
	})

	It("should reject a non-numeric node id", func() {
		_, err := NodeIDFromContext("/NodeList/seven/DeviceList/0")
		Expect(err).To(HaveOccurred())
	})

	It("should reject a path without a node list", func() {
		_, err := NodeIDFromContext("/ChannelList/0")
		Expect(err).To(HaveOccurred())
	})

	It("should reject a path ending at the node list", func() {
		_, err := NodeIDFromContext("/NodeList")
		Expect(err).To(HaveOccurred())
	})
})
