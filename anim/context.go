package anim

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeIDFromContext extracts the node ID from a trace context path of the
// form "/NodeList/<id>/DeviceList/<n>/...". Trace sources identify the
// originating device with such a path.
func NodeIDFromContext(context string) (NodeID, error) {
	elements := strings.Split(context, "/")

	for i, element := range elements {
		if element != "NodeList" {
			continue
		}

		if i+1 >= len(elements) {
			break
		}

		id, err := strconv.ParseUint(elements[i+1], 10, 32)
		if err != nil {
			return 0, fmt.Errorf(
				"malformed node id in context %q: %v", context, err)
		}

		return NodeID(id), nil
	}

	return 0, fmt.Errorf("no node id in context %q", context)
}
