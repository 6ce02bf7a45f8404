package wire

import "strconv"

func portAddr(port int) string {
	return ":" + strconv.Itoa(port)
}
