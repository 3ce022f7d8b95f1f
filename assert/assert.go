package assert

// Assert panics with message, or a generic one, when condition is false.
func Assert(condition bool, message ...string) {
	if condition {
		return
	}
	if len(message) > 0 {
		panic(message[0])
	}
	panic("assertion failed")
}
