package security

// SetGeteuid подменяет uid на время теста
func SetGeteuid(f func() int) (restore func()) {
	old := geteuid
	geteuid = f

	return func() { geteuid = old }
}
