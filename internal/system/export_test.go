package system

func (sdr *SystemDiagnosticsRunner) SetGeteuid(f func() int) {
	sdr.geteuid = f
}
