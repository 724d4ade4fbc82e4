package worker

// NewSpawnerForTest runs executable with a fixed argument list instead of the prov binary.
func NewSpawnerForTest(executable string, args ...string) *Spawner {
	return &Spawner{
		executablePath: executable,
		args:           func(string) []string { return args },
	}
}
