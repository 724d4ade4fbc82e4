package config

// SetGetenvForTest replaces the environment lookup used for token resolution.
func (l *Loader) SetGetenvForTest(getenv func(string) string) {
	l.getenv = getenv
}
