package program

// SetLookPathForTest replaces the PATH lookup.
func (d *Detector) SetLookPathForTest(fn func(string) (string, error)) {
	d.lookPath = fn
}
