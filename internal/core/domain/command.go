package domain

// Command is the process launched for a monitored run.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// Argv returns the full argument vector.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}
