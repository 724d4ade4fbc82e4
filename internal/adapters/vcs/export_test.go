package vcs

// NewGitForTest creates a Git working copy at dir using run.
func NewGitForTest(dir string, run Runner) *Git {
	return &Git{workingCopy{dir: dir, run: run}}
}

// NewMercurialForTest creates a Mercurial working copy at dir using run.
func NewMercurialForTest(dir string, run Runner) *Mercurial {
	return &Mercurial{workingCopy{dir: dir, run: run}}
}

// NewSubversionForTest creates a Subversion working copy at dir using run.
func NewSubversionForTest(dir string, run Runner) *Subversion {
	return &Subversion{workingCopy{dir: dir, run: run}}
}
