package version

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	original := Version
	originalCommit := GitCommit
	t.Cleanup(func() {
		Version = original
		GitCommit = originalCommit
	})

	Version = "v1.2.3"
	GitCommit = "0123456789abcdef"

	info := Get()

	assert.Equal(t, "v1.2.3", info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Contains(t, info.String(), "crmbridge v1.2.3 (0123456)")
}

func TestGetVersion_Fallback(t *testing.T) {
	original := Version
	t.Cleanup(func() { Version = original })

	Version = ""

	assert.NotEmpty(t, GetVersion())
}
