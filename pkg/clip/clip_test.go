package clip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteConcatList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "concat.txt")

	require.NoError(t, writeConcatList(listPath, []string{"a.wav", "b.wav", "c.wav"}))

	content, err := os.ReadFile(listPath)
	require.NoError(t, err)
	assert.Equal(t, "file 'a.wav'\nfile 'b.wav'\nfile 'c.wav'\n", string(content))
}

func TestChannelLayout(t *testing.T) {
	assert.Equal(t, "mono", channelLayout(1))
	assert.Equal(t, "stereo", channelLayout(2))
}

func TestProduce_NoRangesIsError(t *testing.T) {
	p := New()
	_, err := p.Produce([]byte("audio"), nil, 500)
	assert.Error(t, err)
}
