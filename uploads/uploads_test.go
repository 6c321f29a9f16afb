package uploads

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	assert.Equal(t, "passwd", SafeName("../../etc/passwd"))
	assert.Equal(t, "my_pizza.png", SafeName("my pizza.png"))
	assert.Equal(t, "evil.jpg", SafeName(`C:\tmp\evil.jpg`))
	assert.Equal(t, "upload", SafeName(".."))
}

func TestLocalSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "img")
	store := NewLocal(dir)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }
	store.newID = func() string { return "abc" }

	url, err := store.Save(context.Background(), "pizza.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000_abc_pizza.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "1700000000_abc_pizza.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestLocalSaveSameNameSameSecond(t *testing.T) {
	dir := t.TempDir()
	store := NewLocal(dir)
	store.now = func() time.Time { return time.Unix(1700000000, 0) }

	first, err := store.Save(context.Background(), "image.jpg", strings.NewReader("product-A"))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), "image.jpg", strings.NewReader("product-B"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	a, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(first, URLPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "product-A", string(a))
	b, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(second, URLPrefix)))
	require.NoError(t, err)
	assert.Equal(t, "product-B", string(b))
}
