// Package uploads stores product images.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the public path the stored files are served under.
const URLPrefix = "/uploads/"

type Storage interface {
	// Save stores r under a name derived from filename and returns its public URL.
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Local writes files into Dir.
type Local struct {
	Dir   string
	now   func() time.Time
	newID func() string
}

func NewLocal(dir string) *Local {
	return &Local{Dir: dir, now: time.Now, newID: uuid.NewString}
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName strips directories and anything outside [A-Za-z0-9._-].
func SafeName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	base = unsafeChars.ReplaceAllString(base, "_")
	base = strings.Trim(base, "._")
	if base == "" {
		return "upload"
	}
	return base
}

func (l *Local) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(l.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := fmt.Sprintf("%d_%s_%s", l.now().Unix(), l.newID(), SafeName(filename))
	f, err := os.OpenFile(filepath.Join(l.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return URLPrefix + name, nil
}
