package paths

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"badc0de.net/pkg/go-ascending/ttesting"
)

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "roots.pem"), []byte("x"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "maps"), 0o700); err != nil {
		t.Fatalf("creating dir: %v", err)
	}
	t.Setenv(EnvDataDir, dir)

	ttesting.AssertEqualString(t, "file", Find("roots.pem"), filepath.Join(dir, "roots.pem"))
	ttesting.AssertEqualString(t, "dir", Find("maps"), filepath.Join(dir, "maps"))
	ttesting.AssertEqualString(t, "missing", Find("no-such-file.bin"), "")

	f, err := Open("roots.pem")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	f.Close()
	_, err = Open("no-such-file.bin")
	ttesting.AssertErrorIs(t, "open missing", err, os.ErrNotExist)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var certs string
	SetupFilePathFlagSet(fs, "roots.pem", "certs_path", &certs)
	ttesting.AssertEqualString(t, "flag default", certs, filepath.Join(dir, "roots.pem"))
}
