package session

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOdbcinst(t *testing.T) {
	tests := []struct {
		name   string
		ini    string
		want   string
		wantOK bool
	}{
		{
			name:   "dm8 section",
			ini:    "[DM8 ODBC DRIVER]\nDescription = DM8 Driver\nDriver = /opt/dm/libdodbc.so\n",
			want:   "/opt/dm/libdodbc.so",
			wantOK: true,
		},
		{
			name:   "case insensitive",
			ini:    "[dm8 odbc driver]\nDRIVER64=/opt/dm/bin/libdodbc.so",
			want:   "/opt/dm/bin/libdodbc.so",
			wantOK: true,
		},
		{
			name: "other section ignored",
			ini:  "[PostgreSQL]\nDriver = /usr/lib/psqlodbcw.so\n[DM8 ODBC DRIVER]\nDescription = x\n",
		},
		{
			name: "empty",
			ini:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseOdbcinst(bufio.NewScanner(strings.NewReader(tt.ini)))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func fakeFinder(env map[string]string, files map[string]bool, iniDir string) driverFinder {
	return driverFinder{
		goos:    "linux",
		getenv:  func(k string) string { return env[k] },
		exists:  func(p string) bool { return files[p] },
		homeDir: func() (string, error) { return "/home/dm", nil },
		openFile: func(p string) (*os.File, error) {
			if iniDir == "" || filepath.Base(p) != ".odbcinst.ini" {
				return nil, errors.New("not found")
			}
			return os.Open(filepath.Join(iniDir, ".odbcinst.ini"))
		},
	}
}

func TestResolveDriverOrder(t *testing.T) {
	bundled := filepath.Join("drivers", "dm8", "libdodbc.so")
	parent := filepath.Join("..", "drivers", "dm8", "libdodbc.so")

	t.Run("env wins", func(t *testing.T) {
		f := fakeFinder(map[string]string{DriverPathEnv: " /opt/dm/libdodbc.so "},
			map[string]bool{"/opt/dm/libdodbc.so": true, bundled: true}, "")
		got := f.resolve()
		assert.Equal(t, ResolvedDriver{Driver: "/opt/dm/libdodbc.so", SearchDir: "/opt/dm", Source: DriverFromEnv}, got)
	})

	t.Run("missing env path falls through to bundled", func(t *testing.T) {
		f := fakeFinder(map[string]string{DriverPathEnv: "/missing/libdodbc.so"}, map[string]bool{bundled: true}, "")
		got := f.resolve()
		assert.Equal(t, DriverBundled, got.Source)
		assert.Equal(t, bundled, got.Driver)
	})

	t.Run("parent bundled directory", func(t *testing.T) {
		got := fakeFinder(nil, map[string]bool{parent: true}, "").resolve()
		assert.Equal(t, DriverBundled, got.Source)
		assert.Equal(t, parent, got.Driver)
	})

	t.Run("odbcinst in home", func(t *testing.T) {
		dir := t.TempDir()
		ini := "[DM8 ODBC DRIVER]\nDriver = /opt/dm/bin/libdodbc.so\n"
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".odbcinst.ini"), []byte(ini), 0o600))

		got := fakeFinder(nil, map[string]bool{"/opt/dm/bin/libdodbc.so": true}, dir).resolve()
		assert.Equal(t, ResolvedDriver{Driver: "/opt/dm/bin/libdodbc.so", SearchDir: "/opt/dm/bin", Source: DriverFromSystem}, got)
	})

	t.Run("registered name fallback", func(t *testing.T) {
		got := fakeFinder(nil, nil, "").resolve()
		assert.Equal(t, ResolvedDriver{Driver: RegisteredDriverName, Source: DriverFromRegistered}, got)
	})
}

func TestLibraryName(t *testing.T) {
	assert.Equal(t, "dmodbc.dll", driverFinder{goos: "windows"}.libraryName())
	assert.Equal(t, "libdodbc.so", driverFinder{goos: "linux"}.libraryName())
}

func TestPrependPath(t *testing.T) {
	sep := string(os.PathListSeparator)
	assert.Equal(t, "/opt/dm", prependPath("", "/opt/dm"))
	assert.Equal(t, "/opt/dm"+sep+"/usr/lib", prependPath("/usr/lib", "/opt/dm"))
	assert.Equal(t, "/usr/lib"+sep+"/opt/dm", prependPath("/usr/lib"+sep+"/opt/dm", "/opt/dm"))
}

func TestApplyDriverEnv(t *testing.T) {
	t.Setenv(DriverPathEnv, "")
	t.Setenv("LD_LIBRARY_PATH", "/usr/lib")
	t.Setenv("PATH", os.Getenv("PATH"))

	require.NoError(t, ApplyDriverEnv(ResolvedDriver{Driver: "/opt/dm/libdodbc.so", SearchDir: "/opt/dm"}))
	assert.Equal(t, "/opt/dm/libdodbc.so", os.Getenv(DriverPathEnv))

	require.NoError(t, ApplyDriverEnv(ResolvedDriver{Driver: RegisteredDriverName}))
	assert.Equal(t, "/opt/dm/libdodbc.so", os.Getenv(DriverPathEnv), "registered drivers leave the environment alone")
}
