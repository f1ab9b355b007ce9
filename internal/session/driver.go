package session

import (
	"bufio"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// RegisteredDriverName is the name the DM8 installer registers with the
// ODBC driver manager.
const RegisteredDriverName = "DM8 ODBC DRIVER"

// DriverPathEnv overrides driver discovery with an explicit library path.
const DriverPathEnv = "DM8_DRIVER_PATH"

// DriverSource records where a driver was found.
type DriverSource string

const (
	DriverFromEnv        DriverSource = "env"
	DriverBundled        DriverSource = "bundled"
	DriverFromSystem     DriverSource = "system"
	DriverFromRegistered DriverSource = "registered"
)

// ResolvedDriver is the DRIVER value of the connection string plus the
// directory the library loads its dependencies from.
type ResolvedDriver struct {
	Driver    string       `json:"driver"`
	SearchDir string       `json:"search_dir,omitempty"`
	Source    DriverSource `json:"source"`
}

// driverFinder abstracts the process environment so discovery is testable.
type driverFinder struct {
	goos     string
	getenv   func(string) string
	exists   func(string) bool
	homeDir  func() (string, error)
	openFile func(string) (*os.File, error)
}

func defaultFinder() driverFinder {
	return driverFinder{
		goos:   runtime.GOOS,
		getenv: os.Getenv,
		exists: func(p string) bool {
			info, err := os.Stat(p)
			return err == nil && !info.IsDir()
		},
		homeDir:  os.UserHomeDir,
		openFile: os.Open,
	}
}

// ResolveDriver locates the DM8 ODBC driver: DM8_DRIVER_PATH, then a bundled
// drivers/dm8 library relative to the working directory, then the DM8
// section of odbcinst.ini, and finally the registered driver name.
func ResolveDriver() ResolvedDriver {
	return defaultFinder().resolve()
}

func (f driverFinder) libraryName() string {
	if f.goos == "windows" {
		return "dmodbc.dll"
	}
	return "libdodbc.so"
}

func (f driverFinder) resolve() ResolvedDriver {
	if p := strings.TrimSpace(f.getenv(DriverPathEnv)); p != "" && f.exists(p) {
		return ResolvedDriver{Driver: p, SearchDir: filepath.Dir(p), Source: DriverFromEnv}
	}

	lib := f.libraryName()
	for _, candidate := range []string{
		filepath.Join("drivers", "dm8", lib),
		filepath.Join("..", "drivers", "dm8", lib),
	} {
		if f.exists(candidate) {
			return ResolvedDriver{Driver: candidate, SearchDir: filepath.Dir(candidate), Source: DriverBundled}
		}
	}

	if f.goos != "windows" {
		for _, ini := range f.odbcinstPaths() {
			p, ok := f.driverFromIni(ini)
			if ok && filepath.Base(p) == lib && f.exists(p) {
				return ResolvedDriver{Driver: p, SearchDir: filepath.Dir(p), Source: DriverFromSystem}
			}
		}
	}

	return ResolvedDriver{Driver: RegisteredDriverName, Source: DriverFromRegistered}
}

func (f driverFinder) odbcinstPaths() []string {
	paths := []string{"/etc/odbcinst.ini"}
	if home, err := f.homeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".odbcinst.ini"))
	}
	return paths
}

func (f driverFinder) driverFromIni(path string) (string, bool) {
	file, err := f.openFile(path)
	if err != nil {
		return "", false
	}
	defer file.Close()
	return parseOdbcinst(bufio.NewScanner(file))
}

// parseOdbcinst returns the first driver* key of the [DM8 ODBC DRIVER]
// section. Section and key names are case-insensitive.
func parseOdbcinst(sc *bufio.Scanner) (string, bool) {
	section := ""
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.ToLower(strings.Trim(line, "[]"))
			continue
		}
		if section != strings.ToLower(RegisteredDriverName) {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(key)), "driver") {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

// ApplyDriverEnv exports DM8_DRIVER_PATH and prepends the driver directory
// to the dynamic loader search path so the library's dependencies resolve.
func ApplyDriverEnv(d ResolvedDriver) error {
	if d.SearchDir == "" {
		return nil
	}
	if err := os.Setenv(DriverPathEnv, d.Driver); err != nil {
		return err
	}

	pathVar := "LD_LIBRARY_PATH"
	if runtime.GOOS == "windows" {
		pathVar = "PATH"
	}
	return os.Setenv(pathVar, prependPath(os.Getenv(pathVar), d.SearchDir))
}

func prependPath(current, dir string) string {
	if current == "" {
		return dir
	}
	for _, p := range filepath.SplitList(current) {
		if p == dir {
			return current
		}
	}
	return dir + string(os.PathListSeparator) + current
}
