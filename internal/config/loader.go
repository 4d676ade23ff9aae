package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-ini/ini"
)

// DefaultName is the name of the configuration file that Loader looks for.
const DefaultName = ".xwalk"

// Loader can be used for loading .xwalk configuration as well as overridden with default settings.
type Loader struct {
	// Profile is the AWS profile to use, taking precedence over the profile from the [s3] section.
	Profile string

	// Name overrides DefaultName.
	Name string

	cfg           *ini.File
	s3clientCache sync.Map
}

// Load will traverse the directory hierarchy upwards to find the first ".xwalk" file available and load its contents
// into the Loader.
//
// The name of the .xwalk file is returned, or an empty string if there was none. Directories named .xwalk are skipped.
func (l *Loader) Load(ctx context.Context) (string, error) {
	name := l.Name
	if name == "" {
		name = DefaultName
	}

	cur, err := os.Getwd()
	if err != nil {
		return "", err
	}

	var path string
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		path = filepath.Join(cur, name)

		fi, err := os.Stat(path)
		if err == nil && !fi.IsDir() {
			break
		}
		if err != nil && !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(cur)
		if parent == cur || parent == "." {
			return "", nil
		}

		cur = parent
	}

	return path, l.LoadFile(path)
}

// LoadFile loads the given ini file directly.
//
// On error, the Loader is reset to an empty configuration.
func (l *Loader) LoadFile(path string) (err error) {
	if l.cfg, err = ini.Load(path); err != nil {
		l.cfg = ini.Empty()
		return err
	}

	return nil
}

// LoadProfile is a convenient method to set Loader.Profile then call Load.
func (l *Loader) LoadProfile(ctx context.Context, profile string) (string, error) {
	l.Profile = profile
	return l.Load(ctx)
}

func (l *Loader) file() *ini.File {
	if l.cfg == nil {
		l.cfg = ini.Empty()
	}

	return l.cfg
}

// DefaultLoader is the default Loader instance for package-level methods.
var DefaultLoader = &Loader{cfg: ini.Empty()}

// Load calls Loader.Load on the DefaultLoader instance.
func Load(ctx context.Context) (string, error) {
	return DefaultLoader.Load(ctx)
}

// LoadProfile calls Loader.LoadProfile on the DefaultLoader instance.
func LoadProfile(ctx context.Context, profile string) (string, error) {
	return DefaultLoader.LoadProfile(ctx, profile)
}
