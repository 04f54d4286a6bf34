package cmd

import (
	"errors"
	"fmt"
)

func errConfigNotFound(cfgPath string) error {
	return fmt.Errorf("config does not exist: %s", cfgPath)
}

func errUnknownConfigKey(key string) error {
	return fmt.Errorf("unknown config key %q", key)
}

func errUnsupportedDBBackend(backend string) error {
	return fmt.Errorf("unsupported db backend %q, expected memdb or goleveldb", backend)
}

var (
	errBothJSONAndYAML   = errors.New("can't pass both --json and --yaml, must pick one")
	errFilesAndURL       = errors.New("expected either fixture files OR --url/-u, found both")
	errFixtureNotFetched = errors.New("fixture download failed")
)
