package session

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/matheus3301/wppbot/internal/config"
)

const DefaultSessionName = "main"

// ErrInvalidName is returned for names that cannot be used as a directory.
var ErrInvalidName = errors.New("invalid session name")

var namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Resolve picks the active session name and validates it. Precedence is the
// --session flag, then default_session from config.toml, then "main".
func Resolve(flagOverride string) (string, error) {
	name := flagOverride
	if name == "" {
		name = DefaultSessionName
		if cfg, err := config.Load(ConfigPath()); err == nil && cfg.DefaultSession != "" {
			name = cfg.DefaultSession
		}
	}
	if !namePattern.MatchString(name) {
		return "", fmt.Errorf("%w %q: use lowercase letters, digits, '-' or '_' (max 64)", ErrInvalidName, name)
	}
	return name, nil
}
