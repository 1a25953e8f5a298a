package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up in ./ and $HOME/.clinicsite.
const DefaultFileName = "clinicsite.yaml"

const mask = "********"

// Settings returns v's effective settings as a nested map ready for YAML:
// durations are rendered as strings and, when maskSecrets is set, secret
// values are replaced.
func Settings(v *viper.Viper, maskSecrets bool) map[string]any {
	out := map[string]any{}
	keys := v.AllKeys()
	sort.Strings(keys)
	for _, key := range keys {
		val := v.Get(key)
		if d, ok := val.(time.Duration); ok {
			val = d.String()
		}
		if maskSecrets && secretKeys[key] {
			if s, ok := val.(string); ok && s != "" {
				val = mask
			}
		}
		setNested(out, strings.Split(key, "."), val)
	}
	return out
}

func setNested(m map[string]any, path []string, val any) {
	for _, p := range path[:len(path)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[path[len(path)-1]] = val
}

// MarshalYAML renders settings as a YAML document.
func MarshalYAML(settings map[string]any) ([]byte, error) {
	out, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return out, nil
}

// WriteDefaultFile writes the default configuration to path. It refuses to
// overwrite an existing file unless force is set.
func WriteDefaultFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}

	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	body, err := MarshalYAML(Settings(v, false))
	if err != nil {
		return err
	}

	header := "# clinicsite configuration\n" +
		"# Every key can be overridden with CLINIC_<SECTION>_<KEY>, e.g. CLINIC_AUTH_JWT_SECRET.\n" +
		"# Keep secrets (auth.jwt_secret, captcha.secret, content.token) in the environment.\n\n"
	if err := os.WriteFile(path, append([]byte(header), body...), 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
