package profile

import "github.com/matheus3301/wppbridge/internal/config"

// DefaultName is used when neither a flag nor the global config names a
// profile.
const DefaultName = "main"

// Resolve determines the active profile using precedence:
// 1. flagOverride (--profile flag)
// 2. global config.toml default_profile
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	g, err := config.LoadGlobal(GlobalConfigPath())
	if err == nil && g.DefaultProfile != "" {
		return g.DefaultProfile
	}
	return DefaultName
}
