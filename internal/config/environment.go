// SPDX-License-Identifier: MPL-2.0

package config

import (
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every wheelwright environment override.
	EnvPrefix = "WHEELWRIGHT"

	// SourceDateEpochEnv is the standard reproducible-builds timestamp override.
	SourceDateEpochEnv = "SOURCE_DATE_EPOCH"

	// DefaultSourceDateEpoch is used when SOURCE_DATE_EPOCH is unset
	// (2020-02-02T00:00:00Z).
	DefaultSourceDateEpoch int64 = 1580601600
)

const (
	keySourceDateEpoch = "source_date_epoch"
	keyLocation        = "build.location"
	keyClean           = "build.clean"
	keyCleanHooksAfter = "build.clean_hooks_after"
	keyHooksOnly       = "build.hooks_only"
	keyNoHooks         = "build.no_hooks"
	keyHooksEnable     = "build.hooks_enable"
	keyHookEnable      = "build.hook_enable."
)

// Environment holds the build-affecting environment overrides.
//
// The zero value means "nothing overridden" except SourceDateEpoch, for which
// NewEnvironment or LoadEnvironment should be used to obtain the default.
type Environment struct {
	// SourceDateEpoch is the timestamp applied to every entry of a reproducible archive.
	SourceDateEpoch int64
	// BuildLocation overrides the output directory (WHEELWRIGHT_BUILD_LOCATION).
	BuildLocation string
	// Clean removes previous artifacts before building (WHEELWRIGHT_BUILD_CLEAN).
	Clean bool
	// CleanHooksAfter runs hook clean callbacks after each version (WHEELWRIGHT_BUILD_CLEAN_HOOKS_AFTER).
	CleanHooksAfter bool
	// HooksOnly runs hooks without producing artifacts (WHEELWRIGHT_BUILD_HOOKS_ONLY).
	HooksOnly bool
	// NoHooks disables every build hook (WHEELWRIGHT_BUILD_NO_HOOKS).
	NoHooks bool
	// HooksEnable force-enables every build hook (WHEELWRIGHT_BUILD_HOOKS_ENABLE).
	HooksEnable bool

	hookEnable func(name string) bool
}

// NewEnvironment returns an Environment with defaults and no overrides.
func NewEnvironment() *Environment {
	return &Environment{SourceDateEpoch: DefaultSourceDateEpoch}
}

// LoadEnvironment reads overrides from the process environment.
func LoadEnvironment() (*Environment, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv(keySourceDateEpoch, SourceDateEpochEnv); err != nil {
		return nil, err
	}
	v.SetDefault(keySourceDateEpoch, strconv.FormatInt(DefaultSourceDateEpoch, 10))

	epoch, err := parseEpoch(v.GetString(keySourceDateEpoch))
	if err != nil {
		return nil, err
	}

	return &Environment{
		SourceDateEpoch: epoch,
		BuildLocation:   v.GetString(keyLocation),
		Clean:           v.GetBool(keyClean),
		CleanHooksAfter: v.GetBool(keyCleanHooksAfter),
		HooksOnly:       v.GetBool(keyHooksOnly),
		NoHooks:         v.GetBool(keyNoHooks),
		HooksEnable:     v.GetBool(keyHooksEnable),
		hookEnable: func(name string) bool {
			return v.GetBool(keyHookEnable + strings.ToLower(name))
		},
	}, nil
}

func parseEpoch(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultSourceDateEpoch, nil
	}
	epoch, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || epoch < 0 {
		return 0, Errorf(SourceDateEpochEnv, 0, "environment variable `%s` must be a non-negative integer, got %q",
			SourceDateEpochEnv, raw)
	}
	return epoch, nil
}

// HooksDisabled reports whether every build hook is disabled.
func (e *Environment) HooksDisabled() bool { return e != nil && e.NoHooks }

// AllHooksEnabled reports whether every build hook is force-enabled.
func (e *Environment) AllHooksEnabled() bool { return e != nil && e.HooksEnable }

// HookEnabled reports whether the named hook is force-enabled through
// WHEELWRIGHT_BUILD_HOOK_ENABLE_<NAME>.
func (e *Environment) HookEnabled(name string) bool {
	if e == nil || e.hookEnable == nil {
		return false
	}
	return e.hookEnable(name)
}

// WithHookEnabled returns a copy of e whose HookEnabled reports true for the
// given names in addition to any environment overrides.
func (e *Environment) WithHookEnabled(names ...string) *Environment {
	cp := *e
	prev := e.hookEnable
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	cp.hookEnable = func(name string) bool {
		if set[strings.ToLower(name)] {
			return true
		}
		return prev != nil && prev(name)
	}
	return &cp
}
