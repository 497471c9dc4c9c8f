package cmd

import (
	"errors"

	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/snap-generator/internal/domain/preset"
	"github.com/oshokin/snap-generator/internal/logger"
)

var (
	_ pflag.Value = (*policyValue)(nil)
	_ pflag.Value = (*levelValue)(nil)

	errUnknownLevel = errors.New("unknown log level")
)

// policyValue binds a conflict policy to a flag.
type policyValue struct {
	policy *preset.Policy
}

func (v *policyValue) String() string {
	if v.policy == nil {
		return ""
	}

	return string(*v.policy)
}

func (v *policyValue) Set(s string) error {
	policy, err := preset.ParsePolicy(s)
	if err != nil {
		return err
	}

	*v.policy = policy

	return nil
}

func (v *policyValue) Type() string {
	return "policy"
}

// levelValue binds a log level to a flag. The level is applied once flags are parsed.
type levelValue struct {
	level zapcore.Level
	set   bool
}

func (v *levelValue) String() string {
	if !v.set {
		return logger.Level().String()
	}

	return v.level.String()
}

func (v *levelValue) Set(s string) error {
	level, ok := logger.ParseLogLevel(s)
	if !ok {
		return errUnknownLevel
	}

	v.level, v.set = level, true

	return nil
}

func (v *levelValue) Type() string {
	return "level"
}

// apply sets the global log level if the flag was given.
func (v *levelValue) apply() {
	if v.set {
		logger.SetLevel(v.level)
	}
}
