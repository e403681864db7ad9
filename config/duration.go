package config

import (
	"fmt"
	"time"
)

// Duration 可从配置文本解析的时长
//
// YAML/JSON 中写 "500ms"、"1s" 等 time.ParseDuration 接受的形式。
type Duration time.Duration

// Duration 转换为 time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// String 返回时长文本
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalYAML 实现 yaml.Marshaler
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML 实现 yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
