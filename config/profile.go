package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// FromTOML loads a deployment profile over the defaults. Keys absent from
// the file keep their default values; unknown keys are an error, catching
// typos before they silently disable a protection. When the profile names a
// personality, its presets are applied first so explicit keys in the same
// file win over the preset.
func FromTOML(path string) (*Config, error) {
	cfg := Default()

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unrecognized key %q", undecoded[0].String())
	}

	if meta.IsDefined("personality") {
		base := Default().WithPersonality(cfg.Personality)
		if _, err = toml.DecodeFile(path, base); err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}

		cfg = base
	}

	return cfg, nil
}

func (p *Personality) UnmarshalText(text []byte) error {
	name := string(text)
	for i, known := range personalities {
		if name == known {
			*p = Personality(i)
			return nil
		}
	}

	return fmt.Errorf("unknown personality: %q", name)
}

func (p *DecodePolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "preserve":
		*p = PreservePercent
	case "remove":
		*p = RemovePercent
	case "process":
		*p = ProcessInvalid
	default:
		return fmt.Errorf("unknown decode policy: %q", text)
	}

	return nil
}

func (p *CompressionPolicy) UnmarshalText(text []byte) error {
	switch string(text) {
	case "decode":
		*p = DecodeCompressed
	case "passthrough":
		*p = PassthroughCompressed
	case "reject":
		*p = RejectCompressed
	default:
		return fmt.Errorf("unknown compression policy: %q", text)
	}

	return nil
}
