package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/mkessel/flowscribe/pkg/emit"
	"github.com/mkessel/flowscribe/pkg/export"
)

// Profile is a reusable export configuration stored as TOML. Teams commit a
// profile per shipping target so every export of a flow uses the same
// settings:
//
//	targets = ["ink", "yarn"]
//	locales = ["de", "fr"]
//	metadata = true
//	strings = true
//
//	[lossy]
//	strip_rich_text = true
//	flatten_multi_select = true
type Profile struct {
	Targets        []string          `toml:"targets"`
	BaseName       string            `toml:"base_name"`
	Locales        []string          `toml:"locales"`
	Metadata       bool              `toml:"metadata"`
	Strings        bool              `toml:"strings"`
	StrictCoverage bool              `toml:"strict_coverage"`
	Lossy          emit.LossyOptions `toml:"lossy"`
}

// loadProfile reads an export profile from a TOML file. Unknown keys are an
// error so typos fail loudly instead of silently exporting with defaults.
func loadProfile(path string) (*Profile, error) {
	var p Profile
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("load profile %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("profile %s: unknown key %q", path, undecoded[0].String())
	}
	return &p, nil
}

// apply copies the profile into export options. Flags set on the command
// line afterwards take precedence, so apply runs before flag overrides.
func (p *Profile) apply(opts *export.Options) {
	if len(p.Targets) > 0 {
		opts.Targets = p.Targets
	}
	if p.BaseName != "" {
		opts.BaseName = p.BaseName
	}
	if len(p.Locales) > 0 {
		opts.Locales = p.Locales
	}
	if p.Metadata {
		opts.Metadata = true
	}
	if p.Strings {
		opts.Strings = true
	}
	if p.StrictCoverage {
		opts.StrictCoverage = true
	}
	if p.Lossy.StripRichText {
		opts.Lossy.StripRichText = true
	}
	if p.Lossy.FlattenMultiSelect {
		opts.Lossy.FlattenMultiSelect = true
	}
}
