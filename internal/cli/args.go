// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// args.go - Per-command flag tables and the parser that applies them.

package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// FLAG TABLES
// =============================================================================

// FlagSpec declares one flag a command accepts.
type FlagSpec struct {
	Name  string // long form, without dashes
	Short string // single-letter form, optional
	Bool  bool   // a switch; takes no value
	Int   bool   // the value must be a positive integer
	Usage string
}

// commandFlags lists the flags each command accepts. Global flags
// (--config, --view, --verbose) are stripped before these apply.
var commandFlags = map[Command][]FlagSpec{
	CmdServe: {
		{Name: "port", Short: "p", Int: true, Usage: "listen port (default: server.port)"},
	},
	CmdHistory: {
		{Name: "limit", Short: "n", Int: true, Usage: "show at most N conversations"},
	},
	CmdConfig: {
		{Name: "force", Short: "f", Bool: true, Usage: "overwrite an existing file on init"},
	},
	CmdPasswd: {
		{Name: "user", Short: "u", Usage: "username (prompted when omitted)"},
		{Name: "totp", Bool: true, Usage: "also enroll a TOTP second factor"},
	},
}

// FlagsFor returns the flags cmd accepts.
func FlagsFor(cmd Command) []FlagSpec {
	return commandFlags[cmd]
}

// =============================================================================
// ARG PARSER
// =============================================================================

// ArgParser holds the words after a command name, split into flags and
// positional arguments against the command's flag table. "--" ends flag
// parsing. Parse problems are kept in Err rather than returned, so a
// handler can decide when to report them.
type ArgParser struct {
	specs      []FlagSpec
	values     map[string]string
	switches   map[string]bool
	positional []string
	err        error
}

// NewArgParser parses raw against specs.
//
//	p := NewArgParser(FlagsFor(CmdHistory), []string{"show", "3f2a", "--limit=5"})
//	p.Subcommand()      // "show"
//	p.Arg(1)            // "3f2a"
//	p.Int("limit", 20)  // 5
func NewArgParser(specs []FlagSpec, raw []string) *ArgParser {
	p := &ArgParser{
		specs:    specs,
		values:   make(map[string]string),
		switches: make(map[string]bool),
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "--" {
			p.positional = append(p.positional, raw[i+1:]...)
			break
		}
		// "-" alone is a positional (stdin by convention).
		if len(arg) < 2 || arg[0] != '-' {
			p.positional = append(p.positional, arg)
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		spec, ok := p.lookup(name)
		if !ok {
			p.fail(badArgs("unknown flag %s", arg))
			continue
		}

		if spec.Bool {
			on := true
			if hasValue {
				b, err := strconv.ParseBool(value)
				if err != nil {
					p.fail(badArgs("--%s takes true or false, got %q", spec.Name, value))
					continue
				}
				on = b
			}
			p.switches[spec.Name] = on
			continue
		}

		if !hasValue {
			if i+1 >= len(raw) || strings.HasPrefix(raw[i+1], "-") {
				p.fail(badArgs("--%s needs a value", spec.Name))
				continue
			}
			i++
			value = raw[i]
		}
		if spec.Int {
			if _, err := ParseIntWithValidation(value, "--"+spec.Name); err != nil {
				p.fail(badArgs("%v", err))
				continue
			}
		}
		p.values[spec.Name] = value
	}
	return p
}

func (p *ArgParser) lookup(name string) (FlagSpec, bool) {
	for _, s := range p.specs {
		if name == s.Name || (s.Short != "" && name == s.Short) {
			return s, true
		}
	}
	return FlagSpec{}, false
}

// fail keeps the first parse error.
func (p *ArgParser) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// Err returns the first parse error, a *UsageError, or nil.
func (p *ArgParser) Err() error {
	return p.err
}

// Subcommand returns the first positional argument, e.g. "show" in
// "config show", or the view in "go About".
func (p *ArgParser) Subcommand() string {
	return p.Arg(0)
}

// Arg returns positional argument i, or "".
func (p *ArgParser) Arg(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return p.positional[i]
}

// NArg returns the number of positional arguments.
func (p *ArgParser) NArg() int {
	return len(p.positional)
}

// Text joins the positional arguments from index i, e.g. the search query
// in "history error in production".
func (p *ArgParser) Text(i int) string {
	if i < 0 || i >= len(p.positional) {
		return ""
	}
	return strings.Join(p.positional[i:], " ")
}

// Value returns a string flag's value, or "".
func (p *ArgParser) Value(name string) string {
	return p.values[name]
}

// Int returns an integer flag's value, or def when it was not given.
// Values were validated during parsing.
func (p *ArgParser) Int(name string, def int) int {
	v, ok := p.values[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool reports whether a switch is on.
func (p *ArgParser) Bool(name string) bool {
	return p.switches[name]
}

// =============================================================================
// HELPERS
// =============================================================================

// ParseIntWithValidation parses an integer from a string and validates it's positive.
func ParseIntWithValidation(s string, fieldName string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("%s is required", fieldName)
	}

	val, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", fieldName, err)
	}

	if val <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %d", fieldName, val)
	}

	return val, nil
}

// flagUsage renders a command's flags for help text.
func flagUsage(cmd Command) string {
	var b strings.Builder
	for _, s := range FlagsFor(cmd) {
		name := "--" + s.Name
		if s.Short != "" {
			name = "-" + s.Short + ", " + name
		}
		switch {
		case s.Int:
			name += " N"
		case !s.Bool:
			name += " VALUE"
		}
		fmt.Fprintf(&b, "    %-24s %s\n", name, s.Usage)
	}
	return b.String()
}
