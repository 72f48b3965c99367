// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// commands.go - One-shot commands: views, go, where, history, config.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/util"
)

// =============================================================================
// VIEWS / GO / WHERE
// =============================================================================

// HandleViews lists every registered view in navigation order.
func HandleViews(args Args, w io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	fmt.Fprintln(w, TitleStyle.Render("Views"))
	fmt.Fprintln(w, util.PadRight("Name", 12)+" "+util.PadRight("Label", 14)+" "+util.PadRight("Module", 16)+" Notes")
	fmt.Fprintln(w, strings.Repeat("-", 56))
	for _, d := range reg.All() {
		var notes []string
		if d.Name == reg.DefaultViewName() {
			notes = append(notes, "default")
		}
		if !d.ShowInHeader {
			notes = append(notes, "hidden")
		}
		fmt.Fprintln(w, util.PadRight(util.TruncateWidth(d.Name, 12), 12)+" "+
			util.PadRight(util.TruncateWidth(d.Label, 14), 14)+" "+
			util.PadRight(d.ModulePath, 16)+" "+strings.Join(notes, ", "))
	}
	return nil
}

// HandleGo writes a view name to the location file, which a running shell
// with router.watch_location follows.
func HandleGo(args Args, w io.Writer) error {
	name := args.Parser.Subcommand()
	if name == "" {
		return ErrUsage("navshell go VIEW")
	}
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	desc, err := reg.Lookup(nav.ParseFragment(name))
	if err != nil {
		return &UnknownViewError{Name: name, Suggestion: Suggest(name, reg.Names()), Known: reg.Names()}
	}
	path := cfg.LocationPath()
	if path == "" {
		return errors.New("router.location_file is not set; running shells keep their location in memory")
	}
	if err := nav.WriteLocation(path, desc.Name); err != nil {
		return err
	}
	fmt.Fprintln(w, Success("Location set to "+nav.FormatFragment(desc.Name)))
	if !cfg.Router.WatchLocation {
		fmt.Fprintln(w, Warning("router.watch_location is off; running shells will not follow"))
	}
	return nil
}

// HandleWhere prints the location stored in the location file.
func HandleWhere(args Args, w io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	path := cfg.LocationPath()
	if path == "" {
		fmt.Fprintln(w, "Location is kept in memory (router.location_file is empty).")
		return nil
	}
	name := nav.NewFileFragment(path, nil).Get()
	switch {
	case name == "":
		fmt.Fprintf(w, "No location set; the default view %s opens.\n", reg.DefaultViewName())
	case !reg.Has(name):
		fmt.Fprintf(w, "%s (unknown view; the default view %s opens)\n", nav.FormatFragment(name), reg.DefaultViewName())
	default:
		fmt.Fprintln(w, nav.FormatFragment(name))
	}
	return nil
}

// =============================================================================
// HISTORY
// =============================================================================

const defaultHistoryLimit = 20

// HandleHistory lists, searches or prints stored conversations.
func HandleHistory(ctx context.Context, args Args, w io.Writer) error {
	cfg, err := LoadConfig(args)
	if err != nil {
		return err
	}
	st, err := storage.Open(cfg.DatabasePath())
	if err != nil {
		return err
	}
	defer st.Close()

	p := args.Parser
	if p.Subcommand() == "show" {
		id := p.Arg(1)
		if id == "" {
			return ErrUsage("navshell history show ID")
		}
		conv, err := resolveConversation(ctx, st, id)
		if err != nil {
			return err
		}
		msgs, err := st.Messages(ctx, conv.ID)
		if err != nil {
			return err
		}
		fmt.Fprint(w, storage.ExportMarkdown(conv, msgs))
		return nil
	}

	limit := p.Int("limit", defaultHistoryLimit)
	convs, err := st.Search(ctx, p.Text(0), limit)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, strings.TrimRight(storage.FormatConversationList(convs), "\n"))
	return nil
}

// resolveConversation accepts a full id or a unique prefix of one, as shown
// by the history listing.
func resolveConversation(ctx context.Context, st *storage.Store, id string) (*storage.Conversation, error) {
	conv, err := st.GetConversation(ctx, id)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, storage.ErrConversationNotFound) {
		return nil, err
	}
	all, err := st.ListConversations(ctx, 0)
	if err != nil {
		return nil, err
	}
	var match *storage.Conversation
	for i := range all {
		if strings.HasPrefix(all[i].ID, id) {
			if match != nil {
				return nil, fmt.Errorf("conversation id %q is ambiguous", id)
			}
			match = &all[i]
		}
	}
	if match == nil {
		return nil, storage.ErrConversationNotFound
	}
	return match, nil
}

// =============================================================================
// CONFIG
// =============================================================================

// HandleConfig implements config show|path|init|get|set|keys.
func HandleConfig(args Args, w io.Writer) error {
	p := args.Parser
	switch p.Subcommand() {
	case "", "show":
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		data, err := config.EncodeTOML(cfg.Redacted())
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err

	case "path":
		path, err := ConfigFilePath(args)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr != nil {
			fmt.Fprintf(w, "%s (not created yet)\n", path)
			return nil
		}
		fmt.Fprintln(w, path)
		return nil

	case "init":
		path, err := ConfigFilePath(args)
		if err != nil {
			return err
		}
		if _, statErr := os.Stat(path); statErr == nil && !p.Bool("force") {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := saveConfigFile(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintln(w, Success("Wrote "+path))
		return nil

	case "get":
		key := p.Arg(1)
		if key == "" {
			return ErrUsage("navshell config get KEY")
		}
		cfg, err := LoadConfig(args)
		if err != nil {
			return err
		}
		// SECURITY: secrets are never printed.
		val, err := cfg.Redacted().Get(key)
		if err != nil {
			return err
		}
		if list, ok := val.([]string); ok {
			val = strings.Join(list, ",")
		}
		fmt.Fprintln(w, val)
		return nil

	case "set":
		key, value := p.Arg(1), p.Text(2)
		if key == "" || p.NArg() < 3 {
			return ErrUsage("navshell config set KEY VALUE")
		}
		path, err := ConfigFilePath(args)
		if err != nil {
			return err
		}
		cfg, err := loadConfigFile(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(key, value); err != nil {
			return err
		}
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := saveConfigFile(cfg, path); err != nil {
			return err
		}
		fmt.Fprintln(w, Success(fmt.Sprintf("%s updated in %s", key, path)))
		return nil

	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(w, k)
		}
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (show, path, init, get, set, keys)", p.Subcommand())
	}
}

// loadConfigFile reads path over the defaults without environment
// overrides, so saving it back does not persist them.
func loadConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); err != nil {
		return cfg, nil
	}
	var err error
	if strings.HasSuffix(path, ".json") {
		err = config.LoadJSON(cfg, path)
	} else {
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Migrate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func saveConfigFile(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}
