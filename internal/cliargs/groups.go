package cliargs

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	// DefaultOptionalName is the heading of flags that belong to no other
	// group.
	DefaultOptionalName = "optional arguments"

	// RequiredName is the heading used by RequiredGroup.
	RequiredName = "required arguments"

	// groupAnnotation marks the group a flag belongs to.
	groupAnnotation = "cliargs_group"

	// Command annotations holding the group order and the optional group's
	// heading.
	orderAnnotation    = "cliargs_group_order"
	optionalAnnotation = "cliargs_optional_group"
)

// Group is a named set of flags of one command, shown under its own heading
// in usage output.
type Group struct {
	Name string
	cmd  *cobra.Command
}

// Add moves the named flags of the command into the group. Unknown names
// panic, like cobra's Mark* helpers do for programming errors.
func (g *Group) Add(names ...string) *Group {
	for _, name := range names {
		if g.Name == optionalName(g.cmd) {
			g.removeAnnotation(name)
			continue
		}
		if err := g.cmd.Flags().SetAnnotation(name, groupAnnotation, []string{g.Name}); err != nil {
			panic(fmt.Sprintf("cliargs: %v", err))
		}
	}
	return g
}

// AddRequired adds the named flags to the group and marks them required.
func (g *Group) AddRequired(names ...string) *Group {
	g.Add(names...)
	for _, name := range names {
		if err := g.cmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("cliargs: %v", err))
		}
	}
	return g
}

// Flags returns the group's local flags in definition order.
func (g *Group) Flags() []*pflag.Flag {
	var flags []*pflag.Flag
	optional := optionalName(g.cmd)
	g.cmd.LocalFlags().VisitAll(func(f *pflag.Flag) {
		if flagGroup(f, optional) == g.Name {
			flags = append(flags, f)
		}
	})
	return flags
}

func (g *Group) removeAnnotation(name string) {
	f := g.cmd.Flags().Lookup(name)
	if f == nil {
		panic(fmt.Sprintf("cliargs: flag %q does not exist", name))
	}
	delete(f.Annotations, groupAnnotation)
}

// ArgGroups returns the groups with the given names, creating missing ones.
// Afterwards the command's groups are ordered as given, followed by any
// other existing groups, with the optional group always last.
//
// It also installs the grouped usage function on cmd.
func ArgGroups(cmd *cobra.Command, names ...string) map[string]*Group {
	optional := optionalName(cmd)

	order := make([]string, 0, len(names))
	for _, name := range names {
		if name != optional && !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	for _, name := range groupOrder(cmd) {
		if name != optional && !slices.Contains(order, name) {
			order = append(order, name)
		}
	}
	setGroupOrder(cmd, append(order, optional))

	groups := make(map[string]*Group, len(names))
	for _, name := range names {
		groups[name] = &Group{Name: name, cmd: cmd}
	}
	cmd.SetUsageFunc(UsageFunc)
	return groups
}

// RequiredGroup returns the "required arguments" group, placed right before
// the optional group.
func RequiredGroup(cmd *cobra.Command) *Group {
	optional := optionalName(cmd)
	order := slices.DeleteFunc(groupOrder(cmd), func(name string) bool {
		return name == RequiredName || name == optional
	})
	return ArgGroups(cmd, append(order, RequiredName)...)[RequiredName]
}

// OptionalGroup returns the group holding every flag not assigned
// elsewhere.
func OptionalGroup(cmd *cobra.Command) *Group {
	name := optionalName(cmd)
	return ArgGroups(cmd, name)[name]
}

// SetOptionalGroupName renames the optional group of cmd, e.g. to
// "options".
func SetOptionalGroupName(cmd *cobra.Command, name string) {
	previous := optionalName(cmd)
	order := groupOrder(cmd)
	for i, n := range order {
		if n == previous {
			order[i] = name
		}
	}
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[optionalAnnotation] = name
	setGroupOrder(cmd, order)
}

func optionalName(cmd *cobra.Command) string {
	if name, ok := cmd.Annotations[optionalAnnotation]; ok {
		return name
	}
	return DefaultOptionalName
}

func groupOrder(cmd *cobra.Command) []string {
	order, ok := cmd.Annotations[orderAnnotation]
	if !ok || order == "" {
		return nil
	}
	return strings.Split(order, "\n")
}

func setGroupOrder(cmd *cobra.Command, order []string) {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[orderAnnotation] = strings.Join(order, "\n")
}

func flagGroup(f *pflag.Flag, optional string) string {
	if names := f.Annotations[groupAnnotation]; len(names) > 0 {
		return names[0]
	}
	return optional
}

// UsageFunc prints the usage line, subcommands and flags of c, with local
// flags listed under their group headings. Inherited flags come last under
// "global arguments".
func UsageFunc(c *cobra.Command) error {
	return writeUsage(c.OutOrStderr(), c)
}

func writeUsage(w io.Writer, c *cobra.Command) error {
	var b strings.Builder

	b.WriteString("Usage:\n")
	if c.Runnable() {
		fmt.Fprintf(&b, "  %s\n", c.UseLine())
	}
	if c.HasAvailableSubCommands() {
		fmt.Fprintf(&b, "  %s [command]\n", c.CommandPath())
	}

	if c.HasAvailableSubCommands() {
		b.WriteString("\nAvailable Commands:\n")
		for _, sub := range c.Commands() {
			if sub.IsAvailableCommand() || sub.Name() == "help" {
				fmt.Fprintf(&b, "  %-*s %s\n", sub.NamePadding(), sub.Name(), sub.Short)
			}
		}
	}

	optional := optionalName(c)
	order := groupOrder(c)
	if !slices.Contains(order, optional) {
		order = append(order, optional)
	}

	local := c.LocalFlags()
	for _, name := range order {
		set := pflag.NewFlagSet(name, pflag.ContinueOnError)
		local.VisitAll(func(f *pflag.Flag) {
			if !f.Hidden && flagGroup(f, optional) == name {
				set.AddFlag(f)
			}
		})
		if set.HasFlags() {
			fmt.Fprintf(&b, "\n%s:\n%s", name, set.FlagUsages())
		}
	}

	// Flags assigned to a group that was never ordered would otherwise be
	// dropped from the listing.
	stray := pflag.NewFlagSet("stray", pflag.ContinueOnError)
	local.VisitAll(func(f *pflag.Flag) {
		if !f.Hidden && !slices.Contains(order, flagGroup(f, optional)) {
			stray.AddFlag(f)
		}
	})
	if stray.HasFlags() {
		fmt.Fprintf(&b, "\nother arguments:\n%s", stray.FlagUsages())
	}

	if c.HasAvailableInheritedFlags() {
		fmt.Fprintf(&b, "\nglobal arguments:\n%s", c.InheritedFlags().FlagUsages())
	}

	if c.HasAvailableSubCommands() {
		fmt.Fprintf(&b, "\nUse \"%s [command] --help\" for more information about a command.\n", c.CommandPath())
	}

	_, err := io.WriteString(w, b.String())
	return err
}
