package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skillet-sh/skillet/pkg/presenter"
	"github.com/skillet-sh/skillet/pkg/skills"
)

var skillsCmd = &cobra.Command{
	Use:   "skills",
	Short: "Discover and inspect installed skills",
}

var skillsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed skills",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		discovery, err := skills.NewDiscovery()
		if err != nil {
			return err
		}
		discovered, err := discovery.DiscoverSkills()
		if err != nil {
			return err
		}
		if len(discovered) == 0 {
			presenter.Info("No skills installed (looked in ./.skillet/skills and ~/.skillet/skills)")
			return nil
		}

		names, err := discovery.ListSkillNames()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintf(os.Stdout, "%s\t%s\n", name, discovered[name].Description)
		}
		return nil
	},
}

var skillsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a skill's instructions",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		discovery, err := skills.NewDiscovery()
		if err != nil {
			return err
		}
		skill, err := discovery.GetSkill(args[0])
		if err != nil {
			return err
		}
		presenter.Section(fmt.Sprintf("%s (%s)", skill.Name, skill.Directory))
		fmt.Fprintln(os.Stdout, skill.Content)
		return nil
	},
}

func init() {
	skillsCmd.AddCommand(skillsListCmd)
	skillsCmd.AddCommand(skillsShowCmd)
}
