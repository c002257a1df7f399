package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-dynaprompt"
)

func newWildcardsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameWildcards,
		Short: "Manage wildcards in the configured store",
	}
	cmd.AddCommand(
		newWildcardsListCmd(c),
		newWildcardsShowCmd(c),
		newWildcardsAddCmd(c),
		newWildcardsRemoveCmd(c),
	)
	return cmd
}

func newWildcardsListCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameList,
		Short: "List wildcards",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			query := &dynaprompt.WildcardQuery{}
			query.Category, _ = cmd.Flags().GetString(FlagCategory)
			query.NamePrefix, _ = cmd.Flags().GetString(FlagPrefix)
			query.SharedOnly, _ = cmd.Flags().GetBool(FlagShared)
			query.Limit, _ = cmd.Flags().GetInt(FlagLimit)
			query.Offset, _ = cmd.Flags().GetInt(FlagOffset)

			defs, err := store.List(cmd.Context(), query)
			if err != nil {
				return runtimeError(ErrMsgStoreFailed, err)
			}

			if c.jsonOutput() {
				return c.writeJSON(defs)
			}
			for _, d := range defs {
				if d.Category != "" {
					fmt.Fprintf(c.stdout, FmtWildcardCatLine, d.Tag(), len(d.Entries), d.Category)
					continue
				}
				fmt.Fprintf(c.stdout, FmtWildcardLine, d.Tag(), len(d.Entries))
			}
			return nil
		},
	}
	cmd.Flags().String(FlagCategory, "", "only this category")
	cmd.Flags().String(FlagPrefix, "", "only names with this prefix")
	cmd.Flags().Bool(FlagShared, false, "only shared wildcards")
	cmd.Flags().Int(FlagLimit, 0, "maximum results (0 = all)")
	cmd.Flags().Int(FlagOffset, 0, "results to skip")
	return cmd
}

func newWildcardsShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameShow + " <name>",
		Short: "Print the entries of a wildcard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			def, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return storeError(err)
			}

			if c.jsonOutput() {
				return c.writeJSON(def)
			}
			for _, e := range def.Entries {
				fmt.Fprintln(c.stdout, e)
			}
			return nil
		},
	}
}

func newWildcardsAddCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameAdd + " <name> [entries...]",
		Short: "Create or replace a wildcard",
		Example: `  dynaprompt wildcards add hero knight wizard rogue
  dynaprompt wildcards add city --category places --file cities.txt`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries := args[1:]
			if file, _ := cmd.Flags().GetString(FlagFile); file != "" {
				data, err := readInput(file, c.stdin)
				if err != nil {
					return err
				}
				entries = append(entries, dynaprompt.ParseWildcardContent(string(data))...)
			}
			if len(entries) == 0 {
				return usageError(ErrMsgWildcardEntriesReq, nil)
			}

			def := &dynaprompt.WildcardDefinition{Name: args[0], Entries: entries}
			def.Category, _ = cmd.Flags().GetString(FlagCategory)
			def.Description, _ = cmd.Flags().GetString(FlagDescription)
			def.Shared, _ = cmd.Flags().GetBool(FlagShared)

			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Save(cmd.Context(), def); err != nil {
				return storeError(err)
			}

			if c.jsonOutput() {
				return c.writeJSON(def)
			}
			fmt.Fprintf(c.stdout, FmtSavedLine, def.Tag(), len(def.Entries))
			return nil
		},
	}
	cmd.Flags().StringP(FlagFile, FlagFileShort, "", `read entries from a file, one per line ("-" for stdin)`)
	cmd.Flags().String(FlagCategory, "", "category")
	cmd.Flags().String(FlagDescription, "", "description")
	cmd.Flags().Bool(FlagShared, false, "mark as shared")
	return cmd
}

func newWildcardsRemoveCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   CmdNameRemove + " <name>",
		Short: "Delete a wildcard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.requireStore()
			if err != nil {
				return err
			}
			defer closeStore(store)

			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return storeError(err)
			}
			fmt.Fprintf(c.stdout, FmtRemovedLine, dynaprompt.WildcardTag(args[0]))
			return nil
		},
	}
}

// storeError maps invalid definitions to the validation exit code
func storeError(err error) error {
	if dynaprompt.IsInvalidDefinition(err) {
		return &exitError{code: ExitCodeValidationError, msg: ErrMsgInvalidWildcard, err: err}
	}
	return runtimeError(ErrMsgStoreFailed, err)
}
