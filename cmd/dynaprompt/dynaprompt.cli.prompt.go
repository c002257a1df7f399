package main

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/itsatony/go-dynaprompt"
)

func newTokenizeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameTokenize + " [prompt...]",
		Short: "Split a prompt into highlighting tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := c.readPrompt(cmd, args)
			if err != nil {
				return err
			}

			tokens := dynaprompt.Tokenize(prompt)
			if c.jsonOutput() {
				return c.writeJSON(tokens)
			}
			for _, tok := range tokens {
				fmt.Fprintf(c.stdout, FmtTokenLine, tok.Type, tok.Content)
			}
			return nil
		},
	}
	addPromptFlags(cmd)
	return cmd
}

func newValidateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameValidate + " [prompt...]",
		Short: "Check bracket and pipe structure and limits",
		Long:  "Check bracket and pipe structure and limits. Exits with 3 when the prompt is invalid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := c.readPrompt(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := c.expansionConfig()
			if err != nil {
				return err
			}

			result := dynaprompt.Validate(prompt, cfg)
			if c.jsonOutput() {
				if err := c.writeJSON(result); err != nil {
					return err
				}
			} else if result.IsValid {
				fmt.Fprintf(c.stdout, FmtValidLine, result.ImageCount)
			} else {
				c.printRejection(result.Error, result.Suggestion)
			}

			if !result.IsValid {
				return rejected()
			}
			return nil
		},
	}
	addPromptFlags(cmd)
	return cmd
}

func newExpandCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameExpand + " [prompt...]",
		Short: "Resolve wildcards and expand brackets and pipes",
		Long: `Resolve wildcards and expand brackets and pipes.

Wildcards come from the configured store. Exits with 3 when the prompt is
rejected and with 1 when the store fails.`,
		Example: `  dynaprompt expand "a [red, blue] car"
  dynaprompt expand --store filesystem --dsn ./wildcards "a _hero_ | a _villain_"
  echo "a [cat, dog]" | dynaprompt expand -F json -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := c.readPrompt(cmd, args)
			if err != nil {
				return err
			}
			surcharges, err := parseSurcharges(cmd)
			if err != nil {
				return err
			}

			var opts []dynaprompt.Option
			if cmd.Flags().Changed(FlagSeed) {
				seed, _ := cmd.Flags().GetUint64(FlagSeed)
				rng := rand.New(rand.NewPCG(seed, seed))
				opts = append(opts, dynaprompt.WithPicker(rng.IntN))
			}

			engine, store, err := c.newEngine(opts...)
			if err != nil {
				return err
			}
			defer closeStore(store)

			result, err := engine.Expand(cmd.Context(), prompt, surcharges...)
			if err != nil {
				return runtimeError(ErrMsgStoreFailed, err)
			}

			if c.jsonOutput() {
				if err := c.writeJSON(result); err != nil {
					return err
				}
			} else if result.IsValid {
				c.printExpansion(result)
			} else {
				// The rejection reason is always the last warning.
				c.printRejection(result.Warnings[len(result.Warnings)-1], result.Suggestion)
			}

			if !result.IsValid {
				return rejected()
			}
			return nil
		},
	}
	addPromptFlags(cmd)
	cmd.Flags().Uint64(FlagSeed, 0, "seed for wildcard draws")
	cmd.Flags().StringArray(FlagSurcharge, nil, "extra flat cost as label=credits (repeatable)")
	return cmd
}

func newAnalyzeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   CmdNameAnalyze + " [prompt...]",
		Short: "Report wildcards, anchor, references and slots of a prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := c.readPrompt(cmd, args)
			if err != nil {
				return err
			}
			engine, store, err := c.newEngine()
			if err != nil {
				return err
			}
			defer closeStore(store)

			analysis := engine.Analyze(prompt)
			if c.jsonOutput() {
				return c.writeJSON(analysis)
			}

			if analysis.Validation.IsValid {
				fmt.Fprintf(c.stdout, FmtValidLine, analysis.Validation.ImageCount)
			} else {
				c.printRejection(analysis.Validation.Error, analysis.Validation.Suggestion)
			}
			fmt.Fprintf(c.stdout, FmtListLine, AnalyzeLabelNames, strings.Join(analysis.WildcardNames, ListSeparator))
			fmt.Fprintf(c.stdout, FmtAnchorLine, analysis.HasAnchor)
			fmt.Fprintf(c.stdout, FmtListLine, AnalyzeLabelRefs, strings.Join(analysis.References.All, ListSeparator))
			seeds := make([]string, len(analysis.Slots))
			for i, s := range analysis.Slots {
				seeds[i] = s.Seed
			}
			fmt.Fprintf(c.stdout, FmtListLine, AnalyzeLabelSlots, strings.Join(seeds, ListSeparator))
			return nil
		},
	}
	addPromptFlags(cmd)
	return cmd
}

func (c *cli) printExpansion(result *dynaprompt.ExpansionResult) {
	for i, p := range result.ExpandedPrompts {
		fmt.Fprintf(c.stdout, FmtPromptLine, i+1, p)
	}
	fmt.Fprintf(c.stdout, FmtCostLine, result.BreakdownDescription)
	for _, w := range result.Warnings {
		fmt.Fprintf(c.stdout, FmtWarningLine, w)
	}
}

func (c *cli) printRejection(msg, suggestion string) {
	fmt.Fprintf(c.stdout, FmtInvalidLine, msg)
	if suggestion != "" {
		fmt.Fprintf(c.stdout, FmtSuggestionLine, suggestion)
	}
}

// parseSurcharges reads repeated label=credits flags
func parseSurcharges(cmd *cobra.Command) ([]dynaprompt.Surcharge, error) {
	values, _ := cmd.Flags().GetStringArray(FlagSurcharge)
	surcharges := make([]dynaprompt.Surcharge, 0, len(values))
	for _, v := range values {
		label, credits, ok := strings.Cut(v, "=")
		if !ok || strings.TrimSpace(label) == "" {
			return nil, usageError(ErrMsgInvalidSurcharge, nil)
		}
		n, err := strconv.Atoi(strings.TrimSpace(credits))
		if err != nil || n < 0 {
			return nil, usageError(ErrMsgInvalidSurcharge, err)
		}
		surcharges = append(surcharges, dynaprompt.Surcharge{Label: strings.TrimSpace(label), Credits: n})
	}
	return surcharges, nil
}
