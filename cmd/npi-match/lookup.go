package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/npi-match/internal/npi"
	"github.com/gyeh/npi-match/internal/output"
)

func newSearchCmd() *cobra.Command {
	var (
		reg      registryFlags
		first    string
		last     string
		wildcard bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a single registry name search and print the candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			if first == "" && last == "" {
				return errors.New("at least one of --first or --last is required")
			}
			cfg, err := reg.load(cmd)
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg, cmd.ErrOrStderr())
			defer closer.Close()

			var searchErr error
			client := newClient(cfg, logger, nil, func(err error) { searchErr = err })

			ctx, cancel := signalContext(cmd.Context(), cmd.ErrOrStderr())
			defer cancel()

			providers := client.Search(ctx, first, last, !wildcard)
			if searchErr != nil {
				return searchErr
			}

			if asJSON {
				return writeJSON(cmd, providers)
			}
			if len(providers) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No providers found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.RenderProviders(providers))
			fmt.Fprintf(cmd.ErrOrStderr(), "%d provider(s) found (registry returns at most %d)\n", len(providers), npi.ResultLimit)
			return nil
		},
	}

	reg.register(cmd)
	cmd.Flags().StringVar(&first, "first", "", "First name")
	cmd.Flags().StringVar(&last, "last", "", "Last name")
	cmd.Flags().BoolVar(&wildcard, "wildcard", false, "Wrap names as *name* instead of matching exactly")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print candidates as JSON")

	return cmd
}

func newLookupCmd() *cobra.Command {
	var (
		reg    registryFlags
		number string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Fetch one provider by NPI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !npi.ValidNumber(number) {
				return fmt.Errorf("%q is not a valid 10-digit NPI", number)
			}
			cfg, err := reg.load(cmd)
			if err != nil {
				return err
			}
			logger, closer := newLogger(cfg, cmd.ErrOrStderr())
			defer closer.Close()

			client := newClient(cfg, logger, nil, nil)

			ctx, cancel := signalContext(cmd.Context(), cmd.ErrOrStderr())
			defer cancel()

			provider, err := client.Lookup(ctx, number)
			if err != nil {
				return err
			}
			if provider == nil {
				return fmt.Errorf("NPI %s not found", number)
			}

			if asJSON {
				return writeJSON(cmd, provider)
			}
			fmt.Fprintln(cmd.OutOrStdout(), output.RenderProviders([]npi.Provider{*provider}))
			return nil
		},
	}

	reg.register(cmd)
	cmd.Flags().StringVar(&number, "npi", "", "10-digit NPI number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the provider as JSON")
	cmd.MarkFlagRequired("npi")

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
