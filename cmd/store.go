/*
 * Copyright (c) 2020 Siemens AG
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy of
 * this software and associated documentation files (the "Software"), to deal in
 * the Software without restriction, including without limitation the rights to
 * use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
 * the Software, and to permit persons to whom the Software is furnished to do so,
 * subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
 * FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
 * COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
 * IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
 * CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
 *
 * Author(s): Jonas Plum
 */

package cmd

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/cloudforensics"
)

// Store is the cloudforensics store commandline subcommand.
func Store() *cobra.Command {
	storeCommand := &cobra.Command{
		Use:          "store",
		Short:        "Create, read and validate evidence stores",
		SilenceUsage: true,
	}
	storeCommand.AddCommand(createCommand(), getCommand(), selectCommand(),
		allCommand(), searchCommand(), validateCommand())
	return storeCommand
}

func createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <store>",
		Short: "Create an evidence store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cloudforensics.New(args[0])
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}

func getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id> <store>",
		Short: "Retrieve a single element",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cloudforensics.Open(args[1])
			if err != nil {
				return err
			}
			defer store.Close()
			element, err := store.Get(args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(append(element, '\n'))
			return err
		},
	}
}

func selectCommand() *cobra.Command {
	var where []string
	selectCmd := &cobra.Command{
		Use:   "select <type> <store>",
		Short: "Retrieve all elements of a type",
		Example: `  cloudforensics store select gcs-bucket --where location=EU case.cloudforensics
  cloudforensics store select gcp-log-entry --where resource.type=gce_instance --where severity=ERROR case.cloudforensics`,
		Args: cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			condition := map[string]string{}
			for _, w := range where {
				key, value, ok := strings.Cut(w, "=")
				if !ok {
					return errors.Errorf("invalid condition %q, requires field=value", w)
				}
				condition[key] = value
			}
			var conditions []map[string]string
			if len(condition) > 0 {
				conditions = append(conditions, condition)
			}

			store, err := cloudforensics.Open(args[1])
			if err != nil {
				return err
			}
			defer store.Close()
			elements, err := store.Select(args[0], conditions)
			if err != nil {
				return err
			}
			return printElements(cmd, elements)
		},
	}
	selectCmd.Flags().StringArrayVarP(&where, "where", "w", nil, "field=value condition, % matches any text")
	return selectCmd
}

func allCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all <store>",
		Short: "Retrieve all elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cloudforensics.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			elements, err := store.All()
			if err != nil {
				return err
			}
			return printElements(cmd, elements)
		},
	}
}

func searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query> <store>",
		Short: "Full text search over all elements",
		Args:  cobra.ExactArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cloudforensics.Open(args[1])
			if err != nil {
				return err
			}
			defer store.Close()
			elements, err := store.Search(args[0])
			if err != nil {
				return err
			}
			return printElements(cmd, elements)
		},
	}
}

func validateCommand() *cobra.Command {
	var noFail bool
	validateCmd := &cobra.Command{
		Use:   "validate <store>",
		Short: "Validate all elements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := cloudforensics.Open(args[0])
			if err != nil {
				return err
			}
			defer store.Close()
			flaws, err := store.Validate()
			if err != nil {
				return err
			}
			if len(flaws) == 0 {
				return nil
			}
			if err := printJSON(cmd.OutOrStdout(), flaws); err != nil {
				return err
			}
			if noFail {
				return nil
			}
			return errors.Errorf("%d flaws found", len(flaws))
		},
	}
	validateCmd.Flags().BoolVar(&noFail, "no-fail", false, "return exit code 0")
	return validateCmd
}

// printElements prints the elements as a json list.
func printElements(cmd *cobra.Command, elements []cloudforensics.JSONElement) error {
	out := cmd.OutOrStdout()
	if _, err := out.Write([]byte("[")); err != nil {
		return err
	}
	for i, element := range elements {
		if i > 0 {
			if _, err := out.Write([]byte(",")); err != nil {
				return err
			}
		}
		if _, err := out.Write(element); err != nil {
			return err
		}
	}
	_, err := out.Write([]byte("]\n"))
	return err
}
