package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DavidRHannah/IRKeybridge/pkg/profile"
)

func init() {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage remote profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadEnv()
			if err != nil {
				return err
			}
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Println("No profiles found. Create one with: irkeybridge profiles create-default")
				return nil
			}
			fmt.Printf("%-40s %-30s %s\n", "FILE", "NAME", "MAPPINGS")
			for _, name := range names {
				p, err := store.Load(name)
				if err != nil {
					fmt.Printf("%-40s (invalid: %v)\n", name, err)
					continue
				}
				fmt.Printf("%-40s %-30s %d\n", name, p.Name, len(p.Mappings))
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Show the mappings of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadEnv()
			if err != nil {
				return err
			}
			p, err := store.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s (%s %s)\n", p.Name, p.Brand, p.Model)
			if p.Description != "" {
				fmt.Println(p.Description)
			}
			fmt.Println()
			fmt.Printf("%-8s %-10s %-25s %s\n", "CODE", "TYPE", "KEYS", "DESCRIPTION")
			for _, code := range sortedCodes(p) {
				action := p.Mappings[code]
				fmt.Printf("0x%-6s %-10s %-25s %s\n",
					code, action.Type, strings.Join(action.Keys, "+"), action.Description)
			}
			return nil
		},
	}

	createDefaultCmd := &cobra.Command{
		Use:   "create-default",
		Short: "Create the built-in default profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadEnv()
			if err != nil {
				return err
			}
			name, err := store.Save(profile.DefaultProfile())
			if err != nil {
				return err
			}
			fmt.Printf("Created %s in %s\n", name, store.Dir())
			return nil
		},
	}

	var exportFormat string
	exportCmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Print a profile as JSON or YAML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, store, err := loadEnv()
			if err != nil {
				return err
			}
			p, err := store.Load(args[0])
			if err != nil {
				return err
			}
			switch exportFormat {
			case "json":
				data, err := json.MarshalIndent(p, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "yaml":
				data, err := yaml.Marshal(p)
				if err != nil {
					return err
				}
				fmt.Print(string(data))
			default:
				return fmt.Errorf("unknown format %q (want json or yaml)", exportFormat)
			}
			return nil
		},
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "output format: json or yaml")

	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema for profile files",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := jsonschema.Reflect(&profile.Profile{})
			data, err := json.MarshalIndent(schema, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	profilesCmd.AddCommand(listCmd, showCmd, createDefaultCmd, exportCmd, schemaCmd)
	rootCmd.AddCommand(profilesCmd)
}

// sortedCodes orders button codes numerically where possible.
func sortedCodes(p *profile.Profile) []string {
	codes := make([]string, 0, len(p.Mappings))
	for code := range p.Mappings {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool {
		a, errA := strconv.ParseUint(codes[i], 16, 64)
		b, errB := strconv.ParseUint(codes[j], 16, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return codes[i] < codes[j]
	})
	return codes
}
