package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/jacentio/canopy/catalog"
)

const timeLayout = "2006-01-02 15:04"

func newDictCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage dictionaries",
	}

	var remark string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a dictionary and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := c.app.Dictionaries.Create(cmd.Context(), catalog.DictionaryInput{Name: args[0], Remark: remark})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, d.ID)
			return nil
		},
	}
	add.Flags().StringVar(&remark, "remark", "", "Remark")

	var name string
	list := &cobra.Command{
		Use:   "list",
		Short: "List dictionaries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				dicts []catalog.Dictionary
				err   error
			)
			if name != "" {
				dicts, err = c.app.Dictionaries.FindByName(cmd.Context(), name)
			} else {
				dicts, err = c.app.Dictionaries.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tREMARK\tCREATED")
			for _, d := range dicts {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Name, d.Remark, stamp(d.CreatedAt))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&name, "name", "", "Only list dictionaries with exactly this name")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a dictionary and its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Dictionaries.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func newContentCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "content",
		Short: "Manage dictionary contents",
	}

	var remark string
	add := &cobra.Command{
		Use:   "add DICTIONARY_ID NAME",
		Short: "Add an entry to a dictionary and print its id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := c.app.Contents.Create(cmd.Context(), catalog.ContentInput{
				DictionaryID: args[0],
				Name:         args[1],
				Remark:       remark,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, content.ID)
			return nil
		},
	}
	add.Flags().StringVar(&remark, "remark", "", "Remark")

	list := &cobra.Command{
		Use:   "list DICTIONARY_ID",
		Short: "List a dictionary's entries, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := c.app.Contents.ListByDictionary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tREMARK\tCREATED")
			for _, ct := range contents {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ct.ID, ct.Name, ct.Remark, stamp(ct.CreatedAt))
			}
			return tw.Flush()
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a dictionary entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Contents.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func newAppCmd(c *console) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "app",
		Short: "Manage applications",
	}

	var in catalog.ApplicationInput
	var appType, template, navigation, entity string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register an application and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = args[0]
			in.Type = catalog.AppType(appType)
			in.TemplateType = catalog.TemplateType(template)
			in.NavigationType = catalog.NavigationType(navigation)
			in.BusinessEntityType = catalog.BusinessEntityType(entity)
			a, err := c.app.Applications.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, a.ID)
			return nil
		},
	}
	add.Flags().StringVar(&appType, "type", string(catalog.AppInternalCustom), "Type: external, internal_template or internal_custom")
	add.Flags().StringVar(&in.DeploymentURL, "url", "", "Deployment URL (external applications)")
	add.Flags().StringVar(&template, "template", "", "Template: MES or QMS (internal_template applications)")
	add.Flags().StringVar(&navigation, "navigation", "", "Navigation: none, level_1, level_2 or level_3")
	add.Flags().StringVar(&entity, "entity", "", "Business entity: custom_form, data_source, business_rule or custom_dashboard")
	add.Flags().StringVar(&in.Remark, "remark", "", "Remark")

	var filter string
	list := &cobra.Command{
		Use:   "list",
		Short: "List applications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				apps []catalog.Application
				err  error
			)
			if filter != "" {
				apps, err = c.app.Applications.ListByType(cmd.Context(), catalog.AppType(filter))
			} else {
				apps, err = c.app.Applications.List(cmd.Context())
			}
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDETAIL\tUPDATED")
			for _, a := range apps {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", a.ID, a.Name, a.Type, appDetail(a), stamp(a.UpdatedAt))
			}
			return tw.Flush()
		},
	}
	list.Flags().StringVar(&filter, "type", "", "Only list applications of this type")

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.Applications.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(add, list, del)
	return cmd
}

func appDetail(a catalog.Application) string {
	switch a.Type {
	case catalog.AppExternal:
		return a.DeploymentURL
	case catalog.AppInternalTemplate:
		return string(a.TemplateType)
	}
	return "-"
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}
