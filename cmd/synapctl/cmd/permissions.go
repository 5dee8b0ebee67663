package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/synapsocial/synapsocial/internal/model"
)

func PermissionsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "permissions",
		Short: "Inspect or change a user's permission flags",
	}
	c.AddCommand(permissionsShowCmd(), permissionsSetCmd())
	return c
}

func permissionsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <user-id>",
		Short: "Show connection state and flags per platform",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			statuses, err := a.AccountService.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(statuses))
			for _, st := range statuses {
				p := st.Permissions
				rows = append(rows, []string{
					st.Platform.String(), onOff(st.Connected), onOff(p.AutoPost), onOff(p.AutoReply), onOff(p.AutoApply), onOff(p.SkipReplyConfirm),
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Platform", "Connected", "Auto post", "Auto reply", "Auto apply", "Skip confirm"}, rows))
			return err
		},
	}
}

func permissionsSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <user-id> <platform> <feature> <on|off>",
		Short: "Set one flag (features: auto_post, auto_reply, auto_apply, skip_reply_confirm)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := model.ParsePlatform(args[1])
			if err != nil {
				return err
			}
			enabled, err := parseSwitch(args[3])
			if err != nil {
				return err
			}

			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			if err := a.Gate.Set(cmd.Context(), args[0], p, model.Feature(args[2]), enabled); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s=%t\n", args[0], p, args[2], enabled)
			return nil
		},
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on":
		return true, nil
	case "off":
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("want on or off, got %q", s)
	}
	return b, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
