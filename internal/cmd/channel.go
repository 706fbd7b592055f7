package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/accordhq/accord/internal/api"
	"github.com/accordhq/accord/internal/output"
	"github.com/accordhq/accord/internal/rest"
)

var channelCmd = &cobra.Command{
	Use:   "channel",
	Short: "Inspect and modify channels",
}

var channelGetCmd = &cobra.Command{
	Use:   "get <channel-id>",
	Short: "Fetch a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, closer, err := newAPIClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer()

		ch, err := client.GetChannel(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		return output.WriteJSON(cmd.OutOrStdout(), ch)
	},
}

var (
	channelModifyName   string
	channelModifyTopic  string
	channelModifyReason string
)

var channelModifyCmd = &cobra.Command{
	Use:   "modify <channel-id>",
	Short: "Modify a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		params := api.ModifyChannelParams{}
		if cmd.Flags().Changed("name") {
			params.Name = &channelModifyName
		}
		if cmd.Flags().Changed("topic") {
			params.Topic = &channelModifyTopic
		}
		if params.Name == nil && params.Topic == nil {
			return errors.New("nothing to modify, pass --name or --topic")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, closer, err := newAPIClient(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer()

		var opts []rest.RequestOpt
		if channelModifyReason != "" {
			opts = append(opts, rest.WithReason(channelModifyReason))
		}

		ch, err := client.ModifyChannel(cmd.Context(), args[0], params, opts...)
		if err != nil {
			return err
		}

		return output.WriteJSON(cmd.OutOrStdout(), ch)
	},
}

func init() {
	channelModifyCmd.Flags().StringVar(&channelModifyName, "name", "", "New channel name")
	channelModifyCmd.Flags().StringVar(&channelModifyTopic, "topic", "", "New channel topic")
	channelModifyCmd.Flags().StringVar(&channelModifyReason, "reason", "", "Audit log reason")

	channelCmd.AddCommand(channelGetCmd)
	channelCmd.AddCommand(channelModifyCmd)
	rootCmd.AddCommand(channelCmd)
}
