package cmd

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/accordhq/accord/internal/api"
	"github.com/accordhq/accord/internal/output"
)

var webhookCmd = &cobra.Command{
	Use:   "webhook",
	Short: "Manage and execute channel webhooks",
}

var (
	webhookCreateChannel string
	webhookCreateName    string
	webhookCreateAvatar  string
)

var webhookCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a webhook on a channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(webhookCreateChannel) == "" {
			return errors.New("--channel is required")
		}
		if strings.TrimSpace(webhookCreateName) == "" {
			return errors.New("--name is required")
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

		hook, err := client.CreateWebhook(cmd.Context(), webhookCreateChannel, api.CreateWebhookParams{
			Name:   webhookCreateName,
			Avatar: webhookCreateAvatar,
		})
		if err != nil {
			return err
		}

		return output.WriteJSON(cmd.OutOrStdout(), hook)
	},
}

var (
	webhookExecID       string
	webhookExecToken    string
	webhookExecContent  string
	webhookExecUsername string
	webhookExecFiles    []string
)

var webhookExecuteCmd = &cobra.Command{
	Use:   "execute",
	Short: "Execute a webhook",
	Long: `Execute a webhook with the given content.

Webhook execution authenticates with the webhook token instead of the bot
token, and its rate limit bucket is keyed by webhook ID and token.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(webhookExecID) == "" || strings.TrimSpace(webhookExecToken) == "" {
			return errors.New("--id and --token are required")
		}
		if strings.TrimSpace(webhookExecContent) == "" && len(webhookExecFiles) == 0 {
			return errors.New("one of --content or --file is required")
		}

		files, err := readAttachments(webhookExecFiles)
		if err != nil {
			return err
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

		msg, err := client.ExecuteWebhook(cmd.Context(), webhookExecID, webhookExecToken, api.ExecuteWebhookParams{
			Content:  webhookExecContent,
			Username: webhookExecUsername,
		}, files)
		if err != nil {
			return err
		}

		return output.WriteJSON(cmd.OutOrStdout(), msg)
	},
}

var webhookListChannel string

var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List webhooks on a channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(webhookListChannel) == "" {
			return errors.New("--channel is required")
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

		hooks, err := client.GetChannelWebhooks(cmd.Context(), webhookListChannel)
		if err != nil {
			return err
		}

		return output.WriteJSON(cmd.OutOrStdout(), hooks)
	},
}

func init() {
	webhookCreateCmd.Flags().StringVar(&webhookCreateChannel, "channel", "", "Channel ID")
	webhookCreateCmd.Flags().StringVar(&webhookCreateName, "name", "", "Webhook name")
	webhookCreateCmd.Flags().StringVar(&webhookCreateAvatar, "avatar", "", "Webhook avatar image data URI")

	webhookExecuteCmd.Flags().StringVar(&webhookExecID, "id", "", "Webhook ID")
	webhookExecuteCmd.Flags().StringVar(&webhookExecToken, "token", "", "Webhook token")
	webhookExecuteCmd.Flags().StringVar(&webhookExecContent, "content", "", "Message text")
	webhookExecuteCmd.Flags().StringVar(&webhookExecUsername, "username", "", "Override display name")
	webhookExecuteCmd.Flags().StringArrayVar(&webhookExecFiles, "file", nil, "Attachment path (repeatable)")

	webhookListCmd.Flags().StringVar(&webhookListChannel, "channel", "", "Channel ID")

	webhookCmd.AddCommand(webhookCreateCmd)
	webhookCmd.AddCommand(webhookExecuteCmd)
	webhookCmd.AddCommand(webhookListCmd)
	rootCmd.AddCommand(webhookCmd)
}
