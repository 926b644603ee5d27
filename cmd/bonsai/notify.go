package main

import (
	"fmt"

	"github.com/spf13/cobra"

	notifyclient "github.com/mhkc/bonsai-libs/client/notification"
	"github.com/mhkc/bonsai-libs/schemas/notification"
)

func newNotifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send notifications through the notification service",
	}
	cmd.AddCommand(newNotifySendCmd())
	return cmd
}

func newNotifySendCmd() *cobra.Command {
	var (
		recipients []string
		subject    string
		message    string
		template   string
		username   string
		html       bool
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			core, err := newCoreClient(cfg, cfg.NotificationURL, log)
			if err != nil {
				return err
			}

			email := notification.EmailCreate{
				Recipients:   recipients,
				Subject:      subject,
				Message:      message,
				TemplateName: template,
			}
			if html {
				email.ContentType = notification.ContentHTML
			}
			if username != "" {
				email.Context = &notification.TemplateContext{Username: username}
			}

			if err := notifyclient.New(core).SendEmail(cmd.Context(), email); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "email queued")
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&recipients, "to", nil, "Recipient email address (repeatable)")
	cmd.Flags().StringVar(&subject, "subject", "", "Email subject")
	cmd.Flags().StringVar(&message, "message", "", "Email body")
	cmd.Flags().StringVar(&template, "template", "", "Template name for rendered emails")
	cmd.Flags().StringVar(&username, "username", "", "Recipient full name for template rendering")
	cmd.Flags().BoolVar(&html, "html", false, "Render the email as HTML")
	return cmd
}
