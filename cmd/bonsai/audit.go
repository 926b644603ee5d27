package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mhkc/bonsai-libs/client/auditlog"
	"github.com/mhkc/bonsai-libs/schemas/audit"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Record and query audit log events",
	}
	cmd.AddCommand(newAuditEmitCmd(), newAuditListCmd())
	return cmd
}

func newAuditEmitCmd() *cobra.Command {
	var (
		service   string
		eventType string
		severity  string
		actorID   string
		actorType string
		subjID    string
		subjType  string
		metaPairs []string
	)

	cmd := &cobra.Command{
		Use:   "emit",
		Short: "Record a new audit event",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			core, err := newCoreClient(cfg, cfg.AuditLogURL, log)
			if err != nil {
				return err
			}

			event := audit.EventCreate{
				SourceService: service,
				EventType:     eventType,
				Severity:      audit.Severity(severity),
				Actor:         audit.Actor{Type: audit.SourceType(actorType), ID: actorID},
				Subject:       audit.Subject{Type: audit.SourceType(subjType), ID: subjID},
				Metadata:      parseMetadata(metaPairs),
			}

			resp, err := auditlog.New(core).PostEvent(cmd.Context(), event)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "event recorded: %s\n", resp.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "Name of the emitting service")
	cmd.Flags().StringVar(&eventType, "type", "", "Event type, e.g. CREATE_USER")
	cmd.Flags().StringVar(&severity, "severity", string(audit.SeverityInfo), "Severity (debug, info, warning, error)")
	cmd.Flags().StringVar(&actorID, "actor", "", "Actor id")
	cmd.Flags().StringVar(&actorType, "actor-type", string(audit.SourceUser), "Actor type (user or system)")
	cmd.Flags().StringVar(&subjID, "subject", "", "Subject id")
	cmd.Flags().StringVar(&subjType, "subject-type", string(audit.SourceSystem), "Subject type (user or system)")
	cmd.Flags().StringArrayVar(&metaPairs, "meta", nil, "Metadata key=value pair (repeatable)")
	return cmd
}

func newAuditListCmd() *cobra.Command {
	var (
		limit    int
		skip     int
		services []string
		after    string
		before   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored audit events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			core, err := newCoreClient(cfg, cfg.AuditLogURL, log)
			if err != nil {
				return err
			}

			query := auditlog.EventQuery{
				Limit:          limit,
				Skip:           skip,
				SourceServices: services,
			}
			if query.OccurredAfter, err = parseTimeFlag(after); err != nil {
				return fmt.Errorf("--after: %w", err)
			}
			if query.OccurredBefore, err = parseTimeFlag(before); err != nil {
				return fmt.Errorf("--before: %w", err)
			}

			page, err := auditlog.New(core).Events(cmd.Context(), query)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(page)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "Page size")
	cmd.Flags().IntVar(&skip, "skip", 0, "Result offset")
	cmd.Flags().StringArrayVar(&services, "service", nil, "Filter by source service (repeatable)")
	cmd.Flags().StringVar(&after, "after", "", "Only events after this RFC3339 timestamp")
	cmd.Flags().StringVar(&before, "before", "", "Only events before this RFC3339 timestamp")
	return cmd
}

// parseMetadata turns repeated key=value flags into event metadata.
func parseMetadata(pairs []string) map[string]any {
	if len(pairs) == 0 {
		return nil
	}
	meta := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found {
			meta[pair] = ""
			continue
		}
		meta[key] = value
	}
	return meta
}

func parseTimeFlag(s string) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("expected an RFC3339 timestamp, e.g. 2026-01-02T15:04:05Z")
	}
	return ts, nil
}
