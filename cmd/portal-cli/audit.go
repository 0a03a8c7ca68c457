package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"satark-portal/internal/platform/hash"
	"satark-portal/internal/services/auditverify"
	"satark-portal/internal/services/casebundle"
)

func (c *cli) auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the local audit chain",
	}

	var leadID string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List audit events for a lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			events, err := store.ListAuditEvents(cmd.Context(), leadID, limit)
			if err != nil {
				return err
			}
			table := c.ui.Table([]string{"TIME", "TYPE", "ACTION", "STATUS", "ACTOR", "HASH"})
			for _, ev := range events {
				_ = table.Append([]string{
					time.Unix(ev.OccurredAt, 0).Format(time.RFC3339),
					ev.EventType, ev.Action, okColor(ev.Status == "success", ev.Status), ev.Actor, truncate(ev.ChainHash, 13),
				})
			}
			return table.Render()
		},
	}
	list.Flags().StringVar(&leadID, "lead", "", "lead id")
	list.Flags().IntVar(&limit, "limit", 200, "max events")
	_ = list.MarkFlagRequired("lead")

	var verifyLead string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Recompute the hash chain for a lead",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			res, err := auditverify.VerifyLead(cmd.Context(), store, verifyLead)
			if err != nil {
				return err
			}
			if res.OK {
				c.ui.Success("audit chain intact: lead=%s events=%d", verifyLead, res.Total)
				return nil
			}
			table := c.ui.Table([]string{"#", "EVENT", "ACTION", "PREV", "HASH"})
			for _, f := range res.Failures {
				_ = table.Append([]string{
					strconv.Itoa(f.Index), f.EventID, f.Action,
					okColor(!f.PrevHashMismatch, strconv.FormatBool(!f.PrevHashMismatch)),
					okColor(!f.ChainHashMismatch, strconv.FormatBool(!f.ChainHashMismatch)),
				})
			}
			_ = table.Render()
			return fmt.Errorf("audit chain broken: %d of %d events failed", res.Failed, res.Total)
		},
	}
	verify.Flags().StringVar(&verifyLead, "lead", "", "lead id")
	_ = verify.MarkFlagRequired("lead")

	cmd.AddCommand(list, verify)
	return cmd
}

func (c *cli) exportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exports",
		Short: "List and re-verify exported PDFs",
	}

	var leadID string
	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List registered exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			rows, err := store.ListExports(cmd.Context(), leadID, limit)
			if err != nil {
				return err
			}
			table := c.ui.Table([]string{"EXPORT", "LEAD", "FILE", "MODE", "ACTOR", "CREATED"})
			for _, r := range rows {
				_ = table.Append([]string{r.ExportID, r.LeadID, r.FileName, r.Mode, r.Actor, time.Unix(r.CreatedAt, 0).Format(time.RFC3339)})
			}
			return table.Render()
		},
	}
	list.Flags().StringVar(&leadID, "lead", "", "only exports of this lead")
	list.Flags().IntVar(&limit, "limit", 50, "max rows")

	var verifyLead string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Re-hash export files and compare with the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			rows, err := store.ListExports(cmd.Context(), verifyLead, 1000)
			if err != nil {
				return err
			}
			failed := 0
			table := c.ui.Table([]string{"EXPORT", "FILE", "STATUS"})
			for _, r := range rows {
				status := "ok"
				sum, _, err := hash.File(r.FilePath)
				switch {
				case err != nil:
					status = "missing"
				case sum != r.SHA256:
					status = "mismatch"
				}
				if status != "ok" {
					failed++
				}
				_ = table.Append([]string{r.ExportID, r.FilePath, okColor(status == "ok", status)})
			}
			_ = table.Render()
			if failed > 0 {
				return fmt.Errorf("%d of %d exports failed verification", failed, len(rows))
			}
			c.ui.Success("%d exports verified", len(rows))
			return nil
		},
	}
	verify.Flags().StringVar(&verifyLead, "lead", "", "only exports of this lead")

	var bundleLead, note, actor string
	bundle := &cobra.Command{
		Use:   "bundle",
		Short: "Zip a lead's PDFs, audit chain and hash list into one handover file",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			res, err := casebundle.Build(cmd.Context(), store, casebundle.Options{
				LeadID:     bundleLead,
				Actor:      actor,
				Note:       note,
				ExportsDir: c.cfg.ExportsDir,
				Logger:     c.log,
			})
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				c.ui.Warning("%s", w)
			}
			c.ui.Success("bundle written: %s", res.ZipPath)
			c.ui.Info("export=%s sha256=%s files=%d", res.ExportID, res.ZipSHA256, res.Files)
			return nil
		},
	}
	bundle.Flags().StringVar(&bundleLead, "lead", "", "lead id")
	bundle.Flags().StringVar(&note, "note", "", "free-text note stored in the manifest")
	bundle.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit chain")
	_ = bundle.MarkFlagRequired("lead")

	verifyBundle := &cobra.Command{
		Use:   "verify-bundle ZIP",
		Short: "Check a bundle's hash list and embedded audit chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := casebundle.Verify(args[0])
			if err != nil {
				return err
			}
			table := c.ui.Table([]string{"PATH", "STATUS", "SHA256"})
			for _, it := range res.Items {
				_ = table.Append([]string{it.Path, okColor(it.Status == "ok", it.Status), truncate(it.Expected, 13)})
			}
			_ = table.Render()
			if res.Audit != nil {
				c.ui.Info("audit chain: lead=%s events=%d failed=%d", res.LeadID, res.Audit.Total, res.Audit.Failed)
			}
			if !res.Intact() {
				return fmt.Errorf("bundle verification failed: %d of %d files", res.Failed, res.Total)
			}
			c.ui.Success("bundle intact: %d files", res.Total)
			return nil
		},
	}

	cmd.AddCommand(list, verify, bundle, verifyBundle)
	return cmd
}
