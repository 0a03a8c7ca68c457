package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/domain/schema"
	"satark-portal/internal/services/canvas"
	"satark-portal/internal/services/dossierpdf"
	"satark-portal/internal/services/feed"
)

func (c *cli) leadsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leads",
		Short: "Browse public leads",
	}
	cmd.AddCommand(c.leadsListCmd(), c.leadsShowCmd(), c.leadsSearchCmd(), c.leadsBoardCmd(), c.leadsExportCmd())
	return cmd
}

func (c *cli) leadsListCmd() *cobra.Command {
	var (
		f        feed.Filter
		pages    int
		asJSON   bool
		pageSize int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the public feed for a tab",
		RunE: func(cmd *cobra.Command, args []string) error {
			if pageSize <= 0 {
				pageSize = c.cfg.PageSize
			}
			p := feed.NewPaginator(c.api(), pageSize, c.log.Named("feed"))
			p.Reset(f)
			for i := 0; i < pages; i++ {
				n, err := p.Next(cmd.Context())
				if err != nil {
					return err
				}
				if n == 0 || !p.Snapshot().HasMore {
					break
				}
			}
			snap := p.Snapshot()
			if asJSON {
				return writeJSON(c.ui, snap.Items)
			}
			c.printItems(snap.Items)
			if snap.HasMore {
				c.ui.Info("more results available, use --pages %d", pages+1)
			}
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.Tab, "tab", "all", "tab: "+tabKeys())
	fl.StringVarP(&f.Search, "search", "s", "", "search text")
	fl.StringVar(&f.Category, "category", "", "category id")
	fl.StringVar(&f.Jurisdiction, "jurisdiction", "", "jurisdiction id")
	fl.IntVar(&pages, "pages", 1, "number of pages to load")
	fl.IntVar(&pageSize, "page-size", 0, "page size (default from config)")
	fl.BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func tabKeys() string {
	keys := make([]string, 0, len(feed.Tabs))
	for _, t := range feed.Tabs {
		keys = append(keys, t.Key)
	}
	return strings.Join(keys, "|")
}

func (c *cli) printItems(items []feed.Item) {
	if len(items) == 0 {
		c.ui.Info("no updates found")
		return
	}
	table := c.ui.Table([]string{"", "ID", "REF", "STATUS", "PRIORITY", "TITLE", "REWARD", "CREATED"})
	for _, it := range items {
		pin := ""
		if it.Pinned {
			pin = "*"
		}
		created := ""
		if !it.CreatedAt.IsZero() {
			created = humanize.Time(it.CreatedAt)
		}
		_ = table.Append([]string{pin, it.ID, it.Ref(), it.Status, priorityColor(it.Priority), truncate(it.Title, 48), it.Reward, created})
	}
	_ = table.Render()
}

func (c *cli) leadsShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show LEAD_ID",
		Short: "Show one public lead",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.loadLead(cmd, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(c.ui, l)
			}
			c.printLead(*l)
			return nil
		},
	}
	addTokenFlag(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// loadLead 有警员凭据时读内部详情，否则读公开详情。
func (c *cli) loadLead(cmd *cobra.Command, id string) (*model.Lead, error) {
	sess := c.officer(cmd)
	if sess.Authenticated() {
		return c.api().GetLead(cmd.Context(), sess, id)
	}
	return c.api().GetPublicLead(cmd.Context(), id)
}

func (c *cli) printLead(l model.Lead) {
	v := canvas.NewBuilder(c.canvasOptions()).Build(l)
	b := v.Common()
	fmt.Fprintf(c.ui.Out, "%s  %s\n", cyan(b.Ref), l.Title)
	rows := [][2]string{
		{"Status", l.Status},
		{"Priority", priorityColor(l.Priority)},
		{"Category", schema.CategoryLabel(l.CategoryID)},
		{"Location", l.Location},
		{"Reward", canvas.Reward(string(l.RewardAmount))},
		{"Votes", strconv.Itoa(l.Votes)},
		{"Report URL", c.cfg.PublicBaseURL + b.ReportURL},
	}
	if !l.CreatedAt.IsZero() {
		rows = append(rows, [2]string{"Created", humanize.Time(l.CreatedAt)})
	}
	table := c.ui.Table([]string{"FIELD", "VALUE"})
	for _, r := range rows {
		if strings.TrimSpace(r[1]) == "" {
			continue
		}
		_ = table.Append([]string{r[0], r[1]})
	}
	_ = table.Render()
	if d := strings.TrimSpace(l.Description); d != "" {
		fmt.Fprintf(c.ui.Out, "\n%s\n", d)
	}
}

// leadsSearchCmd 从标准输入逐行读取搜索词，防抖后查询；适合管道或交互式输入。
func (c *cli) leadsSearchCmd() *cobra.Command {
	var tab string
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Interactive search: type queries line by line",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(cmd.InOrStdin())
				for sc.Scan() {
					select {
					case lines <- sc.Text():
					case <-ctx.Done():
						return
					}
				}
			}()

			api := c.api()
			for q := range feed.Debounce(ctx, lines, c.cfg.Debounce) {
				if err := c.search(ctx, api, tab, q); err != nil {
					c.ui.Warning("search %q failed: %v", q, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tab, "tab", "all", "tab: "+tabKeys())
	return cmd
}

func (c *cli) search(ctx context.Context, api feed.Lister, tab, q string) error {
	p := feed.NewPaginator(api, c.cfg.PageSize, c.log.Named("feed"))
	p.Reset(feed.Filter{Tab: tab, Search: q})
	if _, err := p.Next(ctx); err != nil {
		return err
	}
	c.ui.Info("results for %q", strings.TrimSpace(q))
	c.printItems(p.Snapshot().Items)
	return nil
}

func (c *cli) leadsBoardCmd() *cobra.Command {
	var search, priority string
	cmd := &cobra.Command{
		Use:       "board wanted|missing",
		Short:     "Show the most wanted or missing persons board",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"wanted", "missing"},
		RunE: func(cmd *cobra.Command, args []string) error {
			b := feed.BoardWanted
			switch args[0] {
			case "wanted":
			case "missing":
				b = feed.BoardMissing
			default:
				return fmt.Errorf("unknown board: %s", args[0])
			}
			cards, err := feed.LoadBoard(cmd.Context(), c.api(), b)
			if err != nil {
				return err
			}
			cards = feed.FilterCards(cards, b, search, priority)
			table := c.ui.Table([]string{"ID", "NAME", "ALIAS", "RISK", "LOCATION", "REWARD"})
			for _, cd := range cards {
				risk := priorityColor(cd.Risk)
				if cd.Armed() {
					risk += " " + red("ARMED")
				}
				_ = table.Append([]string{cd.ID, cd.Name, cd.Alias, risk, cd.Location, cd.Reward})
			}
			return table.Render()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "filter by name")
	cmd.Flags().StringVar(&priority, "priority", "", "filter by priority or risk")
	return cmd
}

func (c *cli) leadsExportCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "export-pdf LEAD_ID",
		Short: "Export a lead dossier as PDF and register it locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.loadLead(cmd, args[0])
			if err != nil {
				return err
			}
			store, err := c.store(cmd)
			if err != nil {
				return err
			}
			noBrowser, _ := cmd.Flags().GetBool("text")
			var raster dossierpdf.Rasterizer
			if !noBrowser {
				raster = &dossierpdf.RodRasterizer{BrowserBin: c.cfg.BrowserBin}
			}
			builder := canvas.NewBuilder(c.canvasOptions())
			exp := dossierpdf.NewExporter(store, builder, dossierpdf.Options{
				ExportsDir: c.cfg.ExportsDir,
				FontPath:   c.cfg.PDFFont,
				Rasterizer: raster,
				Logger:     c.log.Named("dossierpdf"),
			})
			res, err := exp.Export(cmd.Context(), *l, actor)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				c.ui.Warning("%s", w)
			}
			c.log.Debug("pdf exported", zap.String("export_id", res.ExportID), zap.String("mode", res.Mode))
			c.ui.Success("%s (%s, %s, sha256 %s)", res.FilePath, res.Mode, humanize.Bytes(uint64(res.SizeBytes)), res.SHA256[:12])
			return nil
		},
	}
	addTokenFlag(cmd)
	cmd.Flags().Bool("text", false, "skip the headless browser and write the text layout")
	cmd.Flags().StringVar(&actor, "actor", "cli", "actor recorded in the audit chain")
	return cmd
}

func (c *cli) trackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "track TOKEN",
		Short: "Check the status of a submitted tip",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := c.api().TrackLead(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, leadsapi.ErrNotFound) {
					return fmt.Errorf("no report found for token %s", args[0])
				}
				return err
			}
			c.printLead(*l)
			return nil
		},
	}
}

func writeJSON(ui *UI, v any) error {
	enc := json.NewEncoder(ui.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (c *cli) canvasOptions() canvas.Options {
	return canvas.Options{PublicBaseURL: c.cfg.PublicBaseURL, MediaBaseURL: c.cfg.MediaBaseURL, Logger: c.log}
}
