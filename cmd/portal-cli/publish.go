package main

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"satark-portal/internal/adapters/leadsapi"
	"satark-portal/internal/domain/model"
	"satark-portal/internal/services/publish"
)

// publishCmd 以 YAML 草稿发布通告，走与网页向导相同的 payload 组装与提交。
func (c *cli) publishCmd() *cobra.Command {
	var (
		notice   string
		file     string
		evidence []string
		mugshot  string
		dryRun   bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a notice from a YAML draft",
		Example: `  portal-cli publish --notice wanted --file draft.yaml --evidence fir.pdf --mugshot photo.jpg
  portal-cli publish --notice alert --file alert.yaml --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, ok := model.ParseNotice(notice)
			if !ok {
				return fmt.Errorf("unknown notice type %q", notice)
			}
			w := publish.NewWizard(n)
			if file != "" {
				data, err := readDraft(file)
				if err != nil {
					return err
				}
				for k, v := range data {
					w.Set(k, v)
				}
			}
			files, err := readAttachments(evidence...)
			if err != nil {
				return err
			}
			w.AddFiles(files...)
			if mugshot != "" {
				m, err := readAttachments(mugshot)
				if err != nil {
					return err
				}
				w.SetMugshot(&m[0])
			}

			now := time.Now()
			if dryRun {
				c.ui.Info("dry run: %d evidence file(s) would be attached", len(w.Evidence()))
				return writeJSON(c.ui, w.Payload(now))
			}

			sess := c.officer(cmd)
			if !sess.Authenticated() {
				return errors.New("officer token required: pass --token or set SATARK_TOKEN")
			}
			ref, err := w.Submit(cmd.Context(), c.api(), sess, now)
			if err != nil {
				if errors.Is(err, leadsapi.ErrUnauthorized) {
					return fmt.Errorf("token rejected by backend: %w", err)
				}
				return fmt.Errorf("%s: %w", w.LastError, err)
			}
			c.ui.Success("published %s notice: %s", n, ref)
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&notice, "notice", "", "notice type: wanted|missing|alert|seeking|general")
	fl.StringVarP(&file, "file", "f", "", "YAML file with form fields")
	fl.StringArrayVar(&evidence, "evidence", nil, "evidence file (repeatable)")
	fl.StringVar(&mugshot, "mugshot", "", "primary photograph")
	fl.BoolVar(&dryRun, "dry-run", false, "print the payload without submitting")
	_ = cmd.MarkFlagRequired("notice")
	addTokenFlag(cmd)
	return cmd
}

// readDraft 读取 YAML 草稿；列表统一转成 []string 以匹配 tags 字段。
func readDraft(path string) (model.FormData, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var in map[string]any
	if err := yaml.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("parse draft %s: %w", path, err)
	}
	out := model.FormData{}
	for k, v := range in {
		if list, ok := v.([]any); ok {
			ss := make([]string, 0, len(list))
			for _, item := range list {
				ss = append(ss, fmt.Sprint(item))
			}
			out[k] = ss
			continue
		}
		out[k] = v
	}
	return out, nil
}

func readAttachments(paths ...string) ([]leadsapi.Attachment, error) {
	out := make([]leadsapi.Attachment, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read evidence: %w", err)
		}
		out = append(out, leadsapi.Attachment{
			Name:        filepath.Base(p),
			ContentType: mime.TypeByExtension(filepath.Ext(p)),
			Data:        data,
		})
	}
	return out, nil
}
