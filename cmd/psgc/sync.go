package main

import (
	"encoding/json"
	"fmt"

	"psgc-api/internal/ingest"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	syncPath     string
	syncURL      string
	syncForce    bool
	syncSnapshot int64
)

// 退出码：0 成功；1 校验失败或其他错误；2 下载失败；3 导入失败
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Download, validate and import the latest PSGC publication",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		o := cfg.PSGC
		s := ingest.NewSyncer(
			ingest.NewImporter(st, o.Sheet),
			ingest.NewCrawler(o.PSAURL),
			ingest.NewDownloader(o.StoragePath, o.AllowedDomain),
			o.Sheet,
		)
		res, err := s.Sync(cmd.Context(), ingest.SyncOptions{
			Path:       syncPath,
			URL:        syncURL,
			Force:      syncForce,
			SnapshotID: syncSnapshot,
		})
		var se *ingest.SyncError
		if errors.As(err, &se) {
			for _, d := range se.Details {
				fmt.Fprintln(cmd.ErrOrStderr(), "  -", d)
			}
		}
		if res.RunID != "" {
			b, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
		}
		return err
	},
}

func init() {
	f := syncCmd.Flags()
	f.StringVar(&syncPath, "path", "", "import a local file instead of downloading")
	f.StringVar(&syncURL, "url", "", "download from this URL instead of crawling the publication page")
	f.BoolVar(&syncForce, "force", false, "skip structural validation")
	f.Int64Var(&syncSnapshot, "snapshot", 0, "re-import into an existing snapshot id")
}
